package behavior

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/pitch/pitch-core/model"
)

// InjectionRule overrides scheduling with a fixed command while its
// condition holds. Conditions are expr-lang expressions over InjectionEnv,
// e.g. `PrimaryState == "playing" && !HasPose`.
type InjectionRule struct {
	Name    string              `json:"name" yaml:"name"`
	When    string              `json:"when" yaml:"when"`
	Command model.MotionCommand `json:"command" yaml:"command"`
	program *vm.Program
}

// InjectionEnv is the flat view of a snapshot that injection conditions
// are evaluated against.
type InjectionEnv struct {
	PrimaryState    string
	Role            string
	GameState       string
	GamePhase       string
	SubState        string
	HasPose         bool
	HasBall         bool
	Fallen          bool
	WhistleDetected bool
	OwnScore        int
	OpponentScore   int
}

func newInjectionEnv(snap *model.Snapshot, scores scoreCache) InjectionEnv {
	w := snap.World
	env := InjectionEnv{
		PrimaryState:    string(w.Robot.PrimaryState),
		Role:            string(w.Robot.Role),
		HasPose:         w.Robot.RobotToField != nil,
		HasBall:         w.Ball != nil,
		Fallen:          w.Robot.FallState.Kind == model.FallFallen,
		WhistleDetected: snap.Whistle.IsDetected,
		OwnScore:        int(scores.own),
		OpponentScore:   int(scores.opponent),
	}
	if gc := w.GameControllerState; gc != nil {
		env.GameState = string(gc.GameState)
		env.GamePhase = string(gc.GamePhase.Kind)
		env.SubState = string(gc.SubState)
	}
	return env
}

// compileInjections compiles every condition. Rules keep their configured
// order; the first match wins.
func compileInjections(rules []InjectionRule) ([]InjectionRule, error) {
	compiled := make([]InjectionRule, len(rules))
	for i, r := range rules {
		prog, err := expr.Compile(r.When, expr.Env(InjectionEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile injection %q: %w", r.Name, err)
		}
		r.program = prog
		compiled[i] = r
	}
	return compiled, nil
}

// matchInjection returns the first rule whose condition is true. Runtime
// errors are logged and the rule is skipped.
func matchInjection(rules []InjectionRule, env InjectionEnv) (*InjectionRule, bool) {
	for i := range rules {
		r := &rules[i]
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("injection condition error", "rule", r.Name, "error", err)
			continue
		}
		if match, ok := result.(bool); ok && match {
			return r, true
		}
	}
	return nil, false
}
