package behavior

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

// ErrNoApplicableAction means no candidate produced a command. The candidate
// list always contains safety fallbacks, so this indicates a broken
// invariant and the control loop should stop.
var ErrNoApplicableAction = errors.New("no applicable action")

// Decision is the outcome of one scheduling cycle. Action is only
// meaningful when Injected is false.
type Decision struct {
	Action        Action
	Command       model.MotionCommand
	Injected      bool
	Injection     string
	Candidates    []Action
	PathObstacles []model.Obstacle
}

// Label names the decision for logs and telemetry.
func (d Decision) Label() string {
	if !d.Injected {
		return d.Action.String()
	}
	if d.Injection != "" {
		return "injected:" + d.Injection
	}
	return "injected"
}

// Status is a read-only copy of the scheduler's owned state.
type Status struct {
	LastMotionCommand    model.MotionCommand
	LastKnownBall        model.Point
	ActiveSince          *time.Time
	RefSignalActiveSince *time.Time
	OwnScore             uint8
	OpponentScore        uint8
}

// Scheduler picks one motion command per cycle by walking a priority-ordered
// candidate list and taking the first applicable action. It owns the state
// that has to survive between cycles. Cycle must be called from a single
// goroutine; Swap and SetField may be called concurrently.
type Scheduler struct {
	mu         sync.RWMutex
	cfg        *Config
	injections []InjectionRule
	field      model.FieldDimensions

	lastMotionCommand model.MotionCommand
	lastKnownBall     model.Point
	activeSince       *time.Time
	refSignal         refSignalWindow
	lastAction        string
}

// NewScheduler validates cfg and compiles its injection rules.
func NewScheduler(cfg Config, field model.FieldDimensions) (*Scheduler, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: invalid field dimensions", ErrInvalidConfig)
	}
	s := &Scheduler{
		field:             field,
		lastMotionCommand: model.UnstiffCommand(),
	}
	if err := s.Swap(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Swap replaces the configuration between cycles. Validation and
// compilation happen first; on failure the old configuration stays active.
func (s *Scheduler) Swap(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	compiled, err := compileInjections(cfg.Injections)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.Injections = compiled

	s.mu.Lock()
	s.cfg = &cfg
	s.injections = compiled
	s.mu.Unlock()

	names := make([]string, len(compiled))
	for i, r := range compiled {
		names[i] = r.Name
	}
	slog.Info("behavior config swapped", "injections", names, "refSignalWindow", cfg.RefSignalWindow)
	return nil
}

// SetField replaces the field dimensions between cycles.
func (s *Scheduler) SetField(field model.FieldDimensions) error {
	if !field.Valid() {
		return fmt.Errorf("%w: invalid field dimensions", ErrInvalidConfig)
	}
	s.mu.Lock()
	s.field = field
	s.mu.Unlock()
	slog.Info("field dimensions set", "length", field.Length, "width", field.Width)
	return nil
}

func (s *Scheduler) config() (*Config, []InjectionRule, model.FieldDimensions) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.injections, s.field
}

// Status returns a copy of the owned state.
func (s *Scheduler) Status() Status {
	st := Status{
		LastMotionCommand: s.lastMotionCommand,
		LastKnownBall:     s.lastKnownBall,
		OwnScore:          s.refSignal.scores.own,
		OpponentScore:     s.refSignal.scores.opponent,
	}
	if s.activeSince != nil {
		t := *s.activeSince
		st.ActiveSince = &t
	}
	if s.refSignal.activeSince != nil {
		t := *s.refSignal.activeSince
		st.RefSignalActiveSince = &t
	}
	return st
}

// Cycle runs one scheduling pass over snap.
func (s *Scheduler) Cycle(snap *model.Snapshot) (Decision, error) {
	cfg, injections, field := s.config()

	if cfg.InjectedMotionCommand != nil {
		return Decision{Command: *cfg.InjectedMotionCommand, Injected: true}, nil
	}
	if len(injections) > 0 {
		if r, ok := matchInjection(injections, newInjectionEnv(snap, s.refSignal.scores)); ok {
			return Decision{Command: r.Command, Injected: true, Injection: r.Name}, nil
		}
	}

	world := &snap.World
	now := snap.Now()
	if world.Ball != nil {
		s.lastKnownBall = world.Ball.InField
	}
	s.updateActiveSince(now, world.Robot.PrimaryState)

	gc, _ := snap.LatestGameControllerMessage()
	detectRefSignal := s.refSignal.update(now, snap.Whistle, gc, cfg.RefSignalWindow)
	lookAround := s.activeSince != nil && !expired(now, *s.activeSince, cfg.InitialLookAroundDuration)

	candidates := candidateActions(world, detectRefSignal, lookAround)
	env := &Env{
		Snapshot:          snap,
		World:             world,
		Config:            cfg,
		Field:             field,
		Now:               now,
		LastMotionCommand: s.lastMotionCommand,
		LastKnownBall:     s.lastKnownBall,
	}

	for _, action := range candidates {
		cmd, ok := evaluate(action, env)
		if !ok {
			continue
		}
		s.lastMotionCommand = cmd
		if label := action.String(); label != s.lastAction {
			slog.Info("active action changed", "from", s.lastAction, "to", label,
				"primaryState", world.Robot.PrimaryState, "role", world.Robot.Role)
			s.lastAction = label
		}
		slog.Debug("action selected", "action", action, "motion", cmd.Kind, "candidates", len(candidates))
		return Decision{
			Action:        action,
			Command:       cmd,
			Candidates:    candidates,
			PathObstacles: env.PathObstacles,
		}, nil
	}

	return Decision{Candidates: candidates}, fmt.Errorf("%w: primary state %s, role %s, candidates %v",
		ErrNoApplicableAction, world.Robot.PrimaryState, world.Robot.Role, candidates)
}

// updateActiveSince records when the robot entered active play. Set keeps
// the timestamp so a Ready-Set-Playing sequence counts as one activation.
func (s *Scheduler) updateActiveSince(now time.Time, primary model.PrimaryState) {
	switch {
	case s.activeSince == nil && primary.IsActive():
		since := now
		s.activeSince = &since
		slog.Info("active play entered", "primaryState", primary)
	case s.activeSince == nil:
	case primary.IsActive(), primary == model.PrimarySet:
	default:
		s.activeSince = nil
		slog.Info("active play left", "primaryState", primary)
	}
}

// expired reports whether more than d has passed since start. A cycle time
// before start means the clock went backwards; the check is skipped and the
// timer counts as still running.
func expired(now, start time.Time, d time.Duration) bool {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		slog.Warn("cycle time precedes timer start, skipping check", "elapsed", elapsed)
		return false
	}
	return elapsed >= d
}
