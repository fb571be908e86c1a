package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/nstehr/pitch/pitch-core/agent"
	"github.com/nstehr/pitch/pitch-core/config"
	"github.com/nstehr/pitch/pitch-core/model"
	"github.com/nstehr/pitch/pitch-core/referee"
	"github.com/nstehr/pitch/pitch-core/telemetry"
)

const DefaultCyclePeriod = 10 * time.Millisecond

// Options configure a simulation run. A nil Config means config.Default.
type Options struct {
	Config   *config.Config
	Recorder *telemetry.Recorder
	Metrics  *telemetry.Metrics
	// Start is the simulated clock at the first cycle.
	Start time.Time
}

// Result summarizes a run. Failures lists every expectation that did not
// hold; the run continues past them.
type Result struct {
	Name     string
	RunID    string
	Cycles   int
	Elapsed  time.Duration
	Actions  map[string]int
	Reports  []model.GameControllerReturnMessage
	Failures []string
}

func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// reportSink collects every report the reporter hands to the radio.
type reportSink struct {
	reports []model.GameControllerReturnMessage
}

func (s *reportSink) WriteToNetwork(msg model.OutgoingMessage) error {
	if msg.GameControllerReturn != nil {
		s.reports = append(s.reports, *msg.GameControllerReturn)
	}
	return nil
}

// world is the simulated perception output the snapshots are built from.
type world struct {
	primary   model.PrimaryState
	role      model.Role
	pose      *model.Pose
	fall      model.FallState
	ball      *model.Point
	filtered  *model.FilteredGameState
	gc        *model.GameControllerState
	signal    *uint8
	whistle   bool
	gcMessage *model.GameControllerMessage
}

func (w *world) snapshot(now time.Time, period time.Duration) *model.Snapshot {
	snap := &model.Snapshot{
		World: model.WorldState{
			Robot: model.RobotState{
				PrimaryState:     w.primary,
				Role:             w.role,
				FallState:        w.fall,
				HasGroundContact: w.fall.Kind != model.FallFallen,
			},
			FilteredGameState:   w.filtered,
			GameControllerState: w.gc,
		},
		HandSignal: w.signal,
		CycleTime:  model.CycleTime{StartTime: now, LastCycleDuration: period},
	}
	if w.pose != nil {
		pose := *w.pose
		snap.World.Robot.RobotToField = &pose
	}
	if w.ball != nil {
		relative := *w.ball
		if w.pose != nil {
			relative = w.pose.Inverse().Apply(*w.ball)
		}
		side := model.SideLeft
		if w.ball.Y < 0 {
			side = model.SideRight
		}
		snap.World.Ball = &model.BallState{Position: relative, InField: *w.ball, FieldSide: side}
	}
	if w.whistle {
		at := now
		snap.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true, LastDetection: &at}
		w.whistle = false
	}
	if w.gcMessage != nil {
		snap.Messages = []model.TimedMessages{{
			ReceivedAt: now,
			Messages:   []model.IncomingMessage{{GameController: w.gcMessage}},
		}}
		w.gcMessage = nil
	}
	return snap
}

type run struct {
	scenario *Scenario
	period   time.Duration
	agent    *agent.Agent
	sink     *reportSink
	world    world
	now      time.Time
	start    time.Time
	last     string
	result   *Result
}

// Run plays scenario against a fresh agent. Script errors such as unknown
// step arguments and fatal scheduler errors abort the run.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	period := scenario.CyclePeriod
	if period <= 0 {
		period = DefaultCyclePeriod
	}

	sink := &reportSink{}
	a, err := agent.New(nil, cfg, agent.Options{
		Sink:     sink,
		Metrics:  opts.Metrics,
		Recorder: opts.Recorder,
		Source:   "simulator:" + scenario.Name,
	})
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		return nil, fmt.Errorf("start recorder run: %w", err)
	}

	r := &run{
		scenario: scenario,
		period:   period,
		agent:    a,
		sink:     sink,
		now:      start,
		start:    start,
		result:   &Result{Name: scenario.Name, RunID: a.RunID(), Actions: map[string]int{}},
	}
	r.world = world{
		primary: model.PrimaryInitial,
		role:    model.RoleStriker,
		fall:    model.FallState{Kind: model.FallUpright},
	}

	slog.Info("simulation started", "scenario", scenario.Name, "steps", len(scenario.Steps), "period", period)
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		if err := r.apply(ctx, step); err != nil {
			return r.result, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
	}
	r.result.Elapsed = r.now.Sub(start)
	r.result.Reports = sink.reports
	slog.Info("simulation finished",
		"scenario", scenario.Name,
		"cycles", r.result.Cycles,
		"reports", len(sink.reports),
		"failures", len(r.result.Failures),
	)
	return r.result, nil
}

func (r *run) apply(ctx context.Context, step Step) error {
	args := step.Args
	switch step.Kind {
	case "robot":
		return r.applyRobot(args)
	case "state":
		s, err := parsePrimary(stringArg(args, "value", ""))
		if err != nil {
			return err
		}
		r.world.primary = s
	case "role":
		role, err := parseRole(stringArg(args, "value", ""))
		if err != nil {
			return err
		}
		r.world.role = role
	case "game":
		return r.applyGame(args)
	case "pose":
		r.world.pose = &model.Pose{
			X:     floatArg(args, "x", 0),
			Y:     floatArg(args, "y", 0),
			Theta: floatArg(args, "theta", 0),
		}
	case "lose_pose":
		r.world.pose = nil
	case "fall":
		return r.applyFall(stringArg(args, "value", ""), stringArg(args, "detail", ""))
	case "ball":
		r.world.ball = &model.Point{X: floatArg(args, "x", 0), Y: floatArg(args, "y", 0)}
	case "lose_ball":
		r.world.ball = nil
	case "whistle":
		r.world.whistle = true
	case "score":
		own, opp := intArg(args, "own", 0), intArg(args, "opponent", 0)
		if own < 0 || own > math.MaxUint8 || opp < 0 || opp > math.MaxUint8 {
			return fmt.Errorf("score %d:%d out of range", own, opp)
		}
		msg := &model.GameControllerMessage{
			OwnTeam:      model.TeamState{Score: uint8(own)},
			OpponentTeam: model.TeamState{Score: uint8(opp)},
			Sender:       stringArg(args, "sender", ""),
		}
		if r.world.gc != nil {
			msg.GameState = r.world.gc.GameState
			msg.GamePhase = r.world.gc.GamePhase
			msg.KickingTeam = r.world.gc.KickingTeam
		}
		r.world.gcMessage = msg
	case "hand_signal":
		if _, ok := args["value"]; !ok {
			r.world.signal = nil
			return nil
		}
		v := intArg(args, "value", 0)
		if v < 0 || v > math.MaxUint8 {
			return fmt.Errorf("hand signal %d out of range", v)
		}
		signal := uint8(v)
		r.world.signal = &signal
	case "advance":
		d := time.Duration(floatArg(args, "seconds", 0) * float64(time.Second))
		n := int(math.Round(float64(d) / float64(r.period)))
		return r.cycles(ctx, max(n, 1))
	case "cycle":
		return r.cycles(ctx, max(intArg(args, "count", 1), 1))
	case "expect_action":
		if want := stringArg(args, "value", ""); r.last != want {
			r.fail("action = %q, want %q", r.last, want)
		}
	case "expect_reports":
		if want := intArg(args, "value", 0); len(r.sink.reports) != want {
			r.fail("reports = %d, want %d", len(r.sink.reports), want)
		}
	case "expect_reporter":
		want := stringArg(args, "value", "")
		if !slices.Contains(ReporterStates(), want) {
			return fmt.Errorf("unknown reporter state %q", want)
		}
		if got := string(r.agent.Reporter().State()); got != want {
			r.fail("reporter state = %q, want %q", got, want)
		}
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
	return nil
}

func (r *run) fail(format string, args ...any) {
	msg := fmt.Sprintf("at %s: ", r.now.Sub(r.start)) + fmt.Sprintf(format, args...)
	r.result.Failures = append(r.result.Failures, msg)
	slog.Warn("expectation failed", "scenario", r.scenario.Name, "detail", msg)
}

func (r *run) cycles(ctx context.Context, n int) error {
	for range n {
		snap := r.world.snapshot(r.now, r.period)
		msg, err := r.agent.Step(ctx, snap)
		if err != nil {
			return err
		}
		r.last = msg.Action
		if msg.Injected {
			r.last = "injected"
			if msg.Injection != "" {
				r.last += ":" + msg.Injection
			}
		}
		r.result.Actions[r.last]++
		r.result.Cycles++
		r.now = r.now.Add(r.period)
	}
	return nil
}

func (r *run) applyRobot(args map[string]any) error {
	if _, ok := args["player"]; ok {
		n := model.PlayerNumber(intArg(args, "player", 0))
		if err := n.Validate(); err != nil {
			return err
		}
		r.agent.Player = n
		r.agent.Reporter().SetPlayerNumber(n)
	}
	if v := stringArg(args, "role", ""); v != "" {
		role, err := parseRole(v)
		if err != nil {
			return err
		}
		r.world.role = role
	}
	if v := stringArg(args, "state", ""); v != "" {
		s, err := parsePrimary(v)
		if err != nil {
			return err
		}
		r.world.primary = s
	}
	if localized, ok := args["localized"].(bool); ok && !localized {
		r.world.pose = nil
		return nil
	}
	_, hasX := args["x"]
	_, hasY := args["y"]
	if hasX || hasY {
		r.world.pose = &model.Pose{
			X:     floatArg(args, "x", 0),
			Y:     floatArg(args, "y", 0),
			Theta: floatArg(args, "theta", 0),
		}
	}
	return nil
}

// applyGame sets both the filtered and the game controller view of the
// game state. Options: kicking_team, ball_free, phase, sub_state.
func (r *run) applyGame(args map[string]any) error {
	state := model.GameState(stringArg(args, "value", ""))
	if !slices.Contains(gameStates, state) {
		return fmt.Errorf("unknown game state %q", state)
	}
	kicking := model.Team(stringArg(args, "kicking_team", string(model.TeamOwn)))
	switch kicking {
	case model.TeamOwn, model.TeamOpponent, model.TeamUncertain:
	default:
		return fmt.Errorf("unknown kicking team %q", kicking)
	}
	free, ok := args["ball_free"].(bool)
	if !ok {
		free = true
	}
	phase := model.PhaseKind(stringArg(args, "phase", string(model.PhaseNormal)))

	r.world.filtered = &model.FilteredGameState{State: state}
	switch state {
	case model.GameReady:
		r.world.filtered.KickingTeam = kicking
	case model.GamePlaying:
		r.world.filtered.BallIsFree = free
	}
	r.world.gc = &model.GameControllerState{
		GameState:           state,
		GamePhase:           model.GamePhase{Kind: phase},
		KickingTeam:         kicking,
		SubState:            model.SubState(stringArg(args, "sub_state", "")),
		LastGameStateChange: r.now,
	}
	if phase == model.PhasePenaltyShootout {
		r.world.gc.GamePhase.KickingTeam = kicking
	}
	return nil
}

func (r *run) applyFall(kind, detail string) error {
	switch model.FallKind(kind) {
	case model.FallUpright:
		r.world.fall = model.FallState{Kind: model.FallUpright}
	case model.FallFalling:
		if detail == "" {
			detail = string(model.FallForward)
		}
		r.world.fall = model.FallState{Kind: model.FallFalling, Direction: model.FallDirection(detail)}
	case model.FallFallen:
		if detail == "" {
			detail = string(model.FacingDown)
		}
		r.world.fall = model.FallState{Kind: model.FallFallen, Facing: model.Facing(detail)}
	default:
		return fmt.Errorf("unknown fall state %q", kind)
	}
	return nil
}

var gameStates = []model.GameState{
	model.GameInitial, model.GameReady, model.GameSet, model.GamePlaying, model.GameFinished,
}

func parsePrimary(s string) (model.PrimaryState, error) {
	p := model.PrimaryState(s)
	if !slices.Contains(model.PrimaryStates(), p) {
		return "", fmt.Errorf("unknown primary state %q", s)
	}
	return p, nil
}

func parseRole(s string) (model.Role, error) {
	role := model.Role(s)
	if !slices.Contains(model.Roles(), role) {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

func floatArg(args map[string]any, key string, def float64) float64 {
	if v, ok := toFloat(args[key]); ok {
		return v
	}
	return def
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ReporterStates lists the reporter state names expect_reporter accepts.
func ReporterStates() []string {
	return []string{string(referee.StateIdle), string(referee.StateWindowOpen), string(referee.StateSent)}
}
