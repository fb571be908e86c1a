package behavior

import (
	"errors"
	"testing"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultConfig(), model.StandardField())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

// playingSnapshot is a localized striker in open play with the ball ahead.
func playingSnapshot(at time.Time) *model.Snapshot {
	return &model.Snapshot{
		World: model.WorldState{
			Robot: model.RobotState{
				PrimaryState:     model.PrimaryPlaying,
				Role:             model.RoleStriker,
				RobotToField:     &model.Pose{X: -2, Y: 0.5},
				FallState:        model.FallState{Kind: model.FallUpright},
				HasGroundContact: true,
			},
			Ball: &model.BallState{
				Position:  model.Point{X: 2, Y: -0.5},
				InField:   model.Point{X: 0, Y: 0},
				FieldSide: model.SideLeft,
			},
			FilteredGameState:   &model.FilteredGameState{State: model.GamePlaying, BallIsFree: true},
			GameControllerState: &model.GameControllerState{GameState: model.GamePlaying, GamePhase: model.GamePhase{Kind: model.PhaseNormal}},
		},
		CycleTime: model.CycleTime{StartTime: at},
	}
}

func withScore(snap *model.Snapshot, own, opponent uint8) *model.Snapshot {
	snap.Messages = append(snap.Messages, model.TimedMessages{
		ReceivedAt: snap.Now(),
		Messages: []model.IncomingMessage{{GameController: &model.GameControllerMessage{
			GameState:    model.GamePlaying,
			OwnTeam:      model.TeamState{TeamNumber: 8, Score: own},
			OpponentTeam: model.TeamState{TeamNumber: 12, Score: opponent},
		}}},
	})
	return snap
}

func mustCycle(t *testing.T, s *Scheduler, snap *model.Snapshot) Decision {
	t.Helper()
	d, err := s.Cycle(snap)
	if err != nil {
		t.Fatalf("Cycle at %s: %v", snap.Now().Format(time.StampMilli), err)
	}
	return d
}

func hasCandidate(d Decision, a Action) bool {
	for _, c := range d.Candidates {
		if c == a {
			return true
		}
	}
	return false
}

// settle runs one cycle well before at so the initial look-around has ended.
func settle(t *testing.T, s *Scheduler, at time.Time) {
	t.Helper()
	mustCycle(t, s, playingSnapshot(at.Add(-10*time.Second)))
}

func TestPenalizedStrikerIsPenalized(t *testing.T) {
	s := newTestScheduler(t)
	snap := playingSnapshot(t0)
	snap.World.Robot.PrimaryState = model.PrimaryPenalized

	d := mustCycle(t, s, snap)
	if d.Action != ActionPenalize {
		t.Errorf("action = %s, want penalize", d.Action)
	}
	if d.Command.Kind != model.MotionPenalized {
		t.Errorf("command = %s, want penalized", d.Command.Kind)
	}
}

func TestWhistleDuringPlayDetectsRefSignal(t *testing.T) {
	s := newTestScheduler(t)
	settle(t, s, t0)

	snap := playingSnapshot(t0)
	snap.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}
	d := mustCycle(t, s, snap)
	if d.Action != ActionDetectRefSignal {
		t.Fatalf("action = %s, want detect_ref_signal", d.Action)
	}
	if d.Command.Kind != model.MotionStand || d.Command.Head == nil || d.Command.Head.Kind != model.HeadLookAt {
		t.Errorf("command = %+v, want stand looking at the referee", d.Command)
	}
	// Referee stands at (0, 3); the robot at (-2, 0.5) facing +x sees it ahead-left.
	target := *d.Command.Head.Target
	if target.X <= 0 || target.Y <= 0 {
		t.Errorf("look target = %+v, want ahead-left", target)
	}
}

func TestReadyPenaltyKickWalksToPenaltyKick(t *testing.T) {
	s := newTestScheduler(t)
	ready := func(at time.Time) *model.Snapshot {
		snap := playingSnapshot(at)
		snap.World.Robot.PrimaryState = model.PrimaryReady
		snap.World.FilteredGameState = &model.FilteredGameState{State: model.GameReady, KickingTeam: model.TeamOwn}
		snap.World.GameControllerState = &model.GameControllerState{
			GameState:   model.GameReady,
			GamePhase:   model.GamePhase{Kind: model.PhaseNormal},
			KickingTeam: model.TeamOwn,
			SubState:    model.SubStatePenaltyKick,
		}
		return snap
	}

	first := mustCycle(t, s, ready(t0))
	if first.Action != ActionLookAround {
		t.Errorf("first active cycle action = %s, want look_around", first.Action)
	}

	d := mustCycle(t, s, ready(t0.Add(6*time.Second)))
	if d.Action != ActionWalkToPenaltyKick {
		t.Fatalf("action = %s, want walk_to_penalty_kick", d.Action)
	}
	if d.Command.Kind != model.MotionWalk {
		t.Errorf("command = %s, want walk", d.Command.Kind)
	}
}

func TestInitialIgnoresWhistle(t *testing.T) {
	s := newTestScheduler(t)
	snap := playingSnapshot(t0)
	snap.World.Robot.PrimaryState = model.PrimaryInitial
	snap.World.Robot.RobotToField = nil
	snap.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}

	d := mustCycle(t, s, snap)
	if d.Action != ActionInitial {
		t.Errorf("action = %s, want initial", d.Action)
	}
	if !d.Command.IsEnergySaving {
		t.Error("initial stand should be energy saving")
	}
	if d.Command.Head == nil || d.Command.Head.Kind != model.HeadCenter {
		t.Errorf("head = %+v, want center without a pose", d.Command.Head)
	}
}

func TestPriorityOrder(t *testing.T) {
	tests := []struct {
		name    string
		primary model.PrimaryState
		fall    model.FallState
		want    Action
	}{
		{"unstiff beats fallen", model.PrimaryUnstiff, model.FallState{Kind: model.FallFallen, Facing: model.FacingDown}, ActionUnstiff},
		{"penalized beats falling", model.PrimaryPenalized, model.FallState{Kind: model.FallFalling, Direction: model.FallForward}, ActionPenalize},
		{"finished sits down", model.PrimaryFinished, model.FallState{Kind: model.FallUpright}, ActionSitDown},
		{"falling beats tactics", model.PrimaryPlaying, model.FallState{Kind: model.FallFalling, Direction: model.FallLeft}, ActionFallSafely},
		{"fallen stands up", model.PrimaryPlaying, model.FallState{Kind: model.FallFallen, Facing: model.FacingUp}, ActionStandUp},
		{"calibration", model.PrimaryCalibration, model.FallState{Kind: model.FallUpright}, ActionCalibrate},
		{"set stands", model.PrimarySet, model.FallState{Kind: model.FallUpright}, ActionStand},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestScheduler(t)
			snap := playingSnapshot(t0)
			snap.World.Robot.PrimaryState = tc.primary
			snap.World.Robot.FallState = tc.fall
			d := mustCycle(t, s, snap)
			if d.Action != tc.want {
				t.Errorf("action = %s, want %s", d.Action, tc.want)
			}
		})
	}
}

func TestEveryStateAndRoleHasAnAction(t *testing.T) {
	poses := []*model.Pose{nil, {X: -1, Y: 1, Theta: 0.5}}
	balls := []*model.BallState{nil, {Position: model.Point{X: 0.2, Y: 0.05}, InField: model.Point{X: -0.8, Y: 1.1}, FieldSide: model.SideRight}}
	filtered := []*model.FilteredGameState{
		nil,
		{State: model.GameInitial},
		{State: model.GameReady, KickingTeam: model.TeamOwn},
		{State: model.GameReady, KickingTeam: model.TeamOpponent},
		{State: model.GameSet},
		{State: model.GamePlaying, BallIsFree: true},
		{State: model.GamePlaying, BallIsFree: false},
		{State: model.GameFinished},
	}
	controllers := []*model.GameControllerState{
		nil,
		{GameState: model.GamePlaying, GamePhase: model.GamePhase{Kind: model.PhaseNormal}},
		{GameState: model.GamePlaying, GamePhase: model.GamePhase{Kind: model.PhasePenaltyShootout, KickingTeam: model.TeamOpponent}},
		{GameState: model.GameReady, GamePhase: model.GamePhase{Kind: model.PhaseNormal}, KickingTeam: model.TeamOpponent, SubState: model.SubStatePenaltyKick},
		{GameState: model.GameReady, GamePhase: model.GamePhase{Kind: model.PhaseNormal}, KickingTeam: model.TeamOwn, SubState: model.SubStatePenaltyKick},
	}

	for _, primary := range model.PrimaryStates() {
		for _, role := range append(model.Roles(), "", "goalie") {
			s := newTestScheduler(t)
			now := t0
			for _, pose := range poses {
				for _, ball := range balls {
					for _, fgs := range filtered {
						for _, gc := range controllers {
							now = now.Add(83 * time.Millisecond)
							snap := &model.Snapshot{
								World: model.WorldState{
									Robot: model.RobotState{
										PrimaryState: primary,
										Role:         role,
										RobotToField: pose,
										FallState:    model.FallState{Kind: model.FallUpright},
									},
									Ball:                ball,
									FilteredGameState:   fgs,
									GameControllerState: gc,
								},
								CycleTime: model.CycleTime{StartTime: now},
							}
							if _, err := s.Cycle(snap); err != nil {
								t.Fatalf("primary %s role %s pose %v ball %v: %v", primary, role, pose != nil, ball != nil, err)
							}
						}
					}
				}
			}
		}
	}
}

func TestRefSignalWindowBoundary(t *testing.T) {
	s := newTestScheduler(t)
	settle(t, s, t0)

	whistle := playingSnapshot(t0)
	whistle.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}
	mustCycle(t, s, whistle)

	tests := []struct {
		offset time.Duration
		want   bool
	}{
		{5 * time.Second, true},
		{15 * time.Second, true},
		{15*time.Second + 100*time.Millisecond, false},
		{16 * time.Second, false},
	}
	for _, tc := range tests {
		d := mustCycle(t, s, playingSnapshot(t0.Add(tc.offset)))
		if got := hasCandidate(d, ActionDetectRefSignal); got != tc.want {
			t.Errorf("at +%s detect_ref_signal candidate = %v, want %v", tc.offset, got, tc.want)
		}
	}
}

func TestScoreChangeOpensWindowOnce(t *testing.T) {
	s := newTestScheduler(t)
	settle(t, s, t0)

	d := mustCycle(t, s, withScore(playingSnapshot(t0), 1, 0))
	if d.Action != ActionDetectRefSignal {
		t.Fatalf("goal cycle action = %s, want detect_ref_signal", d.Action)
	}
	if st := s.Status(); st.OwnScore != 1 || st.OpponentScore != 0 {
		t.Errorf("cached score = %d:%d, want 1:0", st.OwnScore, st.OpponentScore)
	}

	// Same score reported every cycle after the window closed must not reopen it.
	for _, offset := range []time.Duration{16 * time.Second, 17 * time.Second, 30 * time.Second} {
		d := mustCycle(t, s, withScore(playingSnapshot(t0.Add(offset)), 1, 0))
		if hasCandidate(d, ActionDetectRefSignal) {
			t.Errorf("at +%s unchanged score reopened the window", offset)
		}
	}

	d = mustCycle(t, s, withScore(playingSnapshot(t0.Add(31*time.Second)), 1, 1))
	if !hasCandidate(d, ActionDetectRefSignal) {
		t.Error("opponent goal should open the window")
	}
}

func TestCyclesWithoutControllerMessageKeepScores(t *testing.T) {
	s := newTestScheduler(t)
	mustCycle(t, s, withScore(playingSnapshot(t0), 2, 3))
	mustCycle(t, s, playingSnapshot(t0.Add(time.Second)))
	if st := s.Status(); st.OwnScore != 2 || st.OpponentScore != 3 {
		t.Errorf("cached score = %d:%d, want 2:3", st.OwnScore, st.OpponentScore)
	}
}

func TestClockBackwardsDoesNotFail(t *testing.T) {
	s := newTestScheduler(t)
	settle(t, s, t0)

	whistle := playingSnapshot(t0)
	whistle.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}
	mustCycle(t, s, whistle)

	d := mustCycle(t, s, playingSnapshot(t0.Add(-2*time.Second)))
	if !hasCandidate(d, ActionDetectRefSignal) {
		t.Error("window should stay open when the clock jumps backwards")
	}
}

func TestActiveSinceLifecycle(t *testing.T) {
	s := newTestScheduler(t)
	at := func(primary model.PrimaryState, offset time.Duration) {
		snap := playingSnapshot(t0.Add(offset))
		snap.World.Robot.PrimaryState = primary
		mustCycle(t, s, snap)
	}

	at(model.PrimaryInitial, 0)
	if s.Status().ActiveSince != nil {
		t.Fatal("active since set in initial")
	}
	at(model.PrimaryReady, time.Second)
	at(model.PrimarySet, 2*time.Second)
	at(model.PrimaryPlaying, 3*time.Second)
	got := s.Status().ActiveSince
	if got == nil || !got.Equal(t0.Add(time.Second)) {
		t.Fatalf("active since = %v, want ready entry time", got)
	}
	at(model.PrimaryPenalized, 4*time.Second)
	if s.Status().ActiveSince != nil {
		t.Error("penalized should clear active since")
	}
	at(model.PrimaryPlaying, 5*time.Second)
	if got := s.Status().ActiveSince; got == nil || !got.Equal(t0.Add(5*time.Second)) {
		t.Errorf("active since = %v, want re-entry time", got)
	}
}

func TestMissingPoseFallsBackToStand(t *testing.T) {
	s := newTestScheduler(t)
	settle(t, s, t0)
	snap := playingSnapshot(t0)
	snap.World.Robot.RobotToField = nil
	snap.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}

	d := mustCycle(t, s, snap)
	if d.Action != ActionStand {
		t.Errorf("action = %s, want stand", d.Action)
	}
	if d.Command.Head == nil || d.Command.Head.Kind != model.HeadLookAround {
		t.Errorf("head = %+v, want look around", d.Command.Head)
	}
}

func TestUnassignedRoleStands(t *testing.T) {
	tests := []struct {
		primary model.PrimaryState
		role    model.Role
	}{
		{model.PrimaryPlaying, ""},
		{model.PrimaryReady, ""},
		{model.PrimaryPlaying, "goalie"},
	}
	for _, tt := range tests {
		s := newTestScheduler(t)
		settle(t, s, t0)
		snap := playingSnapshot(t0)
		snap.World.Robot.PrimaryState = tt.primary
		snap.World.Robot.Role = tt.role

		d, err := s.Cycle(snap)
		if err != nil {
			t.Fatalf("%s role %q: Cycle: %v", tt.primary, tt.role, err)
		}
		if d.Action != ActionStand {
			t.Errorf("%s role %q: action = %s, want stand", tt.primary, tt.role, d.Action)
		}
		if d.Command.Head == nil || d.Command.Head.Kind != model.HeadLookAround {
			t.Errorf("%s role %q: head = %+v, want look around", tt.primary, tt.role, d.Command.Head)
		}
	}
}

func TestInjectedCommandBypassesScheduling(t *testing.T) {
	cfg := DefaultConfig()
	injected := model.SitDownCommand()
	cfg.InjectedMotionCommand = &injected
	s, err := NewScheduler(cfg, model.StandardField())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	snap := withScore(playingSnapshot(t0), 4, 0)
	snap.Whistle = model.FilteredWhistle{IsDetected: true, StartedThisCycle: true}
	d := mustCycle(t, s, snap)
	if !d.Injected || d.Command.Kind != model.MotionSitDown {
		t.Errorf("decision = %+v, want injected sit down", d)
	}
	st := s.Status()
	if st.ActiveSince != nil || st.RefSignalActiveSince != nil || st.OwnScore != 0 {
		t.Errorf("injection touched scheduler state: %+v", st)
	}
	if st.LastMotionCommand.Kind != model.MotionUnstiff {
		t.Errorf("last motion command = %s, want unstiff", st.LastMotionCommand.Kind)
	}
}

func TestInjectionRuleMatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Injections = []InjectionRule{
		{Name: "never", When: `Role == "keeper"`, Command: model.PenalizedCommand()},
		{Name: "lost", When: `PrimaryState == "playing" && !HasPose`, Command: model.SitDownCommand()},
	}
	s, err := NewScheduler(cfg, model.StandardField())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	snap := playingSnapshot(t0)
	snap.World.Robot.RobotToField = nil
	d := mustCycle(t, s, snap)
	if !d.Injected || d.Injection != "lost" || d.Command.Kind != model.MotionSitDown {
		t.Errorf("decision = %+v, want injection lost", d)
	}
	if d.Label() != "injected:lost" {
		t.Errorf("Label() = %q, want injected:lost", d.Label())
	}

	d = mustCycle(t, s, playingSnapshot(t0.Add(time.Second)))
	if d.Injected {
		t.Errorf("localized robot should be scheduled normally, got %+v", d)
	}
}

func TestSwapRejectsBadConfig(t *testing.T) {
	s := newTestScheduler(t)
	bad := DefaultConfig()
	bad.Injections = []InjectionRule{{Name: "broken", When: "Role ==", Command: model.SitDownCommand()}}
	if err := s.Swap(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Swap(bad) = %v, want ErrInvalidConfig", err)
	}
	d := mustCycle(t, s, playingSnapshot(t0))
	if d.Injected {
		t.Error("failed swap should keep the previous config")
	}

	good := DefaultConfig()
	good.RefSignalWindow = 3 * time.Second
	if err := s.Swap(good); err != nil {
		t.Fatalf("Swap(good): %v", err)
	}
	whistle := playingSnapshot(t0.Add(10 * time.Second))
	whistle.Whistle = model.FilteredWhistle{StartedThisCycle: true}
	mustCycle(t, s, whistle)
	d = mustCycle(t, s, playingSnapshot(t0.Add(14*time.Second)))
	if hasCandidate(d, ActionDetectRefSignal) {
		t.Error("swapped 3s window should have closed after 4s")
	}
}

func TestLastKnownBallTracked(t *testing.T) {
	s := newTestScheduler(t)
	snap := playingSnapshot(t0)
	snap.World.Ball.InField = model.Point{X: 1.5, Y: -2}
	mustCycle(t, s, snap)

	lost := playingSnapshot(t0.Add(time.Second))
	lost.World.Ball = nil
	mustCycle(t, s, lost)
	if got := s.Status().LastKnownBall; got != (model.Point{X: 1.5, Y: -2}) {
		t.Errorf("last known ball = %+v, want {1.5 -2}", got)
	}
}

func TestNewSchedulerRejectsInvalidField(t *testing.T) {
	if _, err := NewScheduler(DefaultConfig(), model.FieldDimensions{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewScheduler with zero field = %v, want ErrInvalidConfig", err)
	}
}
