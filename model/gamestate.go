package model

import "time"

// PrimaryState is the robot's top-level mode, decided upstream of behavior
// from the game controller, button presses and penalties.
type PrimaryState string

const (
	PrimaryUnstiff     PrimaryState = "unstiff"
	PrimaryInitial     PrimaryState = "initial"
	PrimaryReady       PrimaryState = "ready"
	PrimarySet         PrimaryState = "set"
	PrimaryPlaying     PrimaryState = "playing"
	PrimaryPenalized   PrimaryState = "penalized"
	PrimaryFinished    PrimaryState = "finished"
	PrimaryCalibration PrimaryState = "calibration"
)

// PrimaryStates lists every primary state in declaration order.
func PrimaryStates() []PrimaryState {
	return []PrimaryState{
		PrimaryUnstiff, PrimaryInitial, PrimaryReady, PrimarySet,
		PrimaryPlaying, PrimaryPenalized, PrimaryFinished, PrimaryCalibration,
	}
}

// IsActive reports whether the robot is taking part in play (Ready or Playing).
func (p PrimaryState) IsActive() bool {
	return p == PrimaryReady || p == PrimaryPlaying
}

// Role is the tactical role assigned to the robot by team coordination.
type Role string

const (
	RoleKeeper            Role = "keeper"
	RoleReplacementKeeper Role = "replacement_keeper"
	RoleDefenderLeft      Role = "defender_left"
	RoleDefenderRight     Role = "defender_right"
	RoleMidfielderLeft    Role = "midfielder_left"
	RoleMidfielderRight   Role = "midfielder_right"
	RoleStriker           Role = "striker"
	RoleStrikerSupporter  Role = "striker_supporter"
	RoleSearcher          Role = "searcher"
	RoleLoser             Role = "loser"
)

// Roles lists every tactical role.
func Roles() []Role {
	return []Role{
		RoleKeeper, RoleReplacementKeeper, RoleDefenderLeft, RoleDefenderRight,
		RoleMidfielderLeft, RoleMidfielderRight, RoleStriker, RoleStrikerSupporter,
		RoleSearcher, RoleLoser,
	}
}

// Valid reports whether r is an assigned tactical role. The empty role means
// none has been assigned yet.
func (r Role) Valid() bool {
	switch r {
	case RoleKeeper, RoleReplacementKeeper, RoleDefenderLeft, RoleDefenderRight,
		RoleMidfielderLeft, RoleMidfielderRight, RoleStriker, RoleStrikerSupporter,
		RoleSearcher, RoleLoser:
		return true
	}
	return false
}

// Side is a side of the field as seen from the own goal looking at the
// opponent goal.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Team distinguishes the own team from the opponent in game controller data.
type Team string

const (
	TeamOwn       Team = "own"
	TeamOpponent  Team = "opponent"
	TeamUncertain Team = "uncertain"
)

// GameState is the game controller's coarse game state.
type GameState string

const (
	GameInitial  GameState = "initial"
	GameReady    GameState = "ready"
	GameSet      GameState = "set"
	GamePlaying  GameState = "playing"
	GameFinished GameState = "finished"
)

// PhaseKind is the game controller's game phase.
type PhaseKind string

const (
	PhaseNormal          PhaseKind = "normal"
	PhasePenaltyShootout PhaseKind = "penalty_shootout"
	PhaseOvertime        PhaseKind = "overtime"
	PhaseTimeout         PhaseKind = "timeout"
)

// GamePhase carries the phase plus the kicking team during a penalty shootout.
type GamePhase struct {
	Kind        PhaseKind `json:"kind"`
	KickingTeam Team      `json:"kickingTeam,omitempty"`
}

// SubState is the set-play sub state. The empty value means no set play.
type SubState string

const (
	SubStateNone            SubState = ""
	SubStateGoalKick        SubState = "goal_kick"
	SubStatePushingFreeKick SubState = "pushing_free_kick"
	SubStateCornerKick      SubState = "corner_kick"
	SubStateKickIn          SubState = "kick_in"
	SubStatePenaltyKick     SubState = "penalty_kick"
)

// GameControllerState is the authoritative referee state as last decoded.
type GameControllerState struct {
	GameState           GameState `json:"gameState"`
	GamePhase           GamePhase `json:"gamePhase"`
	KickingTeam         Team      `json:"kickingTeam"`
	SubState            SubState  `json:"subState,omitempty"`
	LastGameStateChange time.Time `json:"lastGameStateChange"`
}

// FilteredGameState is the game state after whistle and visual filtering.
// KickingTeam is meaningful in Ready, BallIsFree in Playing.
type FilteredGameState struct {
	State       GameState `json:"state"`
	KickingTeam Team      `json:"kickingTeam,omitempty"`
	BallIsFree  bool      `json:"ballIsFree,omitempty"`
}

// FilteredWhistle is the debounced whistle detector output.
type FilteredWhistle struct {
	IsDetected       bool       `json:"isDetected"`
	StartedThisCycle bool       `json:"startedThisCycle"`
	LastDetection    *time.Time `json:"lastDetection,omitempty"`
}

// FallKind describes the robot's balance.
type FallKind string

const (
	FallUpright FallKind = "upright"
	FallFalling FallKind = "falling"
	FallFallen  FallKind = "fallen"
)

// FallDirection is where a falling robot is heading.
type FallDirection string

const (
	FallForward  FallDirection = "forward"
	FallBackward FallDirection = "backward"
	FallLeft     FallDirection = "left"
	FallRight    FallDirection = "right"
)

// Facing is how a fallen robot is lying.
type Facing string

const (
	FacingDown Facing = "down"
	FacingUp   Facing = "up"
)

// FallState is Upright, Falling{Direction} or Fallen{Facing}.
type FallState struct {
	Kind      FallKind      `json:"kind"`
	Direction FallDirection `json:"direction,omitempty"`
	Facing    Facing        `json:"facing,omitempty"`
}

type RobotState struct {
	PrimaryState     PrimaryState `json:"primaryState"`
	Role             Role         `json:"role"`
	RobotToField     *Pose        `json:"robotToField,omitempty"`
	FallState        FallState    `json:"fallState"`
	HasGroundContact bool         `json:"hasGroundContact"`
}

// BallState is the fused ball estimate. Position is robot-relative,
// InField is in field coordinates.
type BallState struct {
	Position  Point         `json:"position"`
	InField   Point         `json:"inField"`
	FieldSide Side          `json:"fieldSide"`
	Age       time.Duration `json:"age"`
}

// Obstacle is a robot-relative circular obstacle.
type Obstacle struct {
	Position Point   `json:"position"`
	Radius   float64 `json:"radius"`
}

type WorldState struct {
	Robot               RobotState           `json:"robot"`
	Ball                *BallState           `json:"ball,omitempty"`
	Obstacles           []Obstacle           `json:"obstacles,omitempty"`
	FilteredGameState   *FilteredGameState   `json:"filteredGameState,omitempty"`
	GameControllerState *GameControllerState `json:"gameControllerState,omitempty"`
}

// CycleTime is the monotonic start time of the current control cycle.
type CycleTime struct {
	StartTime         time.Time     `json:"startTime"`
	LastCycleDuration time.Duration `json:"lastCycleDuration"`
}

// Snapshot is everything the decision core reads in one cycle. It is
// produced by the perception pipeline and treated as read-only.
type Snapshot struct {
	World      WorldState      `json:"world"`
	Whistle    FilteredWhistle `json:"whistle"`
	HandSignal *uint8          `json:"handSignal,omitempty"`
	CycleTime  CycleTime       `json:"cycleTime"`
	Messages   []TimedMessages `json:"messages,omitempty"`
}

// Now is the cycle start time.
func (s *Snapshot) Now() time.Time { return s.CycleTime.StartTime }

// LatestGameControllerMessage returns the newest game controller message
// received since the last cycle.
func (s *Snapshot) LatestGameControllerMessage() (*GameControllerMessage, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		msgs := s.Messages[i].Messages
		for j := len(msgs) - 1; j >= 0; j-- {
			if msgs[j].GameController != nil {
				return msgs[j].GameController, true
			}
		}
	}
	return nil, false
}
