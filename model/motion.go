package model

// MotionKind tags the variant held by a MotionCommand.
type MotionKind string

const (
	MotionUnstiff        MotionKind = "unstiff"
	MotionPenalized      MotionKind = "penalized"
	MotionSitDown        MotionKind = "sit_down"
	MotionFallProtection MotionKind = "fall_protection"
	MotionStandUp        MotionKind = "stand_up"
	MotionStand          MotionKind = "stand"
	MotionWalk           MotionKind = "walk"
	MotionInWalkKick     MotionKind = "in_walk_kick"
	MotionJump           MotionKind = "jump"
	MotionPrepareJump    MotionKind = "prepare_jump"
)

// Valid reports whether k names a known motion.
func (k MotionKind) Valid() bool {
	switch k {
	case MotionUnstiff, MotionPenalized, MotionSitDown, MotionFallProtection, MotionStandUp,
		MotionStand, MotionWalk, MotionInWalkKick, MotionJump, MotionPrepareJump:
		return true
	}
	return false
}

// HeadKind selects what the head does while the body executes a motion.
type HeadKind string

const (
	HeadCenter            HeadKind = "center"
	HeadLookAt            HeadKind = "look_at"
	HeadLookAround        HeadKind = "look_around"
	HeadSearchForLostBall HeadKind = "search_for_lost_ball"
)

// HeadMotion is a head command. Target is robot-relative and only set for
// HeadLookAt.
type HeadMotion struct {
	Kind   HeadKind `json:"kind" yaml:"kind"`
	Target *Point   `json:"target,omitempty" yaml:"target,omitempty"`
}

func LookAt(target Point) HeadMotion { return HeadMotion{Kind: HeadLookAt, Target: &target} }
func LookAround() HeadMotion         { return HeadMotion{Kind: HeadLookAround} }
func HeadForward() HeadMotion        { return HeadMotion{Kind: HeadCenter} }

// OrientationMode controls whether a walk turns along the path or keeps
// facing the target orientation.
type OrientationMode string

const (
	OrientationAlignWithPath OrientationMode = "align_with_path"
	OrientationOverride      OrientationMode = "override"
)

type KickVariant string

const (
	KickForward KickVariant = "forward"
	KickTurn    KickVariant = "turn"
	KickSide    KickVariant = "side"
)

type JumpDirection string

const (
	JumpLeft   JumpDirection = "left"
	JumpCenter JumpDirection = "center"
	JumpRight  JumpDirection = "right"
)

// MotionCommand is the single per-cycle output of the behavior layer.
// Only the fields belonging to Kind are meaningful; use the constructors.
type MotionCommand struct {
	Kind           MotionKind      `json:"kind" yaml:"kind"`
	Head           *HeadMotion     `json:"head,omitempty" yaml:"head,omitempty"`
	IsEnergySaving bool            `json:"isEnergySaving,omitempty" yaml:"is_energy_saving,omitempty"`
	FallDirection  FallDirection   `json:"fallDirection,omitempty" yaml:"fall_direction,omitempty"`
	Facing         Facing          `json:"facing,omitempty" yaml:"facing,omitempty"`
	Target         *Pose           `json:"target,omitempty" yaml:"target,omitempty"`
	Path           []Point         `json:"path,omitempty" yaml:"path,omitempty"`
	Orientation    OrientationMode `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Kick           KickVariant     `json:"kick,omitempty" yaml:"kick,omitempty"`
	KickingSide    Side            `json:"kickingSide,omitempty" yaml:"kicking_side,omitempty"`
	JumpDirection  JumpDirection   `json:"jumpDirection,omitempty" yaml:"jump_direction,omitempty"`
}

func UnstiffCommand() MotionCommand   { return MotionCommand{Kind: MotionUnstiff} }
func PenalizedCommand() MotionCommand { return MotionCommand{Kind: MotionPenalized} }
func SitDownCommand() MotionCommand   { return MotionCommand{Kind: MotionSitDown} }
func PrepareJumpCommand() MotionCommand {
	return MotionCommand{Kind: MotionPrepareJump}
}

func FallProtectionCommand(d FallDirection) MotionCommand {
	return MotionCommand{Kind: MotionFallProtection, FallDirection: d}
}

func StandUpCommand(f Facing) MotionCommand {
	return MotionCommand{Kind: MotionStandUp, Facing: f}
}

func StandCommand(head HeadMotion, energySaving bool) MotionCommand {
	return MotionCommand{Kind: MotionStand, Head: &head, IsEnergySaving: energySaving}
}

// WalkCommand walks along path to target, both robot-relative.
func WalkCommand(head HeadMotion, target Pose, path []Point, mode OrientationMode) MotionCommand {
	return MotionCommand{Kind: MotionWalk, Head: &head, Target: &target, Path: path, Orientation: mode}
}

func InWalkKickCommand(head HeadMotion, kick KickVariant, side Side) MotionCommand {
	return MotionCommand{Kind: MotionInWalkKick, Head: &head, Kick: kick, KickingSide: side}
}

func JumpCommand(d JumpDirection) MotionCommand {
	return MotionCommand{Kind: MotionJump, JumpDirection: d}
}

// IsStand reports whether the command keeps the robot standing in place.
func (m MotionCommand) IsStand() bool { return m.Kind == MotionStand }
