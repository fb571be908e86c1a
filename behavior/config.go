package behavior

import (
	"errors"
	"fmt"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid behavior config")

// Config holds the behavior parameters. Distances are meters, angles radians.
type Config struct {
	InitialLookAroundDuration time.Duration `json:"initialLookAroundDuration" yaml:"initial_look_around_duration"`
	RefSignalWindow           time.Duration `json:"refSignalWindow" yaml:"ref_signal_window"`
	RefereeSide               model.Side    `json:"refereeSide" yaml:"referee_side"`

	// InjectedMotionCommand, when set, replaces scheduling entirely.
	InjectedMotionCommand *model.MotionCommand `json:"injectedMotionCommand,omitempty" yaml:"injected_motion_command,omitempty"`
	Injections            []InjectionRule      `json:"injections,omitempty" yaml:"injections,omitempty"`

	WalkAndStand WalkAndStandConfig `json:"walkAndStand" yaml:"walk_and_stand"`
	Positions    PositionsConfig    `json:"positions" yaml:"positions"`
	Support      SupportConfig      `json:"support" yaml:"support"`
	Dribble      DribbleConfig      `json:"dribble" yaml:"dribble"`
	Jump         JumpConfig         `json:"jump" yaml:"jump"`
	Search       SearchConfig       `json:"search" yaml:"search"`
}

// WalkAndStandConfig decides when a walking robot is close enough to stop.
// Hysteresis (meters) and AngleHysteresis (radians) widen the thresholds
// while already standing so the robot does not oscillate at the boundary.
type WalkAndStandConfig struct {
	TargetReachedThreshold float64 `json:"targetReachedThreshold" yaml:"target_reached_threshold"`
	AngleThreshold         float64 `json:"angleThreshold" yaml:"angle_threshold"`
	Hysteresis             float64 `json:"hysteresis" yaml:"hysteresis"`
	AngleHysteresis        float64 `json:"angleHysteresis" yaml:"angle_hysteresis"`
	ObstacleCorridor       float64 `json:"obstacleCorridor" yaml:"obstacle_corridor"`
}

type PositionsConfig struct {
	KeeperDistanceToGoal   float64 `json:"keeperDistanceToGoal" yaml:"keeper_distance_to_goal"`
	DefenderDistanceToGoal float64 `json:"defenderDistanceToGoal" yaml:"defender_distance_to_goal"`
	DefenderLateralOffset  float64 `json:"defenderLateralOffset" yaml:"defender_lateral_offset"`
	KickOffMargin          float64 `json:"kickOffMargin" yaml:"kick_off_margin"`
	KickApproach           float64 `json:"kickApproach" yaml:"kick_approach"`
}

type SupportConfig struct {
	DistanceToBall          float64 `json:"distanceToBall" yaml:"distance_to_ball"`
	MinimumX                float64 `json:"minimumX" yaml:"minimum_x"`
	MaximumXWhenBallNotFree float64 `json:"maximumXWhenBallNotFree" yaml:"maximum_x_when_ball_not_free"`
	StrikerSupportDistance  float64 `json:"strikerSupportDistance" yaml:"striker_support_distance"`
}

type DribbleConfig struct {
	KickDistance       float64 `json:"kickDistance" yaml:"kick_distance"`
	KickAngleThreshold float64 `json:"kickAngleThreshold" yaml:"kick_angle_threshold"`
}

type JumpConfig struct {
	BallDistance    float64 `json:"ballDistance" yaml:"ball_distance"`
	CenterHalfWidth float64 `json:"centerHalfWidth" yaml:"center_half_width"`
}

// SearchConfig lists field positions a searcher cycles through.
type SearchConfig struct {
	Positions     []model.Point `json:"positions" yaml:"positions"`
	DwellDuration time.Duration `json:"dwellDuration" yaml:"dwell_duration"`
}

// DefaultConfig returns the competition defaults.
func DefaultConfig() Config {
	return Config{
		InitialLookAroundDuration: 5 * time.Second,
		RefSignalWindow:           15 * time.Second,
		RefereeSide:               model.SideLeft,
		WalkAndStand: WalkAndStandConfig{
			TargetReachedThreshold: 0.1,
			AngleThreshold:         0.2,
			Hysteresis:             0.15,
			AngleHysteresis:        0.1,
			ObstacleCorridor:       0.3,
		},
		Positions: PositionsConfig{
			KeeperDistanceToGoal:   0.4,
			DefenderDistanceToGoal: 1.8,
			DefenderLateralOffset:  1.0,
			KickOffMargin:          0.2,
			KickApproach:           0.3,
		},
		Support: SupportConfig{
			DistanceToBall:          1.5,
			MinimumX:                -3.0,
			MaximumXWhenBallNotFree: -0.5,
			StrikerSupportDistance:  1.0,
		},
		Dribble: DribbleConfig{
			KickDistance:       0.25,
			KickAngleThreshold: 0.3,
		},
		Jump: JumpConfig{
			BallDistance:    0.6,
			CenterHalfWidth: 0.15,
		},
		Search: SearchConfig{
			Positions: []model.Point{
				{X: -1.5, Y: 1.5}, {X: 1.5, Y: 1.5}, {X: 1.5, Y: -1.5}, {X: -1.5, Y: -1.5},
			},
			DwellDuration: 6 * time.Second,
		},
	}
}

// Validate clamps numeric parameters to sane ranges and rejects values that
// cannot be repaired.
func (c *Config) Validate() error {
	if c.InitialLookAroundDuration < 0 {
		c.InitialLookAroundDuration = 0
	}
	if c.RefSignalWindow <= 0 {
		return fmt.Errorf("%w: ref_signal_window must be positive, got %s", ErrInvalidConfig, c.RefSignalWindow)
	}
	switch c.RefereeSide {
	case "":
		c.RefereeSide = model.SideLeft
	case model.SideLeft, model.SideRight:
	default:
		return fmt.Errorf("%w: unknown referee_side %q", ErrInvalidConfig, c.RefereeSide)
	}
	if c.InjectedMotionCommand != nil && !c.InjectedMotionCommand.Kind.Valid() {
		return fmt.Errorf("%w: injected motion command has unknown kind %q", ErrInvalidConfig, c.InjectedMotionCommand.Kind)
	}
	for i, r := range c.Injections {
		if r.Name == "" {
			return fmt.Errorf("%w: injection %d has no name", ErrInvalidConfig, i)
		}
		if r.When == "" {
			return fmt.Errorf("%w: injection %q has no condition", ErrInvalidConfig, r.Name)
		}
		if !r.Command.Kind.Valid() {
			return fmt.Errorf("%w: injection %q has unknown command kind %q", ErrInvalidConfig, r.Name, r.Command.Kind)
		}
	}

	w := &c.WalkAndStand
	w.TargetReachedThreshold = clamp(w.TargetReachedThreshold, 0.01, 1)
	w.AngleThreshold = clamp(w.AngleThreshold, 0.01, 1)
	w.Hysteresis = clamp(w.Hysteresis, 0, 1)
	w.AngleHysteresis = clamp(w.AngleHysteresis, 0, 1)
	w.ObstacleCorridor = clamp(w.ObstacleCorridor, 0, 2)

	p := &c.Positions
	p.KeeperDistanceToGoal = clamp(p.KeeperDistanceToGoal, 0, 1.5)
	p.DefenderDistanceToGoal = clamp(p.DefenderDistanceToGoal, 0.5, 4)
	p.DefenderLateralOffset = clamp(p.DefenderLateralOffset, 0, 3)
	p.KickOffMargin = clamp(p.KickOffMargin, 0, 1)
	p.KickApproach = clamp(p.KickApproach, 0.1, 1)

	s := &c.Support
	s.DistanceToBall = clamp(s.DistanceToBall, 0.3, 4)
	s.StrikerSupportDistance = clamp(s.StrikerSupportDistance, 0.3, 4)

	c.Dribble.KickDistance = clamp(c.Dribble.KickDistance, 0.1, 1)
	c.Dribble.KickAngleThreshold = clamp(c.Dribble.KickAngleThreshold, 0.05, 1)
	c.Jump.BallDistance = clamp(c.Jump.BallDistance, 0.1, 2)
	c.Jump.CenterHalfWidth = clamp(c.Jump.CenterHalfWidth, 0, 0.5)

	if c.Search.DwellDuration <= 0 {
		c.Search.DwellDuration = time.Second
	}
	return nil
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
