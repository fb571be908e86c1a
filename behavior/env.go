package behavior

import (
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

// Env is what an evaluator sees: the cycle's snapshot plus the scheduler
// state it is allowed to read. Evaluators append to PathObstacles.
type Env struct {
	Snapshot          *model.Snapshot
	World             *model.WorldState
	Config            *Config
	Field             model.FieldDimensions
	Now               time.Time
	LastMotionCommand model.MotionCommand
	LastKnownBall     model.Point
	PathObstacles     []model.Obstacle
}

func (e *Env) PrimaryState() model.PrimaryState { return e.World.Robot.PrimaryState }

// Pose returns robot_to_field if localization is available.
func (e *Env) Pose() (model.Pose, bool) {
	if e.World.Robot.RobotToField == nil {
		return model.Pose{}, false
	}
	return *e.World.Robot.RobotToField, true
}

// BallInField is the current ball estimate in field coordinates, falling
// back to the last position the ball was seen at.
func (e *Env) BallInField() model.Point {
	if e.World.Ball != nil {
		return e.World.Ball.InField
	}
	return e.LastKnownBall
}

// ToRobot maps a field point into robot coordinates.
func (e *Env) ToRobot(pt model.Point) (model.Point, bool) {
	pose, ok := e.Pose()
	if !ok {
		return model.Point{}, false
	}
	return pose.Inverse().Apply(pt), true
}

// LookAction tracks the ball when it is seen and scans otherwise.
func (e *Env) LookAction() model.HeadMotion {
	if e.World.Ball != nil {
		return model.LookAt(e.World.Ball.Position)
	}
	return model.LookAround()
}

func (e *Env) filteredState() (model.FilteredGameState, bool) {
	if e.World.FilteredGameState == nil {
		return model.FilteredGameState{}, false
	}
	return *e.World.FilteredGameState, true
}
