package behavior

import "github.com/nstehr/pitch/pitch-core/model"

// Safety and game-state evaluators. These sit at the top of every candidate
// list and only depend on the primary state and fall state.

func evalUnstiff(env *Env) (model.MotionCommand, bool) {
	if env.PrimaryState() != model.PrimaryUnstiff {
		return model.MotionCommand{}, false
	}
	return model.UnstiffCommand(), true
}

func evalSitDown(env *Env) (model.MotionCommand, bool) {
	if env.PrimaryState() != model.PrimaryFinished {
		return model.MotionCommand{}, false
	}
	return model.SitDownCommand(), true
}

func evalPenalize(env *Env) (model.MotionCommand, bool) {
	if env.PrimaryState() != model.PrimaryPenalized {
		return model.MotionCommand{}, false
	}
	return model.PenalizedCommand(), true
}

// evalInitial stands energy-saving while looking at the center spot so the
// robot is visibly ready and localization gets a view of the center circle.
func evalInitial(env *Env) (model.MotionCommand, bool) {
	if env.PrimaryState() != model.PrimaryInitial {
		return model.MotionCommand{}, false
	}
	head := model.HeadForward()
	if center, ok := env.ToRobot(model.Point{}); ok {
		head = model.LookAt(center)
	}
	return model.StandCommand(head, true), true
}

func evalFallSafely(env *Env) (model.MotionCommand, bool) {
	robot := env.World.Robot
	if robot.FallState.Kind != model.FallFalling || !robot.HasGroundContact {
		return model.MotionCommand{}, false
	}
	return model.FallProtectionCommand(robot.FallState.Direction), true
}

func evalStandUp(env *Env) (model.MotionCommand, bool) {
	fall := env.World.Robot.FallState
	if fall.Kind != model.FallFallen {
		return model.MotionCommand{}, false
	}
	return model.StandUpCommand(fall.Facing), true
}

// evalStand holds position in Set. In Ready and Playing it only applies
// while localization is lost or no role is assigned, standing and scanning
// until both are back.
func evalStand(env *Env) (model.MotionCommand, bool) {
	switch env.PrimaryState() {
	case model.PrimarySet:
		return model.StandCommand(env.LookAction(), false), true
	case model.PrimaryReady, model.PrimaryPlaying:
		if _, ok := env.Pose(); ok && env.World.Robot.Role.Valid() {
			return model.MotionCommand{}, false
		}
		return model.StandCommand(model.LookAround(), false), true
	}
	return model.MotionCommand{}, false
}

// calibrationTarget is the robot-relative point looked at during camera
// calibration.
var calibrationTarget = model.Point{X: 1.0}

func evalCalibrate(env *Env) (model.MotionCommand, bool) {
	if env.PrimaryState() != model.PrimaryCalibration {
		return model.MotionCommand{}, false
	}
	return model.StandCommand(model.LookAt(calibrationTarget), false), true
}
