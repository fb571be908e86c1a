package behavior

import (
	"math"

	"github.com/nstehr/pitch/pitch-core/model"
)

// evalJump dives once the ball is close in front during a penalty shootout.
func evalJump(env *Env) (model.MotionCommand, bool) {
	b := env.World.Ball
	if b == nil || env.PrimaryState() != model.PrimaryPlaying {
		return model.MotionCommand{}, false
	}
	cfg := env.Config.Jump
	if b.Position.X <= 0 || b.Position.X > cfg.BallDistance {
		return model.MotionCommand{}, false
	}
	switch {
	case math.Abs(b.Position.Y) <= cfg.CenterHalfWidth:
		return model.JumpCommand(model.JumpCenter), true
	case b.Position.Y > 0:
		return model.JumpCommand(model.JumpLeft), true
	default:
		return model.JumpCommand(model.JumpRight), true
	}
}

// evalPrepareJump walks onto the goal line in Ready and crouches otherwise.
func evalPrepareJump(env *Env) (model.MotionCommand, bool) {
	if env.PrimaryState() == model.PrimaryReady {
		goal := env.Field.OwnGoalCenter()
		return env.walkAndStand(model.Pose{X: goal.X + env.Field.LineWidth}, env.LookAction())
	}
	return model.PrepareJumpCommand(), true
}
