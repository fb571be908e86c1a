package behavior

import (
	"math"

	"github.com/nstehr/pitch/pitch-core/model"
)

// evalDribble approaches the ball from behind, lined up with the opponent
// goal, and kicks once close and aligned. Without a ball sighting it heads
// for the last known ball position.
func evalDribble(env *Env) (model.MotionCommand, bool) {
	pose, ok := env.Pose()
	if !ok {
		return model.MotionCommand{}, false
	}
	ball := env.BallInField()
	goal := env.Field.OpponentGoalCenter()
	cfg := env.Config.Dribble

	if b := env.World.Ball; b != nil {
		kickHeading := model.HeadingTowards(ball, goal)
		headingError := math.Abs(model.NormalizeAngle(kickHeading - pose.Theta))
		if b.Position.Norm() < cfg.KickDistance && headingError < cfg.KickAngleThreshold {
			side := model.SideLeft
			if b.Position.Y < 0 {
				side = model.SideRight
			}
			return model.InWalkKickCommand(model.LookAt(b.Position), model.KickForward, side), true
		}
	}

	behind := ball.Sub(goal)
	n := behind.Norm()
	if n == 0 {
		behind, n = model.Point{X: -1}, 1
	}
	approach := ball.Add(behind.Scale(cfg.KickDistance * 0.8 / n))
	return env.walkAndStand(model.PoseLookingAt(approach, goal), env.LookAction())
}

// evalWalkToKickOff lines up behind the center spot for the own kick-off.
func evalWalkToKickOff(env *Env) (model.MotionCommand, bool) {
	target := model.Pose{X: -env.Config.Positions.KickApproach}
	return env.walkAndStand(target, env.LookAction())
}

// evalWalkToPenaltyKick lines up behind the opponent penalty marker.
func evalWalkToPenaltyKick(env *Env) (model.MotionCommand, bool) {
	marker := env.Field.OpponentPenaltyMarker()
	target := model.Pose{X: marker.X - env.Config.Positions.KickApproach, Y: marker.Y}
	return env.walkAndStand(target, env.LookAction())
}
