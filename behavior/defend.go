package behavior

import (
	"math"

	"github.com/nstehr/pitch/pitch-core/model"
)

// defendPose stands between the own goal and the ball: distance out from
// the goal center along the goal-ball line, shifted sideways by lateral,
// facing the ball.
func (e *Env) defendPose(distance, lateral float64) model.Pose {
	goal := e.Field.OwnGoalCenter()
	ball := e.BallInField()
	toBall := ball.Sub(goal)
	n := toBall.Norm()
	if n == 0 {
		toBall, n = model.Point{X: 1}, 1
	}
	position := goal.Add(toBall.Scale(distance / n)).Add(model.Point{Y: lateral})
	position = e.Field.ClampToField(position)
	return model.PoseLookingAt(position, ball)
}

func evalDefendGoal(env *Env) (model.MotionCommand, bool) {
	pose := env.defendPose(env.Config.Positions.KeeperDistanceToGoal, 0)
	// The keeper never leaves the goal mouth sideways.
	half := env.Field.GoalInnerWidth / 2
	pose.Y = model.Clamp(pose.Y, -half, half)
	return env.walkAndStand(pose, env.LookAction())
}

func evalDefendLeft(env *Env) (model.MotionCommand, bool) {
	p := env.Config.Positions
	return env.walkAndStand(env.defendPose(p.DefenderDistanceToGoal, p.DefenderLateralOffset), env.LookAction())
}

func evalDefendRight(env *Env) (model.MotionCommand, bool) {
	p := env.Config.Positions
	return env.walkAndStand(env.defendPose(p.DefenderDistanceToGoal, -p.DefenderLateralOffset), env.LookAction())
}

// evalDefendKickOff waits outside the center circle on the own half,
// between the ball and the own goal.
func evalDefendKickOff(env *Env) (model.MotionCommand, bool) {
	ball := env.BallInField()
	goal := env.Field.OwnGoalCenter()
	toGoal := goal.Sub(ball)
	n := toGoal.Norm()
	if n == 0 {
		toGoal, n = model.Point{X: -1}, 1
	}
	distance := env.Field.CenterCircleDiameter/2 + env.Config.Positions.KickOffMargin
	position := ball.Add(toGoal.Scale(distance / n))
	position.X = math.Min(position.X, -env.Config.Positions.KickOffMargin)
	return env.walkAndStand(model.PoseLookingAt(position, ball), env.LookAction())
}

// evalDefendPenaltyKick keeps field players outside the own penalty area
// while the opponent takes a penalty kick.
func evalDefendPenaltyKick(env *Env) (model.MotionCommand, bool) {
	pose, ok := env.Pose()
	if !ok {
		return model.MotionCommand{}, false
	}
	f := env.Field
	x := -f.Length/2 + f.PenaltyAreaLength + env.Config.Positions.KickOffMargin
	y := model.Clamp(pose.Y, -f.Width/2, f.Width/2)
	position := model.Point{X: x, Y: y}
	return env.walkAndStand(model.PoseLookingAt(position, f.OwnPenaltyMarker()), env.LookAction())
}
