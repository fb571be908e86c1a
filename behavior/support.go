package behavior

import (
	"math"

	"github.com/nstehr/pitch/pitch-core/model"
)

func evalSupportLeft(env *Env) (model.MotionCommand, bool) {
	side := model.SideLeft
	return env.support(&side, env.Config.Support.DistanceToBall)
}

func evalSupportRight(env *Env) (model.MotionCommand, bool) {
	side := model.SideRight
	return env.support(&side, env.Config.Support.DistanceToBall)
}

func evalSupportStriker(env *Env) (model.MotionCommand, bool) {
	return env.support(nil, env.Config.Support.StrikerSupportDistance)
}

// support walks to a spot diagonally behind the ball on the given side, or
// on the side opposite to the ball's field half when side is nil.
func (e *Env) support(side *model.Side, distanceToBall float64) (model.MotionCommand, bool) {
	if _, ok := e.Pose(); !ok {
		return model.MotionCommand{}, false
	}
	ball := e.BallInField()
	supportSide := model.SideLeft
	switch {
	case side != nil:
		supportSide = *side
	case e.World.Ball != nil:
		supportSide = e.World.Ball.FieldSide.Opposite()
	case ball.Y >= 0:
		supportSide = model.SideRight
	}

	angle := -math.Pi / 4
	if supportSide == model.SideRight {
		angle = math.Pi / 4
	}
	offset := model.Point{X: -distanceToBall}.Rotate(angle)
	position := ball.Add(offset)

	cfg := e.Config.Support
	if e.ballNotFree() {
		position.X = model.Clamp(position.X, cfg.MinimumX, cfg.MaximumXWhenBallNotFree)
	} else {
		position.X = model.Clamp(position.X, cfg.MinimumX, e.Field.Length/2)
	}
	return e.walkAndStand(model.PoseLookingAt(position, ball), e.LookAction())
}

// ballNotFree is true in Ready and in Playing before the ball is released.
func (e *Env) ballNotFree() bool {
	fgs, ok := e.filteredState()
	if !ok {
		return false
	}
	return fgs.State == model.GameReady || (fgs.State == model.GamePlaying && !fgs.BallIsFree)
}
