package behavior

import "github.com/nstehr/pitch/pitch-core/model"

// evalSearch patrols the configured search positions, moving on to the
// next one every dwell period.
func evalSearch(env *Env) (model.MotionCommand, bool) {
	if _, ok := env.Pose(); !ok {
		return model.MotionCommand{}, false
	}
	cfg := env.Config.Search
	target := model.Pose{}
	if n := int64(len(cfg.Positions)); n > 0 && cfg.DwellDuration > 0 {
		slot := env.Now.UnixNano() / int64(cfg.DwellDuration) % n
		if slot < 0 {
			slot += n
		}
		target = model.PoseLookingAt(cfg.Positions[slot], model.Point{})
	}
	return env.walkAndStand(target, model.LookAround())
}

// evalSearchForLostBall returns to where the ball was last seen, arriving
// with the heading it walked in on.
func evalSearchForLostBall(env *Env) (model.MotionCommand, bool) {
	pose, ok := env.Pose()
	if !ok {
		return model.MotionCommand{}, false
	}
	ball := env.LastKnownBall
	target := model.Pose{X: ball.X, Y: ball.Y, Theta: model.HeadingTowards(pose.Translation(), ball)}
	return env.walkAndStand(target, model.HeadMotion{Kind: model.HeadSearchForLostBall})
}
