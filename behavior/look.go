package behavior

import "github.com/nstehr/pitch/pitch-core/model"

func evalLookAround(env *Env) (model.MotionCommand, bool) {
	if !env.PrimaryState().IsActive() {
		return model.MotionCommand{}, false
	}
	return model.StandCommand(model.LookAround(), false), true
}

// evalDetectRefSignal stands facing the referee, who gives hand signals
// from the halfway-line touchline on the configured side.
func evalDetectRefSignal(env *Env) (model.MotionCommand, bool) {
	switch env.PrimaryState() {
	case model.PrimarySet, model.PrimaryPlaying:
	default:
		return model.MotionCommand{}, false
	}
	referee, ok := env.ToRobot(env.Field.RefereePosition(env.Config.RefereeSide))
	if !ok {
		return model.MotionCommand{}, false
	}
	return model.StandCommand(model.LookAt(referee), false), true
}
