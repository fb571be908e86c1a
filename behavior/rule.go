package behavior

import "github.com/nstehr/pitch/pitch-core/model"

// evaluator returns the command for its action, or false when the action is
// not applicable this cycle. Evaluators never fail: missing inputs simply
// make them inapplicable.
type evaluator func(env *Env) (model.MotionCommand, bool)

// evaluators is indexed by Action. A test asserts every slot is filled.
var evaluators = [numActions]evaluator{
	ActionUnstiff:           evalUnstiff,
	ActionSitDown:           evalSitDown,
	ActionPenalize:          evalPenalize,
	ActionInitial:           evalInitial,
	ActionFallSafely:        evalFallSafely,
	ActionStandUp:           evalStandUp,
	ActionStand:             evalStand,
	ActionCalibrate:         evalCalibrate,
	ActionDetectRefSignal:   evalDetectRefSignal,
	ActionLookAround:        evalLookAround,
	ActionDefendGoal:        evalDefendGoal,
	ActionDefendKickOff:     evalDefendKickOff,
	ActionDefendLeft:        evalDefendLeft,
	ActionDefendRight:       evalDefendRight,
	ActionDefendPenaltyKick: evalDefendPenaltyKick,
	ActionDribble:           evalDribble,
	ActionJump:              evalJump,
	ActionPrepareJump:       evalPrepareJump,
	ActionSearch:            evalSearch,
	ActionSearchForLostBall: evalSearchForLostBall,
	ActionSupportLeft:       evalSupportLeft,
	ActionSupportRight:      evalSupportRight,
	ActionSupportStriker:    evalSupportStriker,
	ActionWalkToKickOff:     evalWalkToKickOff,
	ActionWalkToPenaltyKick: evalWalkToPenaltyKick,
}

// evaluate runs the evaluator registered for a.
func evaluate(a Action, env *Env) (model.MotionCommand, bool) {
	if !a.Valid() || evaluators[a] == nil {
		return model.MotionCommand{}, false
	}
	return evaluators[a](env)
}
