package behavior

import "fmt"

// Action names a candidate behavior. The set is closed: every Action has
// exactly one evaluator in the evaluators table.
type Action int

const (
	ActionUnstiff Action = iota
	ActionSitDown
	ActionPenalize
	ActionInitial
	ActionFallSafely
	ActionStandUp
	ActionStand
	ActionCalibrate
	ActionDetectRefSignal
	ActionLookAround
	ActionDefendGoal
	ActionDefendKickOff
	ActionDefendLeft
	ActionDefendRight
	ActionDefendPenaltyKick
	ActionDribble
	ActionJump
	ActionPrepareJump
	ActionSearch
	ActionSearchForLostBall
	ActionSupportLeft
	ActionSupportRight
	ActionSupportStriker
	ActionWalkToKickOff
	ActionWalkToPenaltyKick

	numActions
)

var actionNames = [numActions]string{
	ActionUnstiff:           "unstiff",
	ActionSitDown:           "sit_down",
	ActionPenalize:          "penalize",
	ActionInitial:           "initial",
	ActionFallSafely:        "fall_safely",
	ActionStandUp:           "stand_up",
	ActionStand:             "stand",
	ActionCalibrate:         "calibrate",
	ActionDetectRefSignal:   "detect_ref_signal",
	ActionLookAround:        "look_around",
	ActionDefendGoal:        "defend_goal",
	ActionDefendKickOff:     "defend_kick_off",
	ActionDefendLeft:        "defend_left",
	ActionDefendRight:       "defend_right",
	ActionDefendPenaltyKick: "defend_penalty_kick",
	ActionDribble:           "dribble",
	ActionJump:              "jump",
	ActionPrepareJump:       "prepare_jump",
	ActionSearch:            "search",
	ActionSearchForLostBall: "search_for_lost_ball",
	ActionSupportLeft:       "support_left",
	ActionSupportRight:      "support_right",
	ActionSupportStriker:    "support_striker",
	ActionWalkToKickOff:     "walk_to_kick_off",
	ActionWalkToPenaltyKick: "walk_to_penalty_kick",
}

// Actions returns the whole catalog in declaration order.
func Actions() []Action {
	out := make([]Action, numActions)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

func (a Action) Valid() bool { return a >= 0 && a < numActions }

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction resolves the snake_case name produced by String.
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
