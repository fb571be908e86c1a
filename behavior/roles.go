package behavior

import "github.com/nstehr/pitch/pitch-core/model"

// safetyActions are always evaluated first, in this order.
var safetyActions = []Action{
	ActionUnstiff,
	ActionSitDown,
	ActionPenalize,
	ActionInitial,
	ActionFallSafely,
	ActionStandUp,
	ActionStand,
	ActionCalibrate,
}

// candidateActions builds this cycle's ordered candidate list.
func candidateActions(world *model.WorldState, detectRefSignal, lookAround bool) []Action {
	actions := make([]Action, 0, len(safetyActions)+4)
	actions = append(actions, safetyActions...)
	if detectRefSignal {
		actions = append(actions, ActionDetectRefSignal)
	}
	if lookAround {
		actions = append(actions, ActionLookAround)
	}
	return append(actions, roleActions(world)...)
}

// roleActions maps the tactical role to its tactic actions. The mapping is
// total over model.Roles; an unassigned or unknown role gets no tactic and
// evalStand holds position for it.
func roleActions(world *model.WorldState) []Action {
	switch world.Robot.Role {
	case model.RoleDefenderLeft:
		return []Action{ActionDefendLeft}
	case model.RoleDefenderRight:
		return []Action{ActionDefendRight}
	case model.RoleKeeper:
		if gc := world.GameControllerState; gc != nil && gc.GamePhase.Kind == model.PhasePenaltyShootout {
			return []Action{ActionJump, ActionPrepareJump}
		}
		return []Action{ActionDefendGoal}
	case model.RoleLoser:
		return []Action{ActionSearchForLostBall}
	case model.RoleMidfielderLeft:
		return []Action{ActionSupportLeft}
	case model.RoleMidfielderRight:
		return []Action{ActionSupportRight}
	case model.RoleReplacementKeeper:
		return []Action{ActionDefendGoal}
	case model.RoleSearcher:
		return []Action{ActionSearch}
	case model.RoleStriker:
		return []Action{strikerAction(world)}
	case model.RoleStrikerSupporter:
		return []Action{ActionSupportStriker}
	}
	return nil
}

// strikerAction picks the striker's tactic from the filtered game state,
// consulting the game controller for penalty kicks.
func strikerAction(world *model.WorldState) Action {
	fgs := world.FilteredGameState
	gc := world.GameControllerState
	penaltyKick := gc != nil && gc.SubState == model.SubStatePenaltyKick

	switch {
	case fgs == nil, fgs.State == model.GamePlaying && fgs.BallIsFree:
		return ActionDribble
	case fgs.State == model.GameReady && fgs.KickingTeam == model.TeamOwn:
		if penaltyKick {
			return ActionWalkToPenaltyKick
		}
		return ActionWalkToKickOff
	case gc != nil && gc.GameState == model.GameReady && penaltyKick && gc.KickingTeam == model.TeamOpponent:
		return ActionDefendPenaltyKick
	default:
		return ActionDefendKickOff
	}
}
