package behavior

import (
	"log/slog"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

type scoreCache struct {
	own      uint8
	opponent uint8
}

// refSignalWindow tracks the period after a whistle or a goal during which
// the robot turns to the referee to read a hand signal.
type refSignalWindow struct {
	activeSince *time.Time
	scores      scoreCache
}

// update advances the window by one cycle and reports whether
// DetectRefSignal belongs in this cycle's candidates. gc is the newest game
// controller message of the cycle, nil if none arrived. Scores are cached
// whenever a message is present so a score change opens the window once.
func (w *refSignalWindow) update(now time.Time, whistle model.FilteredWhistle, gc *model.GameControllerMessage, window time.Duration) bool {
	scoreChanged := gc != nil &&
		(gc.OwnTeam.Score != w.scores.own || gc.OpponentTeam.Score != w.scores.opponent)
	if gc != nil {
		w.scores = scoreCache{own: gc.OwnTeam.Score, opponent: gc.OpponentTeam.Score}
	}

	if w.activeSince == nil {
		if !whistle.StartedThisCycle && !scoreChanged {
			return false
		}
		since := now
		w.activeSince = &since
		slog.Info("referee signal window opened", "whistle", whistle.StartedThisCycle, "scoreChanged", scoreChanged)
		return true
	}

	elapsed := now.Sub(*w.activeSince)
	switch {
	case elapsed < 0:
		slog.Warn("cycle time precedes referee signal window start, skipping expiry check", "elapsed", elapsed)
		return true
	case elapsed > window:
		w.activeSince = nil
		slog.Info("referee signal window closed", "elapsed", elapsed)
		return false
	default:
		return true
	}
}
