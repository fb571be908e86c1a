package agent

import (
	"fmt"
	"time"

	"github.com/nstehr/pitch/pitch-core/model"
)

// EventKind identifies a game event worth logging when it happens.
type EventKind string

const (
	EventPrimaryStateChanged EventKind = "primary_state_changed"
	EventRoleChanged         EventKind = "role_changed"
	EventWhistle             EventKind = "whistle"
	EventGoalScored          EventKind = "goal_scored"
	EventGoalConceded        EventKind = "goal_conceded"
	EventFell                EventKind = "fell"
	EventBallLost            EventKind = "ball_lost"
	EventBallFound           EventKind = "ball_found"
)

// Event is a change detected by diffing consecutive snapshots.
type Event struct {
	Kind   EventKind
	At     time.Time
	Detail string
}

// stateSnapshot captures the diffable fields of one cycle. Scores are
// carried forward when a cycle has no game controller message.
type stateSnapshot struct {
	primary       model.PrimaryState
	role          model.Role
	fallen        bool
	hasBall       bool
	hasScore      bool
	ownScore      uint8
	opponentScore uint8
}

func takeSnapshot(snap *model.Snapshot, prev *stateSnapshot) stateSnapshot {
	robot := snap.World.Robot
	s := stateSnapshot{
		primary: robot.PrimaryState,
		role:    robot.Role,
		fallen:  robot.FallState.Kind != model.FallUpright && robot.FallState.Kind != "",
		hasBall: snap.World.Ball != nil,
	}
	if gc, ok := snap.LatestGameControllerMessage(); ok {
		s.hasScore = true
		s.ownScore = gc.OwnTeam.Score
		s.opponentScore = gc.OpponentTeam.Score
	} else if prev != nil {
		s.hasScore = prev.hasScore
		s.ownScore = prev.ownScore
		s.opponentScore = prev.opponentScore
	}
	return s
}

// detectEvents compares cur against prev. The first cycle of a session
// has no prev and produces no events.
func detectEvents(now time.Time, snap *model.Snapshot, cur stateSnapshot, prev *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}
	var events []Event
	add := func(kind EventKind, format string, args ...any) {
		events = append(events, Event{Kind: kind, At: now, Detail: fmt.Sprintf(format, args...)})
	}

	if cur.primary != prev.primary {
		add(EventPrimaryStateChanged, "%s -> %s", prev.primary, cur.primary)
	}
	if cur.role != prev.role {
		add(EventRoleChanged, "%s -> %s", prev.role, cur.role)
	}
	if snap.Whistle.StartedThisCycle {
		add(EventWhistle, "whistle in %s", cur.primary)
	}
	if cur.hasScore && prev.hasScore {
		if cur.ownScore > prev.ownScore {
			add(EventGoalScored, "score %d:%d", cur.ownScore, cur.opponentScore)
		}
		if cur.opponentScore > prev.opponentScore {
			add(EventGoalConceded, "score %d:%d", cur.ownScore, cur.opponentScore)
		}
	}
	if cur.fallen && !prev.fallen {
		add(EventFell, "fall state %s", snap.World.Robot.FallState.Kind)
	}
	switch {
	case prev.hasBall && !cur.hasBall:
		add(EventBallLost, "ball no longer seen")
	case !prev.hasBall && cur.hasBall:
		add(EventBallFound, "ball at %.2f,%.2f", snap.World.Ball.InField.X, snap.World.Ball.InField.Y)
	}
	return events
}

// eventTracker remembers the previous cycle so events can be derived.
type eventTracker struct {
	prev *stateSnapshot
}

func (t *eventTracker) observe(snap *model.Snapshot) []Event {
	cur := takeSnapshot(snap, t.prev)
	events := detectEvents(snap.Now(), snap, cur, t.prev)
	t.prev = &cur
	return events
}
