package referee

import (
	"log/slog"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"
)

// Reporter states.
const (
	StateIdle       statekit.StateID = "idle"
	StateWindowOpen statekit.StateID = "window_open"
	StateSent       statekit.StateID = "sent"
)

const (
	eventWhistle  statekit.EventType = "WHISTLE"
	eventTransmit statekit.EventType = "TRANSMIT"
	eventExpire   statekit.EventType = "EXPIRE"
)

// episode is the machine context: one whistle from detection until its
// reporting window runs out.
type episode struct {
	ID            string
	StartedAt     time.Time
	Attempts      int
	NextAttemptAt time.Time
	SentAt        *time.Time
	GaveUp        bool
}

type whistlePayload struct {
	at time.Time
}

type transmitPayload struct {
	at     time.Time
	gaveUp bool
}

type expirePayload struct {
	at time.Time
}

// newReporterMachine builds the idle -> window_open -> sent statechart.
// Both open states return to idle on EXPIRE.
func newReporterMachine() (*statekit.MachineConfig[*episode], error) {
	return statekit.NewMachine[*episode]("referee_reporter").
		WithInitial(StateIdle).
		WithContext(&episode{}).
		WithAction("logEntry", logEntry).
		WithAction("openEpisode", openEpisode).
		WithAction("markSent", markSent).
		WithAction("closeEpisode", closeEpisode).
		State(StateIdle).
			OnEntry("logEntry").
			On(eventWhistle).Target(StateWindowOpen).Do("openEpisode").
			Done().
		State(StateWindowOpen).
			OnEntry("logEntry").
			On(eventTransmit).Target(StateSent).Do("markSent").
			On(eventExpire).Target(StateIdle).Do("closeEpisode").
			Done().
		State(StateSent).
			OnEntry("logEntry").
			On(eventExpire).Target(StateIdle).Do("closeEpisode").
			Done().
		Build()
}

func logEntry(ctx **episode, event statekit.Event) {
	if ctx == nil || *ctx == nil || event.Type == "" {
		return
	}
	slog.Debug("reporter transition", "event", event.Type, "episode", (*ctx).ID)
}

func openEpisode(ctx **episode, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	p, _ := event.Payload.(whistlePayload)
	**ctx = episode{
		ID:            uuid.New().String(),
		StartedAt:     p.at,
		NextAttemptAt: p.at,
	}
	slog.Info("referee signal episode opened", "episode", (*ctx).ID)
}

func markSent(ctx **episode, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	p, _ := event.Payload.(transmitPayload)
	at := p.at
	(*ctx).SentAt = &at
	(*ctx).GaveUp = p.gaveUp
}

func closeEpisode(ctx **episode, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	p, _ := event.Payload.(expirePayload)
	slog.Info("referee signal episode expired",
		"episode", c.ID,
		"age", p.at.Sub(c.StartedAt),
		"sent", c.SentAt != nil && !c.GaveUp,
		"attempts", c.Attempts,
	)
	*c = episode{}
}
