package referee

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/nstehr/pitch/pitch-core/model"
)

// ErrSendFailed wraps a network write error for a referee report.
var ErrSendFailed = errors.New("referee report send failed")

// NetworkWriter hands an outgoing message to the radio. Implementations
// must not block the cycle.
type NetworkWriter interface {
	WriteToNetwork(msg model.OutgoingMessage) error
}

// Outcome describes what one reporter cycle did.
type Outcome struct {
	State     statekit.StateID
	EpisodeID string
	Opened    bool
	Expired   bool
	Attempted bool
	Sent      bool
	GaveUp    bool
	Report    *model.GameControllerReturnMessage
}

// Reporter sends at most one hand-signal report to the game controller per
// whistle episode. Cycle must be called from a single goroutine;
// SetConfig, SetPlayerNumber and SetTeamNumber may be called concurrently.
type Reporter struct {
	mu         sync.RWMutex
	cfg        Config
	classifier HandSignalClassifier
	fixed      bool
	id         identity

	interp *statekit.Interpreter[*episode]
	ep     *episode
}

type Option func(*Reporter)

// WithClassifier pins the classifier so configuration changes do not
// replace it.
func WithClassifier(c HandSignalClassifier) Option {
	return func(r *Reporter) {
		r.classifier = c
		r.fixed = true
	}
}

func NewReporter(cfg Config, player model.PlayerNumber, opts ...Option) (*Reporter, error) {
	machine, err := newReporterMachine()
	if err != nil {
		return nil, fmt.Errorf("build reporter machine: %w", err)
	}
	r := &Reporter{id: identity{player: player}, ep: &episode{}}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.SetConfig(cfg); err != nil {
		return nil, err
	}

	r.interp = statekit.NewInterpreter(machine)
	r.interp.UpdateContext(func(c **episode) {
		*c = r.ep
	})
	r.interp.Start()
	return r, nil
}

// SetConfig validates and installs cfg. The current episode keeps running
// under the new settings.
func (r *Reporter) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.fixed && (r.classifier == nil || cfg.Classifier != r.cfg.Classifier || cfg.Seed != r.cfg.Seed) {
		c, err := NewClassifier(cfg.Classifier, cfg.Seed)
		if err != nil {
			return err
		}
		r.classifier = c
	}
	r.cfg = cfg
	return nil
}

// identity is who a report is sent as.
type identity struct {
	player model.PlayerNumber
	team   uint8
}

func (r *Reporter) SetPlayerNumber(n model.PlayerNumber) {
	r.mu.Lock()
	r.id.player = n
	r.mu.Unlock()
}

// SetTeamNumber stamps reports with team. Zero leaves the team to the radio.
func (r *Reporter) SetTeamNumber(team uint8) {
	r.mu.Lock()
	r.id.team = team
	r.mu.Unlock()
}

func (r *Reporter) settings() (Config, HandSignalClassifier, identity) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg, r.classifier, r.id
}

// State returns the current machine state.
func (r *Reporter) State() statekit.StateID {
	return r.interp.State().Value
}

// Cycle advances the episode by one control cycle: expiry first, then
// whistle detection, then the transmit decision. A send failure is
// returned wrapped in ErrSendFailed after the state has advanced; callers
// log it and carry on.
func (r *Reporter) Cycle(snap *model.Snapshot, sink NetworkWriter) (Outcome, error) {
	cfg, classifier, id := r.settings()
	now := snap.Now()
	var out Outcome

	if !r.interp.Matches(StateIdle) {
		age := now.Sub(r.ep.StartedAt)
		switch {
		case age < 0:
			slog.Warn("cycle time precedes episode start, skipping expiry check", "episode", r.ep.ID, "age", age)
		case age > cfg.ReportingWindow:
			out.Expired = true
			out.EpisodeID = r.ep.ID
			r.interp.Send(statekit.Event{Type: eventExpire, Payload: expirePayload{at: now}})
		}
	}

	if r.interp.Matches(StateIdle) && snap.Whistle.StartedThisCycle {
		r.interp.Send(statekit.Event{Type: eventWhistle, Payload: whistlePayload{at: now}})
		out.Opened = true
	}

	var err error
	if r.interp.Matches(StateWindowOpen) {
		err = r.transmit(snap, sink, cfg, classifier, id, &out)
	}

	out.State = r.State()
	if out.State != StateIdle {
		out.EpisodeID = r.ep.ID
	}
	return out, err
}

func (r *Reporter) transmit(snap *model.Snapshot, sink NetworkWriter, cfg Config, classifier HandSignalClassifier, id identity, out *Outcome) error {
	now := snap.Now()
	ep := r.ep
	age := now.Sub(ep.StartedAt)
	if age < cfg.TransmitDelay || now.Before(ep.NextAttemptAt) {
		return nil
	}

	report := buildReport(snap, classifier, id, age)
	ep.Attempts++
	out.Attempted = true
	out.Report = &report

	err := sink.WriteToNetwork(model.OutgoingMessage{GameControllerReturn: &report})
	if err == nil {
		r.interp.Send(statekit.Event{Type: eventTransmit, Payload: transmitPayload{at: now}})
		out.Sent = true
		slog.Info("referee signal reported",
			"episode", ep.ID,
			"handSignal", report.HandSignal,
			"elapsed", age,
			"attempt", ep.Attempts,
		)
		return nil
	}

	if ep.Attempts >= cfg.MaxAttempts {
		r.interp.Send(statekit.Event{Type: eventTransmit, Payload: transmitPayload{at: now, gaveUp: true}})
		out.GaveUp = true
	} else {
		ep.NextAttemptAt = now.Add(cfg.RetryInterval)
	}
	return fmt.Errorf("%w: episode %s attempt %d/%d: %w", ErrSendFailed, ep.ID, ep.Attempts, cfg.MaxAttempts, err)
}

// buildReport assembles the game controller return message. Without
// localization the identity pose is sent.
func buildReport(snap *model.Snapshot, classifier HandSignalClassifier, id identity, elapsed time.Duration) model.GameControllerReturnMessage {
	msg := model.GameControllerReturnMessage{
		PlayerNumber:        id.player,
		TeamNumber:          id.team,
		HandSignal:          classifier.Classify(snap),
		RobotToField:        model.Identity(),
		ElapsedSinceWhistle: elapsed,
	}
	if pose := snap.World.Robot.RobotToField; pose != nil {
		msg.RobotToField = *pose
	}
	if b := snap.World.Ball; b != nil {
		msg.Ball = &model.BallPosition{RelativePosition: b.Position, Age: b.Age}
	}
	return msg
}
