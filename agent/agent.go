package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nstehr/pitch/pitch-core/behavior"
	"github.com/nstehr/pitch/pitch-core/config"
	"github.com/nstehr/pitch/pitch-core/ipc"
	"github.com/nstehr/pitch/pitch-core/model"
	"github.com/nstehr/pitch/pitch-core/referee"
	"github.com/nstehr/pitch/pitch-core/telemetry"
)

// MessageObserver learns from the radio messages received this cycle.
// radio.Sender uses it to find the game controller.
type MessageObserver interface {
	ObserveMessages(history []model.TimedMessages)
}

// Options are the optional collaborators of an Agent. A nil Sink drops
// referee reports.
type Options struct {
	Sink     referee.NetworkWriter
	Metrics  *telemetry.Metrics
	Recorder *telemetry.Recorder
	// Source labels recorder runs, e.g. "ipc" or a scenario name.
	Source   string
	Reporter []referee.Option
}

// Agent owns the decision making for a single robot session: one
// scheduler and one reporter fed from the same snapshots. Apply may run on
// another goroutine than the connection handlers.
type Agent struct {
	Conn      *ipc.Connection
	Player    model.PlayerNumber
	Team      uint8
	SessionID string

	scheduler *behavior.Scheduler
	reporter  *referee.Reporter
	sink      referee.NetworkWriter
	metrics   *telemetry.Metrics
	recorder  *telemetry.Recorder
	source    string
	runID     string
	events    eventTracker
}

func New(conn *ipc.Connection, cfg config.Config, opts Options) (*Agent, error) {
	scheduler, err := behavior.NewScheduler(cfg.Behavior, cfg.Field)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	reporter, err := referee.NewReporter(cfg.Referee, cfg.PlayerNumber, opts.Reporter...)
	if err != nil {
		return nil, fmt.Errorf("create reporter: %w", err)
	}
	reporter.SetTeamNumber(cfg.Radio.TeamNumber)
	sink := opts.Sink
	if sink == nil {
		sink = discardWriter{}
	}
	source := opts.Source
	if source == "" {
		source = "ipc"
	}
	return &Agent{
		Conn:      conn,
		Player:    cfg.PlayerNumber,
		Team:      cfg.Radio.TeamNumber,
		SessionID: uuid.NewString(),
		scheduler: scheduler,
		reporter:  reporter,
		sink:      sink,
		metrics:   opts.Metrics,
		recorder:  opts.Recorder,
		source:    source,
	}, nil
}

// Scheduler exposes the session's scheduler for inspection.
func (a *Agent) Scheduler() *behavior.Scheduler { return a.scheduler }

// Reporter exposes the session's reporter for inspection.
func (a *Agent) Reporter() *referee.Reporter { return a.reporter }

// RunID is the recorder run of this session, empty when nothing is recorded.
func (a *Agent) RunID() string { return a.runID }

// Apply hands a reloaded configuration to both components. Field
// dimensions and the player number are fixed for the session.
func (a *Agent) Apply(cfg config.Config) error {
	var errs []error
	if err := a.scheduler.Swap(cfg.Behavior); err != nil {
		errs = append(errs, fmt.Errorf("behavior: %w", err))
	}
	if err := a.reporter.SetConfig(cfg.Referee); err != nil {
		errs = append(errs, fmt.Errorf("referee: %w", err))
	}
	return errors.Join(errs...)
}

// Start opens a recorder run for the session. Without a recorder it is a
// no-op.
func (a *Agent) Start() error {
	if a.recorder == nil || a.runID != "" {
		return nil
	}
	id, err := a.recorder.StartRun(a.source, a.Player)
	if err != nil {
		return err
	}
	a.runID = id
	return nil
}

// HandleHello completes the handshake so the framework knows the decision
// core is ready.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}
	if err := hello.PlayerNumber.Validate(); err != nil {
		return nil, fmt.Errorf("hello: %w", err)
	}

	if hello.Field != nil {
		if err := a.scheduler.SetField(*hello.Field); err != nil {
			return nil, fmt.Errorf("hello field: %w", err)
		}
	}

	a.Player = hello.PlayerNumber
	a.reporter.SetPlayerNumber(hello.PlayerNumber)
	if hello.TeamNumber != 0 {
		if a.Team != 0 && a.Team != hello.TeamNumber {
			slog.Warn("team number differs from radio config", "hello", hello.TeamNumber, "config", a.Team)
		}
		a.Team = hello.TeamNumber
		a.reporter.SetTeamNumber(hello.TeamNumber)
	}
	if a.Conn != nil {
		a.Conn.Player = fmt.Sprintf("player-%d", a.Player)
	}
	if err := a.Start(); err != nil {
		slog.Warn("failed to start recorder run", "error", err)
	}
	slog.Info("player identified", "player", a.Player, "team", a.Team, "session", a.SessionID)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", SessionID: a.SessionID})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleWorldSnapshot runs one control cycle and replies with the motion
// command.
func (a *Agent) HandleWorldSnapshot(env ipc.Envelope) (*ipc.Envelope, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal world snapshot: %w", err)
	}
	msg, err := a.Step(context.Background(), &snap)
	if err != nil {
		return nil, err
	}
	reply, err := ipc.NewEnvelope(ipc.TypeMotionCommand, msg)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// Step runs the scheduler and the reporter over one snapshot. A scheduler
// failure is fatal for the session; a report send failure is logged and
// the cycle carries on.
func (a *Agent) Step(ctx context.Context, snap *model.Snapshot) (ipc.MotionCommandMessage, error) {
	start := time.Now()

	if obs, ok := a.sink.(MessageObserver); ok {
		obs.ObserveMessages(snap.Messages)
	}
	for _, ev := range a.events.observe(snap) {
		slog.Info("game event", "kind", ev.Kind, "detail", ev.Detail, "player", a.Player)
	}

	decision, err := a.scheduler.Cycle(snap)
	if a.metrics != nil {
		a.metrics.RecordDecision(ctx, decision, err, time.Since(start))
	}
	if err != nil {
		slog.Error("scheduler found no applicable action", "player", a.Player, "error", err)
		return ipc.MotionCommandMessage{}, fmt.Errorf("%w: %w", ipc.ErrFatal, err)
	}

	out, sendErr := a.reporter.Cycle(snap, a.sink)
	if sendErr != nil {
		slog.Warn("referee report not delivered", "episode", out.EpisodeID, "error", sendErr)
	}
	if a.metrics != nil {
		a.metrics.RecordReport(ctx, out)
	}

	if a.recorder != nil && a.runID != "" {
		if err := a.recorder.RecordDecision(a.runID, snap, decision); err != nil {
			slog.Warn("failed to record decision", "error", err)
		}
		if err := a.recorder.RecordReport(a.runID, snap.Now(), out, sendErr); err != nil {
			slog.Warn("failed to record report", "error", err)
		}
	}

	msg := ipc.MotionCommandMessage{
		Command:       decision.Command,
		Injected:      decision.Injected,
		Injection:     decision.Injection,
		PathObstacles: decision.PathObstacles,
		Reported:      out.Sent,
	}
	if !decision.Injected {
		msg.Action = decision.Action.String()
	}
	return msg, nil
}

type discardWriter struct{}

func (discardWriter) WriteToNetwork(model.OutgoingMessage) error {
	slog.Debug("no radio configured, dropping outgoing message")
	return nil
}
