// Package telemetry records what the decision core does: OpenTelemetry
// counters for live monitoring and an optional SQLite decision log.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nstehr/pitch/pitch-core/behavior"
	"github.com/nstehr/pitch/pitch-core/radio"
	"github.com/nstehr/pitch/pitch-core/referee"
)

const meterName = "github.com/nstehr/pitch/pitch-core"

// Metrics holds the instruments the agent reports through.
type Metrics struct {
	cycles        metric.Int64Counter
	actions       metric.Int64Counter
	fatal         metric.Int64Counter
	episodes      metric.Int64Counter
	reports       metric.Int64Counter
	radioSends    metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on provider, or on the global provider
// when provider is nil.
func NewMetrics(provider metric.MeterProvider, version string) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName, metric.WithInstrumentationVersion(version))

	var (
		m   Metrics
		err error
	)
	counter := func(dst *metric.Int64Counter, name, desc, unit string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	}
	counter(&m.cycles, "pitch.cycles", "Control cycles processed", "{cycle}")
	counter(&m.actions, "pitch.actions", "Winning actions by name", "{decision}")
	counter(&m.fatal, "pitch.scheduler.fatal", "Cycles where no action applied", "{cycle}")
	counter(&m.episodes, "pitch.referee.episodes", "Referee signal episodes opened and expired", "{episode}")
	counter(&m.reports, "pitch.referee.reports", "Referee report attempts by result", "{report}")
	counter(&m.radioSends, "pitch.radio.sends", "Radio deliveries by result", "{packet}")
	if err != nil {
		return nil, fmt.Errorf("create counters: %w", err)
	}

	m.cycleDuration, err = meter.Float64Histogram(
		"pitch.cycle.duration",
		metric.WithDescription("Time spent deciding one cycle"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}
	return &m, nil
}

// RecordDecision counts one scheduler cycle and its winning action.
func (m *Metrics) RecordDecision(ctx context.Context, d behavior.Decision, err error, elapsed time.Duration) {
	m.cycles.Add(ctx, 1)
	m.cycleDuration.Record(ctx, float64(elapsed.Microseconds())/1000)
	if err != nil {
		m.fatal.Add(ctx, 1)
		return
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", d.Label()),
		attribute.String("motion", string(d.Command.Kind)),
	))
}

// RecordReport counts episode transitions and report attempts.
func (m *Metrics) RecordReport(ctx context.Context, out referee.Outcome) {
	if out.Opened {
		m.episodes.Add(ctx, 1, metric.WithAttributes(attribute.String("event", "opened")))
	}
	if out.Expired {
		m.episodes.Add(ctx, 1, metric.WithAttributes(attribute.String("event", "expired")))
	}
	if !out.Attempted {
		return
	}
	result := "failed"
	switch {
	case out.Sent:
		result = "sent"
	case out.GaveUp:
		result = "gave_up"
	}
	m.reports.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordRadioSend counts one radio delivery attempt.
func (m *Metrics) RecordRadioSend(ctx context.Context, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, radio.ErrNoGameController):
		result = "no_game_controller"
	case errors.Is(err, radio.ErrCircuitOpen):
		result = "circuit_open"
	case errors.Is(err, radio.ErrRateLimited):
		result = "rate_limited"
	default:
		result = "error"
	}
	m.radioSends.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
