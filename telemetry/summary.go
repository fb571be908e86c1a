package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Summary owns an in-process meter provider whose counters are collected
// on demand and written to the log. A robot has no metrics backend on the
// field, so totals end up in the match log.
type Summary struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

func NewSummary() *Summary {
	reader := sdkmetric.NewManualReader()
	return &Summary{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Provider is the meter provider to pass to NewMetrics.
func (s *Summary) Provider() metric.MeterProvider { return s.provider }

// Totals returns every integer counter total keyed by instrument name.
func (s *Summary) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals, nil
}

// Run logs the totals every interval until ctx is cancelled, then logs
// them once more.
func (s *Summary) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log(context.Background())
			return
		case <-ticker.C:
			s.log(ctx)
		}
	}
}

func (s *Summary) log(ctx context.Context) {
	totals, err := s.Totals(ctx)
	if err != nil {
		slog.Warn("metrics summary failed", "error", err)
		return
	}
	attrs := make([]any, 0, 2*len(totals))
	for name, v := range totals {
		attrs = append(attrs, name, v)
	}
	slog.Info("metrics summary", attrs...)
}

func (s *Summary) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}
