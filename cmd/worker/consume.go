package main

import (
	"context"
	"time"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/core/ports"
	"github.com/kirillkom/unit-converter/internal/observability/metrics"
)

type eventAppender interface {
	Append(event domain.ConversionEvent) error
}

// consume appends every received conversion event to the worker log until
// ctx is done.
func consume(ctx context.Context, events ports.ConversionEventSubscriber, sink eventAppender, m *metrics.WorkerMetrics) error {
	return events.SubscribeConversions(ctx, func(_ context.Context, event domain.ConversionEvent) error {
		err := sink.Append(event)
		lag := time.Duration(-1)
		if !event.Time.IsZero() {
			lag = time.Since(event.Time)
		}
		m.ObserveEvent(service, string(event.Level), lag, err)
		return err
	})
}
