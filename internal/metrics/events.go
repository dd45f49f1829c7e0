package metrics

import (
	"context"
	"errors"

	"github.com/gitcards/git-cards/internal/bus"
)

// EventSubscriber subscribes to scan lifecycle events and updates
// metrics from them, keeping the scanner decoupled from the metrics
// instance.
type EventSubscriber struct {
	metrics *Metrics
	bus     bus.Bus
}

// NewEventSubscriber creates a new event subscriber.
func NewEventSubscriber(metrics *Metrics, eventBus bus.Bus) *EventSubscriber {
	return &EventSubscriber{
		metrics: metrics,
		bus:     eventBus,
	}
}

// SubscribeToEvents subscribes to all scan topics.
func (es *EventSubscriber) SubscribeToEvents(ctx context.Context) error {
	if err := es.bus.Subscribe(ctx, bus.TopicScanStarted, es.handleScanStarted); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicScanCompleted, es.handleScanCompleted); err != nil {
		return err
	}
	return es.bus.Subscribe(ctx, bus.TopicScanFailed, es.handleScanFailed)
}

// Event handlers

func (es *EventSubscriber) handleScanStarted(ctx context.Context, event bus.Event) error {
	es.metrics.ScanRequests.Inc()
	return nil
}

func (es *EventSubscriber) handleScanCompleted(ctx context.Context, event bus.Event) error {
	es.metrics.ScanLatency.Observe(float64(event.DurationMs))
	es.metrics.ReposScanned.Add(int64(event.RepoCount))
	es.metrics.FilesScanned.Add(int64(event.FileCount))
	es.metrics.Identifiers.Observe(float64(event.IdentifierCount))

	if es.metrics.TimeSeries != nil {
		es.metrics.TimeSeries.RecordScan(float64(event.DurationMs), event.FileCount)
	}
	return nil
}

func (es *EventSubscriber) handleScanFailed(ctx context.Context, event bus.Event) error {
	es.metrics.ScanErrors.WithLabels(errorType(errors.New(event.Error))).Inc()
	return nil
}
