package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Route values for published messages.
const (
	RouteLocal = "local"
	RouteRelay = "relay"
)

// BroadcastMetrics holds the message and subscriber instruments. A nil
// *BroadcastMetrics records nothing.
type BroadcastMetrics struct {
	published   metric.Int64Counter
	delivered   metric.Int64Counter
	ignored     metric.Int64Counter
	failed      metric.Int64Counter
	evicted     metric.Int64Counter
	subscribers metric.Int64UpDownCounter
	duration    metric.Float64Histogram
	size        metric.Int64Histogram
}

// NewBroadcastMetrics creates the instruments on meter.
func NewBroadcastMetrics(meter metric.Meter) (*BroadcastMetrics, error) {
	var (
		m   BroadcastMetrics
		err error
	)

	if m.published, err = meter.Int64Counter("ssecast.messages.published",
		metric.WithDescription("Messages accepted for broadcast"),
	); err != nil {
		return nil, fmt.Errorf("creating messages.published counter: %w", err)
	}
	if m.delivered, err = meter.Int64Counter("ssecast.messages.delivered",
		metric.WithDescription("Message copies queued to subscriber streams"),
	); err != nil {
		return nil, fmt.Errorf("creating messages.delivered counter: %w", err)
	}
	if m.ignored, err = meter.Int64Counter("ssecast.messages.ignored",
		metric.WithDescription("Blank messages dropped without broadcast"),
	); err != nil {
		return nil, fmt.Errorf("creating messages.ignored counter: %w", err)
	}
	if m.failed, err = meter.Int64Counter("ssecast.messages.failed",
		metric.WithDescription("Messages that could not be published"),
	); err != nil {
		return nil, fmt.Errorf("creating messages.failed counter: %w", err)
	}
	if m.evicted, err = meter.Int64Counter("ssecast.subscribers.evicted",
		metric.WithDescription("Streams dropped because their buffer was full"),
	); err != nil {
		return nil, fmt.Errorf("creating subscribers.evicted counter: %w", err)
	}
	if m.subscribers, err = meter.Int64UpDownCounter("ssecast.subscribers.active",
		metric.WithDescription("Currently open subscriber streams"),
	); err != nil {
		return nil, fmt.Errorf("creating subscribers.active gauge: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("ssecast.publish.duration",
		metric.WithDescription("Time to publish a message"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating publish.duration histogram: %w", err)
	}
	if m.size, err = meter.Int64Histogram("ssecast.messages.size",
		metric.WithDescription("Published message size"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating messages.size histogram: %w", err)
	}

	return &m, nil
}

// RecordPublished records a message published through route. delivered is
// the local fan-out count, or -1 when unknown (relay).
func (m *BroadcastMetrics) RecordPublished(ctx context.Context, route string, size, delivered int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("route", route))
	m.published.Add(ctx, 1, attrs)
	m.size.Record(ctx, int64(size), attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
	if delivered >= 0 {
		m.delivered.Add(ctx, int64(delivered))
	}
}

// RecordDelivered records copies fanned out for a relayed message.
func (m *BroadcastMetrics) RecordDelivered(ctx context.Context, delivered int) {
	if m == nil {
		return
	}
	m.delivered.Add(ctx, int64(delivered))
}

// RecordIgnored records a blank message.
func (m *BroadcastMetrics) RecordIgnored(ctx context.Context) {
	if m == nil {
		return
	}
	m.ignored.Add(ctx, 1)
}

// RecordFailed records a publish failure on route.
func (m *BroadcastMetrics) RecordFailed(ctx context.Context, route string) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// ClientAdded tracks a newly opened stream.
func (m *BroadcastMetrics) ClientAdded() {
	if m == nil {
		return
	}
	m.subscribers.Add(context.Background(), 1)
}

// ClientRemoved tracks a closed stream.
func (m *BroadcastMetrics) ClientRemoved(evicted bool) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.subscribers.Add(ctx, -1)
	if evicted {
		m.evicted.Add(ctx, 1)
	}
}
