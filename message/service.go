package message

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/ssecast/logger"
	"github.com/kbukum/ssecast/observability"
	"github.com/kbukum/ssecast/util"
)

// Hub is the local fan-out target. *sse.Hub satisfies it.
type Hub interface {
	Publish(data []byte) int
	ClientCount() int
}

// Publisher forwards a message to every instance. *relay.Relay satisfies it.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// Result describes what Send did with a message.
type Result struct {
	// Ignored is set for blank or whitespace-only text.
	Ignored bool
	// Delivered is the local fan-out count, or -1 when the message went
	// through the relay.
	Delivered int
}

// Service publishes messages.
type Service struct {
	hub       Hub
	publisher Publisher
	metrics   *observability.BroadcastMetrics
	log       *logger.Logger
}

// NewService creates a Service. publisher and metrics may be nil; without a
// publisher messages go straight to hub.
func NewService(hub Hub, publisher Publisher, metrics *observability.BroadcastMetrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Service{
		hub:       hub,
		publisher: publisher,
		metrics:   metrics,
		log:       log.WithComponent("message"),
	}
}

// Send broadcasts text to every open stream. Blank text is dropped without
// error. Only a relay failure produces an error; dead subscribers never do.
func (s *Service) Send(ctx context.Context, text string) (Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanMessageSend)
	span.SetAttributes(attribute.Int(observability.AttrMessageSize, len(text)))

	log := s.log.WithContext(ctx)

	if util.IsBlank(text) {
		span.SetAttributes(attribute.Bool(observability.AttrIgnored, true))
		observability.EndSpan(span, nil)
		s.metrics.RecordIgnored(ctx)
		log.Debug("Blank message ignored")
		return Result{Ignored: true}, nil
	}

	data := []byte(text)
	start := time.Now()

	if s.publisher != nil {
		span.SetAttributes(attribute.String(observability.AttrRoute, observability.RouteRelay))
		if err := s.publisher.Publish(ctx, data); err != nil {
			observability.EndSpan(span, err)
			s.metrics.RecordFailed(ctx, observability.RouteRelay)
			log.Error("Relay publish failed", logger.MergeWithError(logger.Fields(logger.FieldSize, len(data)), err))
			return Result{}, err
		}
		observability.EndSpan(span, nil)
		s.metrics.RecordPublished(ctx, observability.RouteRelay, len(data), -1, time.Since(start))
		log.Debug("Message relayed", logger.Fields(logger.FieldSize, len(data)))
		return Result{Delivered: -1}, nil
	}

	delivered := s.hub.Publish(data)
	span.SetAttributes(
		attribute.String(observability.AttrRoute, observability.RouteLocal),
		attribute.Int(observability.AttrDelivered, delivered),
	)
	observability.EndSpan(span, nil)
	s.metrics.RecordPublished(ctx, observability.RouteLocal, len(data), delivered, time.Since(start))
	log.Debug("Message published", logger.Fields(logger.FieldSize, len(data), logger.FieldSubscribers, delivered))
	return Result{Delivered: delivered}, nil
}

// Subscribers returns the number of open streams on this instance.
func (s *Service) Subscribers() int {
	return s.hub.ClientCount()
}
