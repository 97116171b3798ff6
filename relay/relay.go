package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/ssecast/component"
	"github.com/kbukum/ssecast/logger"
	"github.com/kbukum/ssecast/observability"
	"github.com/kbukum/ssecast/redis"
	"github.com/kbukum/ssecast/resilience"
	"github.com/kbukum/ssecast/sse"
)

// ErrNotRunning is returned by Publish before Start or after Stop.
var ErrNotRunning = errors.New("relay: not running")

// ClientSource yields the Redis client once it is started. *redis.Component
// satisfies it.
type ClientSource interface {
	Client() *redis.Client
}

// Relay publishes messages to Redis and delivers received ones to the local
// hub. It is a component and must be registered after the Redis component.
type Relay struct {
	cfg     Config
	source  ClientSource
	hub     sse.Broadcaster
	metrics *observability.BroadcastMetrics
	log     *logger.Logger
	breaker *resilience.Breaker

	mu       sync.Mutex
	client   *redis.Client
	pubsub   *goredis.PubSub
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	received atomic.Int64
}

var (
	_ component.Component   = (*Relay)(nil)
	_ component.Describable = (*Relay)(nil)
)

// New creates a relay. metrics may be nil.
func New(cfg Config, source ClientSource, hub sse.Broadcaster, metrics *observability.BroadcastMetrics, log *logger.Logger) *Relay {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	r := &Relay{
		cfg:     cfg,
		source:  source,
		hub:     hub,
		metrics: metrics,
		log:     log.WithComponent("relay"),
	}
	r.breaker = resilience.NewBreaker(cfg.Breaker, func(from, to resilience.State) {
		r.log.Warn("Relay publish breaker changed state", logger.Fields("from", from.String(), "to", to.String()))
	})
	return r
}

// Name returns the component name.
func (r *Relay) Name() string { return "relay" }

// Start subscribes to the channel and launches the delivery loop. The
// subscription is confirmed before Start returns.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil
	}
	client := r.source.Client()
	if client == nil {
		return fmt.Errorf("relay start: redis client not started")
	}

	ps, err := client.Subscribe(ctx, r.cfg.Channel)
	if err != nil {
		return fmt.Errorf("relay start: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	r.client, r.pubsub, r.cancel = client, ps, cancel

	msgs := ps.Channel(goredis.WithChannelSize(r.cfg.BufferSize))
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.deliver(loopCtx, msgs)
	}()

	r.log.Info("Relay subscribed", logger.Fields("channel", r.cfg.Channel))
	return nil
}

func (r *Relay) deliver(ctx context.Context, msgs <-chan *goredis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				r.log.Debug("Relay subscription closed")
				return
			}
			r.received.Add(1)

			_, span := observability.StartSpan(ctx, observability.SpanRelayDelivery)
			delivered := r.hub.Publish([]byte(msg.Payload))
			span.SetAttributes(
				attribute.Int(observability.AttrMessageSize, len(msg.Payload)),
				attribute.Int(observability.AttrDelivered, delivered),
			)
			span.End()

			r.metrics.RecordDelivered(ctx, delivered)
			r.log.Debug("Relayed message delivered", logger.Fields(
				"delivered", delivered,
				logger.FieldSize, len(msg.Payload),
			))
		}
	}
}

// Publish sends data to every instance subscribed to the channel, giving up
// after PublishTimeout with an error wrapping context.DeadlineExceeded.
// After repeated Redis failures it fails fast with resilience.ErrOpen until
// the breaker cooldown passes. A caller that cancels ctx does not count
// against the breaker.
func (r *Relay) Publish(ctx context.Context, data []byte) error {
	r.mu.Lock()
	client := r.client
	r.mu.Unlock()
	if client == nil {
		return ErrNotRunning
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanRelayPublish)
	span.SetAttributes(attribute.Int(observability.AttrMessageSize, len(data)))

	var receivers int64
	err := r.breaker.DoContext(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
		defer cancel()

		var perr error
		receivers, perr = client.Publish(ctx, r.cfg.Channel, data)
		if perr != nil && ctx.Err() != nil {
			// Deadline hits surface from the socket as i/o timeouts.
			return fmt.Errorf("relay publish: %w: %w", ctx.Err(), perr)
		}
		return perr
	})
	observability.EndSpan(span, err)
	if err != nil {
		return err
	}

	r.log.Debug("Message relayed", logger.Fields("receivers", receivers, logger.FieldSize, len(data)))
	return nil
}

// Stop ends the subscription and waits for the delivery loop to exit.
func (r *Relay) Stop(_ context.Context) error {
	r.mu.Lock()
	cancel, ps := r.cancel, r.pubsub
	r.cancel, r.pubsub, r.client = nil, nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := ps.Close()
	r.wg.Wait()
	r.log.Info("Relay stopped", logger.Fields("received", r.received.Load()))
	if err != nil {
		return fmt.Errorf("relay stop: %w", err)
	}
	return nil
}

// Health pings Redis through the relay's client.
func (r *Relay) Health(ctx context.Context) component.Health {
	r.mu.Lock()
	client := r.client
	r.mu.Unlock()

	if client == nil {
		return component.Health{Name: r.Name(), Status: component.StatusUnhealthy, Message: "not subscribed"}
	}
	if err := client.Ping(ctx); err != nil {
		return component.Health{Name: r.Name(), Status: component.StatusDegraded, Message: err.Error()}
	}
	if state := r.breaker.State(); state != resilience.StateClosed {
		return component.Health{Name: r.Name(), Status: component.StatusDegraded, Message: "publish breaker " + state.String()}
	}
	return component.Health{
		Name:    r.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("channel %s, %d received", r.cfg.Channel, r.received.Load()),
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (r *Relay) Describe() component.Description {
	return component.Description{
		Name:    "Redis Relay",
		Type:    "relay",
		Details: fmt.Sprintf("channel=%s buffer=%d", r.cfg.Channel, r.cfg.BufferSize),
	}
}
