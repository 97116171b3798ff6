package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/ssecast/component"
	"github.com/kbukum/ssecast/logger"
)

// Component owns the meter and tracer providers. When disabled it leaves
// the global no-op providers in place.
type Component struct {
	cfg Config
	svc ServiceInfo
	mp  *sdkmetric.MeterProvider
	tp  *sdktrace.TracerProvider
	log *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the observability component.
func NewComponent(cfg Config, svc ServiceInfo, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{cfg: cfg, svc: svc, log: log.WithComponent("observability")}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start installs the exporting providers.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("Telemetry export disabled")
		return nil
	}

	mp, err := InitMeter(ctx, c.cfg, c.svc)
	if err != nil {
		return fmt.Errorf("observability start: %w", err)
	}
	tp, err := InitTracer(ctx, c.cfg, c.svc)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return fmt.Errorf("observability start: %w", err)
	}
	c.mp, c.tp = mp, tp
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		c.tp = nil
	}
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
		c.mp = nil
	}
	return errors.Join(errs...)
}

// Health reports whether export is active.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "export disabled"
	case c.mp == nil:
		h.Status = component.StatusDegraded
		h.Message = "providers not started"
	default:
		h.Message = "exporting to " + c.cfg.Endpoint
	}
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("OTLP %s, interval %s, sample %.2f", c.cfg.Endpoint, c.cfg.Interval, c.cfg.SampleRate)
	}
	return component.Description{Name: "OpenTelemetry", Type: "observability", Details: details}
}
