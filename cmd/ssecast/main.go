// Command ssecast serves the broadcast endpoints: subscribers hold an event
// stream open on /api/sse and every message POSTed to /api/message is
// pushed to all of them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/ssecast/bootstrap"
	"github.com/kbukum/ssecast/config"
	"github.com/kbukum/ssecast/logger"
	"github.com/kbukum/ssecast/message"
	"github.com/kbukum/ssecast/observability"
	"github.com/kbukum/ssecast/redis"
	"github.com/kbukum/ssecast/relay"
	"github.com/kbukum/ssecast/server"
	"github.com/kbukum/ssecast/sse"
	"github.com/kbukum/ssecast/util"
	"github.com/kbukum/ssecast/version"
)

const serviceName = "ssecast"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, config.WithEnvPrefix("SSECAST")); err != nil {
		return err
	}
	cfg.Version = util.Coalesce(cfg.Version, version.Get().Version)

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	if err := wire(app); err != nil {
		return err
	}
	return app.Run(ctx)
}

// wire registers the components in start order. The HTTP server goes last
// so it only accepts traffic once the hub and relay are up.
func wire(app *bootstrap.App[*AppConfig]) error {
	cfg := app.Cfg
	log := app.Logger

	telemetry := observability.NewComponent(cfg.Observability, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	}, log)
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}

	// Instruments bind to the global meter provider, which delegates to the
	// exporting one once the observability component has started.
	metrics, err := observability.NewBroadcastMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	hubComponent := sse.NewComponent(cfg.SSE, sse.WithLogger(log), sse.WithObserver(metrics))
	if err := app.RegisterComponent(hubComponent); err != nil {
		return err
	}
	hub := hubComponent.Hub()

	var publisher message.Publisher
	if cfg.Redis.Enabled {
		redisComponent := redis.NewComponent(cfg.Redis, log)
		if err := app.RegisterComponent(redisComponent); err != nil {
			return err
		}
		if cfg.Relay.Enabled {
			rl := relay.New(cfg.Relay, redisComponent, hub, metrics, log)
			if err := app.RegisterComponent(rl); err != nil {
				return err
			}
			publisher = rl
		}
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)
	srv.OnShutdown(hub.Stop)

	svc := message.NewService(hub, publisher, metrics, log)
	message.RegisterRoutes(srv.GinEngine(), message.NewHandler(svc, hub, cfg.SSE))

	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	log.Debug("Components wired", logger.Fields("relay", publisher != nil))
	return nil
}
