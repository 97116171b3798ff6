// Package observability sets up OpenTelemetry metrics and tracing for
// ssecast and defines the broadcast instruments.
//
// When disabled, nothing is exported: instruments are created on the
// global no-op providers and recording costs next to nothing.
//
//	comp := observability.NewComponent(cfg.Observability, observability.ServiceInfo{Name: "ssecast"})
//	registry.Register(comp)
//	metrics, _ := observability.NewBroadcastMetrics(observability.Meter(observability.InstrumentationName))
package observability
