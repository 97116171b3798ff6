// Package bootstrap runs a service through its lifecycle: config validation,
// logger setup, component start in registration order, configure callbacks,
// a ready check, a startup summary, then graceful shutdown on SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(hubComponent)
//	app.RegisterComponent(serverComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
//	    return nil
//	})
//	err = app.Run(ctx)
package bootstrap
