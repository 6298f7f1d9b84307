// Package bootstrap orchestrates application lifecycle for services and
// batch tools built on this module.
//
// It provides typed configuration validation, component registration, and
// startup/shutdown hooks so a service binary only describes what it runs,
// not how to sequence it.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.RegisterComponent(serverComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    // a.Cfg is fully typed here
//	    return nil
//	})
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until an OS signal and then shuts components down in reverse
// order. The startup summary auto-discovers infrastructure details and
// routes from components that implement the optional Describable and
// RouteProvider interfaces.
package bootstrap
