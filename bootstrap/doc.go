// Package bootstrap runs a shadowkit binary's lifecycle: it validates the
// typed config, sets up the global logger, starts registered components in
// order, waits for SIGINT or SIGTERM and stops them in reverse within a
// graceful timeout.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(server.NewComponent(srv))
//	return app.Run(ctx)
package bootstrap
