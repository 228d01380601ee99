// Package app wires the inventory web server together and manages its lifecycle.
//
// NewApplication builds every component from a config.Config in dependency
// order:
//
//  1. Logging and OpenTelemetry providers
//  2. The websocket hub and the toast notifier that broadcasts over it
//  3. The product catalog, loaded from Inventory.SeedFile or the built-in
//     sample products and transactions
//  4. The report renderer and the CSV exporter
//  5. The export and health services
//  6. The chi router and the http.Server
//
// The websocket and metrics endpoints sit outside the middleware group so the
// upgrade and the Prometheus scrape see an unwrapped ResponseWriter.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run blocks until ctx is cancelled or the process receives SIGINT or SIGTERM,
// then shuts the server down within Server.ShutdownTimeout. The log file, if
// any, is closed last.
//
// X-Forwarded-For is only trusted when Security.TrustProxy is set.
package app
