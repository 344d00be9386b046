// Package app wires the webmvc server together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Build the handler mappings in registry order (scanned controllers,
//	   manual routes bound to the legacy handler catalog)
//	4. Build the adapters in adapter order, the view renderer and the dispatcher
//	5. Set up the chi router: middleware, /api/health, /api/routes, /metrics
//	   and a catch-all that hands every other request to the dispatcher
//	6. Create the HTTP server
//
// # Usage
//
//	application, err := app.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context. In-flight
// requests get Server.ShutdownTimeout to complete, then telemetry is flushed
// and the log file is closed.
package app
