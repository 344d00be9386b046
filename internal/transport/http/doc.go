// Package http holds the server's own HTTP endpoints and the bridge that
// hands every other request to the dispatcher.
//
// # Endpoints
//
//	GET /api/health            service status and route count
//	GET /api/health/live       liveness probe
//	GET /api/health/ready      readiness probe, 503 while a check fails
//	GET /api/routes            the merged routing table in priority order
//	GET /api/routes/shadowed   route keys hidden by a higher-priority registry
//	GET /api/routes/resolve    resolve ?method=&path= without invoking anything
//
// # Error Handling
//
// Failures are written as RFC 7807 problem documents by
// internal/errors.ErrorHandler. DispatchHandler converts dispatch errors the
// same way, unless the response has already started.
package http
