// Package httpserver provides the reusable HTTP server shell for QuizBurst
// services.
//
// The package implements a base server with standard health endpoints,
// graceful shutdown, structured request logging and flexible routing, so the
// API server can focus on quiz and session endpoints.
//
// # Key Components
//
//   - BaseServer: Core HTTP server with health checks and lifecycle management
//   - RouteRegistrar: Interface for components to register their routes
//
// # Health and Diagnostics
//
// All servers built with BaseServer automatically include:
//
//   - Liveness check (/livez)
//   - Readiness check (/readyz), wired to the backing store's Ping so a lost
//     database takes the server out of rotation
//   - Drain control (/drain, /undrain) for load balancers
//   - Optional pprof debugging endpoints
//
// # Usage
//
//	srv, err := httpserver.New(cfg, handler)
//	if err != nil { ... }
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
