// Package api implements the HTTP REST API for the config store service.
//
// This package provides:
//   - REST endpoints for application registration and configuration documents
//   - Service endpoints: root info and a database-aware health check
//   - Middleware stack (request ID, logging, recovery, CORS, body size limit)
//   - A consistent JSON error envelope across all endpoints
//
// # Architecture
//
// The API server sits between HTTP clients and the application/configuration
// repositories. Handlers validate input with the application package's
// normalisation helpers before any repository call, map domain sentinel
// errors onto HTTP status codes (404 not found, 409 duplicate name), and
// fall back to a logged 500 for anything unexpected. Database errors never
// take the server down: the connection pool stays healthy and subsequent
// requests proceed normally.
//
// # Endpoints
//
// Application management lives under /api/v1/applications. Consuming
// services that only know their own name fetch their document from
// /api/v1/config/{name}, which returns the bare JSON object with no
// envelope. /health reports pool lease accounting alongside a liveness
// ping and degrades to 503 when the database is unreachable.
//
// # Lifecycle
//
// The server follows the same pattern as the infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start()
//	defer server.Close()
//
// Thread Safety: all methods are safe for concurrent use from multiple
// goroutines.
package api
