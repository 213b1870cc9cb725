package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the database ping performed by the health endpoint.
const healthCheckTimeout = 2 * time.Second

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Config Store API",
		"api":     "/api/v1",
		"health":  "/health",
	})
}

// handleHealth reports service and database health.
//
// The database section carries the pool's lease accounting so an operator
// can spot capacity exhaustion from the health endpoint alone. A failed
// ping degrades the response to 503 without touching the pool itself; the
// next request checks again.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	db := map[string]any{"status": "up"}

	if err := s.pool.Ping(ctx); err != nil {
		s.logger.Warn("health check: database unreachable", "error", err)
		status = http.StatusServiceUnavailable
		db["status"] = "down"
	}

	if stat := s.pool.Stat(); stat != nil {
		db["max_connections"] = stat.MaxConns()
		db["acquired_connections"] = stat.AcquiredConns()
		db["idle_connections"] = stat.IdleConns()
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":   overall,
		"service":  "configstore",
		"version":  s.version,
		"database": db,
	})
}
