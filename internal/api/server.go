// Package api serves fleet state over HTTP and a websocket stream.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dronesim/pkg/logging"
	"dronesim/pkg/version"
)

// NewServer creates and configures the HTTP server.
func NewServer(addr string, drones *DronesHandler, flights *FlightsHandler, missions *MissionsHandler, stream *StreamHandler, logger *slog.Logger) *http.Server {
	logger = logging.OrDefault(logger)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	mux.Handle("GET /api/drones", drones)
	mux.Handle("GET /api/flights", flights)
	mux.HandleFunc("GET /api/missions", missions.HandlePending)
	mux.HandleFunc("POST /api/missions", missions.HandleEnqueue)
	mux.Handle("GET /api/stream", stream)

	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/recent", handleRecentLog)

	return &http.Server{
		Addr:         addr,
		Handler:      withAccessLog(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func withAccessLog(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Trace(logger, "HTTP request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": %q}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
