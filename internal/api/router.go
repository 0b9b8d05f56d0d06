package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// defaultMetricsPath is used when metrics are enabled without a path.
const defaultMetricsPath = "/metrics"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metricsCfg.Enabled && s.metricsHandler != nil {
		path := s.metricsCfg.Path
		if path == "" {
			path = defaultMetricsPath
		}
		r.Handle(path, s.metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/adrs", s.handleListUnits)

			r.Route("/adrs/{name}", func(r chi.Router) {
				r.Use(s.unitMiddleware)

				r.Route("/parameters", func(r chi.Router) {
					r.Get("/", s.handleListParameters)
					r.Post("/revert", s.handleRevertParameters)
					r.Get("/{key}", s.handleGetParameter)
					r.Put("/{key}", s.handleSetParameter)
				})

				r.Get("/status", s.handleGetStatus)
				r.Put("/status", s.handleSetStatus)
				r.Get("/statuses", s.handleListStatuses)

				r.Route("/peripherals", func(r chi.Router) {
					r.Get("/", s.handleListPeripherals)
					r.Get("/connected", s.handleConnectedPeripherals)
					r.Get("/orphaned", s.handleOrphanedPeripherals)
					r.Post("/refresh", s.handleRefreshPeripherals)
					r.Post("/{peripheral}/connect", s.handleConnectPeripheral)
				})

				r.Route("/recording", func(r chi.Router) {
					r.Get("/", s.handleRecordingInfo)
					r.Post("/start", s.handleStartRecording)
					r.Post("/stop", s.handleStopRecording)
				})

				r.Get("/log", s.handleRecentLog)
				r.Get("/log/full", s.handleFullLog)

				r.Get("/readings", s.handleReadings)
				r.Post("/heatswitch/{action}", s.handleHeatSwitch)
				r.Post("/compressor/{action}", s.handleCompressor)
			})

			r.Get("/ws", s.handleStream)
		})
	})

	return r
}

// handleHealth returns the server health status with every unit's status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	units := make(map[string]string)
	for _, c := range s.units.Controllers() {
		units[c.Name()] = string(c.Status())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"units":   units,
	})
}
