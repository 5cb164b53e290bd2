package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/patient-monitor/{patient_id}", s.handleCreateMonitor)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Get("/vitals", s.handleGetVitals)
				r.Post("/vitals", s.handleUpdateVitals)
				r.Put("/thresholds/{name}", s.handleSetThreshold)
				r.Get("/messages", s.handleGetMessages)
			})
		})
	})

	// Real-time channels
	r.Get("/ws/dashboard", s.handleDashboardWS)
	r.Get("/ws/device/{id}", s.handleDeviceWS)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":     "ok",
		"version":    s.version,
		"devices":    s.registry.Count(),
		"dashboards": s.hub.DashboardCount(),
		"messages":   s.bus.Len(),
	}
	if s.influx != nil {
		resp["telemetry_connected"] = s.influx.IsConnected()
	}
	writeJSON(w, http.StatusOK, resp)
}
