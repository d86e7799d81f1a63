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
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Wearable endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleProvisionDevice)

				r.Route("/{deviceID}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Post("/register", s.handleRegisterAck)
					r.Delete("/", s.handleRemoveDevice)
					r.Get("/agent", s.handleDownloadAgent)
					r.Get("/isworn", s.handleIsWorn)
					r.Post("/alert", s.handleDispatchAlert)
					r.Get("/operations", s.handleListOperations)
					r.Get("/readings/{sensorType}", s.handleQueryReadings)
					r.Get("/readings/{sensorType}/stats", s.handleReadingStats)
				})
			})

			// Sensor/wearable pairing endpoints
			r.Route("/pairings", func(r chi.Router) {
				r.Post("/", s.handleCreatePairing)
				r.Get("/alert/{deviceID}", s.handleGetAlertPairing)
				r.Put("/alert/{deviceID}", s.handleUpdateAlertProperties)
				r.Get("/sense/{deviceID}", s.handleListSensePairings)
			})

			// Supported sensor types
			r.Get("/sensors/types", s.handleSensorTypes)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
