package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sensewear/sensewear-core/internal/enrollment"
)

// pairingRequest is the body for pairing a proximity sensor with an
// alert wearable.
type pairingRequest struct {
	SenseDeviceID string `json:"sense_device_id"`
	AlertDeviceID string `json:"alert_device_id"`
	TriggerRange  int    `json:"trigger_range"`
	AlertDuration int    `json:"alert_duration"`
}

// handleCreatePairing links a proximity sensor to an alert wearable.
// Re-pairing the same pair is idempotent and keeps existing trigger
// settings.
func (s *Server) handleCreatePairing(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if s.pairings == nil {
		writeInternalError(w, "pairing store not configured")
		return
	}

	var req pairingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.SenseDeviceID == "" || req.AlertDeviceID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "sense_device_id and alert_device_id are required")
		return
	}
	if req.TriggerRange <= 0 || req.AlertDuration <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "trigger_range and alert_duration must be positive")
		return
	}

	// The caller must own the wearable being alerted; the sensor side is
	// shared fleet hardware and carries no ownership claim.
	alertIdentity := enrollment.Identity{ID: req.AlertDeviceID, Type: s.provCfg.DeviceType}
	if !s.authorizeDevice(w, r, caller, alertIdentity) {
		return
	}

	pairing := &enrollment.Pairing{
		SenseDeviceID: req.SenseDeviceID,
		AlertDeviceID: req.AlertDeviceID,
		Tenant:        caller.Tenant,
		TriggerRange:  req.TriggerRange,
		AlertDuration: req.AlertDuration,
	}
	if err := s.pairings.Pair(r.Context(), pairing); err != nil {
		s.logger.Error("pairing failed",
			"sense_device_id", req.SenseDeviceID,
			"alert_device_id", req.AlertDeviceID,
			"error", err,
		)
		writeInternalError(w, "pairing failed")
		return
	}

	s.logger.Info("devices paired",
		"sense_device_id", req.SenseDeviceID,
		"alert_device_id", req.AlertDeviceID,
		"tenant", caller.Tenant,
	)
	writeJSON(w, http.StatusCreated, pairing)
}

// handleGetAlertPairing returns the pairing that targets an alert
// wearable, including its trigger settings.
func (s *Server) handleGetAlertPairing(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if s.pairings == nil {
		writeInternalError(w, "pairing store not configured")
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	alertIdentity := enrollment.Identity{ID: deviceID, Type: s.provCfg.DeviceType}
	if !s.authorizeDevice(w, r, caller, alertIdentity) {
		return
	}

	pairing, err := s.pairings.GetByAlertDevice(r.Context(), deviceID, caller.Tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairing)
}

// alertPropertiesRequest is the body for updating trigger settings.
type alertPropertiesRequest struct {
	TriggerRange  int `json:"trigger_range"`
	AlertDuration int `json:"alert_duration"`
}

// handleUpdateAlertProperties changes the trigger range and alert
// duration on an existing pairing.
func (s *Server) handleUpdateAlertProperties(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if s.pairings == nil {
		writeInternalError(w, "pairing store not configured")
		return
	}

	var req alertPropertiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.TriggerRange <= 0 || req.AlertDuration <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "trigger_range and alert_duration must be positive")
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	alertIdentity := enrollment.Identity{ID: deviceID, Type: s.provCfg.DeviceType}
	if !s.authorizeDevice(w, r, caller, alertIdentity) {
		return
	}

	if err := s.pairings.UpdateAlertProperties(r.Context(), deviceID, caller.Tenant, req.TriggerRange, req.AlertDuration); err != nil {
		writeDomainError(w, err)
		return
	}

	pairing, err := s.pairings.GetByAlertDevice(r.Context(), deviceID, caller.Tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairing)
}

// handleListSensePairings lists the pairings originating from a
// proximity sensor. Sensors carry no ownership, so this is admin-only.
func (s *Server) handleListSensePairings(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if s.pairings == nil {
		writeInternalError(w, "pairing store not configured")
		return
	}
	if !caller.IsAdmin() {
		writeForbidden(w, "access denied")
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	pairings, err := s.pairings.ListBySenseDevice(r.Context(), deviceID, caller.Tenant)
	if err != nil {
		s.logger.Error("listing pairings failed", "sense_device_id", deviceID, "error", err)
		writeInternalError(w, "listing pairings failed")
		return
	}
	if pairings == nil {
		pairings = []enrollment.Pairing{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sense_device_id": deviceID,
		"pairings":        pairings,
		"count":           len(pairings),
	})
}
