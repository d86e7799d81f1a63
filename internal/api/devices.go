package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sensewear/sensewear-core/internal/auth"
	"github.com/sensewear/sensewear-core/internal/enrollment"
	"github.com/sensewear/sensewear-core/internal/operation"
	"github.com/sensewear/sensewear-core/internal/sensor"
)

// wornWindow is how far back the worn check looks for proximity
// readings. An agent publishes at least once a minute while the
// wearable is on a wrist; silence for the whole window means off.
const wornWindow = 5 * time.Minute

// deviceIdentity resolves the device identity addressed by the request.
// The type defaults to the deployment's wearable type; sensors are
// addressed with an explicit ?type= query parameter.
func (s *Server) deviceIdentity(r *http.Request) enrollment.Identity {
	deviceType := r.URL.Query().Get("type")
	if deviceType == "" {
		deviceType = s.provCfg.DeviceType
	}
	return enrollment.Identity{
		ID:   chi.URLParam(r, "deviceID"),
		Type: deviceType,
	}
}

// requireCaller extracts the authenticated caller or answers 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller, ok := callerFrom(r)
	if !ok {
		writeUnauthorized(w, "authentication required")
	}
	return caller, ok
}

// authorizeDevice runs the ownership gate and writes the error response
// on denial or failure.
func (s *Server) authorizeDevice(w http.ResponseWriter, r *http.Request, caller auth.Caller, identity enrollment.Identity) bool {
	if err := s.gate.Authorize(r.Context(), caller, identity); err != nil {
		writeDomainError(w, err)
		return false
	}
	return true
}

// provisionRequest is the body for enrolling a new wearable.
type provisionRequest struct {
	Name string `json:"name"`
}

// handleProvisionDevice enrolls a new wearable for the caller and
// returns its identity and credential.
func (s *Server) handleProvisionDevice(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "name is required")
		return
	}

	result, err := s.provisioner.Provision(r.Context(), caller.Username, req.Name)
	if err != nil {
		s.logger.Error("provisioning failed", "owner", caller.Username, "error", err)
		writeInternalError(w, "provisioning failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"identity":   result.Identity,
		"credential": result.Credential,
		"status":     "registered",
	})
}

// handleRegisterAck confirms an agent's enrollment claim. Agents call
// this on first boot to validate the device id and owner baked into
// their bundle before they start publishing.
func (s *Server) handleRegisterAck(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}

	device, err := s.devices.GetByIdentity(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":  device.Identity.ID,
		"registered": true,
		"status":     device.Enrollment.Status,
	})
}

// handleListDevices lists the caller's enrolled devices. Admins may list
// another owner's devices with ?owner=.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	owner := caller.Username
	if requested := r.URL.Query().Get("owner"); requested != "" && requested != owner {
		if !caller.IsAdmin() {
			writeForbidden(w, "access denied")
			return
		}
		owner = requested
	}

	devices, err := s.devices.ListByOwner(r.Context(), owner)
	if err != nil {
		s.logger.Error("listing devices failed", "owner", owner, "error", err)
		writeInternalError(w, "listing devices failed")
		return
	}
	if devices == nil {
		devices = []enrollment.Device{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one enrolled device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}

	device, err := s.devices.GetByIdentity(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// handleRemoveDevice marks a device's enrollment as removed. The record
// is retained so the operation history stays attributable.
func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}

	if err := s.devices.UpdateStatus(r.Context(), identity, enrollment.StatusRemoved); err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Info("device removed",
		"device_id", identity.ID,
		"device_type", identity.Type,
		"caller", caller.Username,
	)
	w.WriteHeader(http.StatusNoContent)
}

// handleDownloadAgent streams the agent bundle for an enrolled device.
//
// The bundle carries a freshly minted credential, so it is staged only
// for this response and deleted as soon as the copy finishes.
func (s *Server) handleDownloadAgent(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}

	bundle, err := s.provisioner.PackageAgent(r.Context(), identity, caller.Username)
	if err != nil {
		if errors.Is(err, enrollment.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("agent packaging failed", "device_id", identity.ID, "error", err)
		writeInternalError(w, "agent packaging failed")
		return
	}
	defer bundle.Remove() //nolint:errcheck // best-effort cleanup, logged by the packager

	f, err := os.Open(bundle.Path)
	if err != nil {
		s.logger.Error("opening agent bundle failed", "path", bundle.Path, "error", err)
		writeInternalError(w, "agent packaging failed")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.FormatInt(bundle.Size, 10))
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(bundle.Path))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		// Headers are gone; all we can do is note the broken download.
		s.logger.Error("streaming agent bundle failed", "device_id", identity.ID, "error", err)
	}
}

// handleIsWorn reports whether the wearable appears to be worn, based
// on proximity readings within the worn window.
func (s *Server) handleIsWorn(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}
	if s.planner == nil {
		writeInternalError(w, "sensor analytics not configured")
		return
	}

	now := time.Now().UTC()
	records, err := s.planner.Run(r.Context(), sensor.Query{
		DeviceID:   identity.ID,
		DeviceType: identity.Type,
		SensorType: "proximity",
		Tenant:     caller.Tenant,
		From:       now.Add(-wornWindow),
		To:         now,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := map[string]any{
		"device_id":  identity.ID,
		"worn":       len(records) > 0,
		"checked_at": now,
	}
	if len(records) > 0 {
		response["last_reading_at"] = records[len(records)-1].Time
	}
	writeJSON(w, http.StatusOK, response)
}

// alertRequest is the body for dispatching a proximity alert.
type alertRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

// handleDispatchAlert sends a proximity alert command to a wearable.
func (s *Server) handleDispatchAlert(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}
	if s.dispatcher == nil {
		writeInternalError(w, "command channel not configured")
		return
	}

	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.DurationSeconds <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "duration_seconds must be positive")
		return
	}

	cmd, err := s.dispatcher.DispatchAlert(r.Context(), identity, req.DurationSeconds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// handleListOperations returns the operations dispatched to a device,
// newest first. ?limit= caps the result.
func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return
	}
	if s.operations == nil {
		writeInternalError(w, "operation log not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	commands, err := s.operations.ListByDevice(r.Context(), identity.ID, identity.Type, limit)
	if err != nil {
		s.logger.Error("listing operations failed", "device_id", identity.ID, "error", err)
		writeInternalError(w, "listing operations failed")
		return
	}
	if commands == nil {
		commands = []operation.Command{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"operations": commands,
		"count":      len(commands),
	})
}
