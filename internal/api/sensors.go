package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sensewear/sensewear-core/internal/sensor"
)

// defaultQueryWindow is the readings window when the caller gives no
// time range.
const defaultQueryWindow = 24 * time.Hour

// readingsQuery builds the sensor query addressed by the request.
// from/to are RFC3339; an absent range means the last 24 hours.
func (s *Server) readingsQuery(r *http.Request, tenant string) (sensor.Query, string, bool) {
	identity := s.deviceIdentity(r)
	q := sensor.Query{
		DeviceID:   identity.ID,
		DeviceType: identity.Type,
		SensorType: chi.URLParam(r, "sensorType"),
		Tenant:     tenant,
	}

	now := time.Now().UTC()
	q.From = now.Add(-defaultQueryWindow)
	q.To = now

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, "from must be an RFC3339 timestamp", false
		}
		q.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, "to must be an RFC3339 timestamp", false
		}
		q.To = to
	}
	if q.To.Before(q.From) {
		return q, "to must not precede from", false
	}
	return q, "", true
}

// runReadingsQuery authorizes the caller and executes the query,
// writing the error response itself on any failure.
func (s *Server) runReadingsQuery(w http.ResponseWriter, r *http.Request) (sensor.Query, []sensor.Record, bool) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return sensor.Query{}, nil, false
	}
	identity := s.deviceIdentity(r)
	if !s.authorizeDevice(w, r, caller, identity) {
		return sensor.Query{}, nil, false
	}
	if s.planner == nil {
		writeInternalError(w, "sensor analytics not configured")
		return sensor.Query{}, nil, false
	}

	q, msg, ok := s.readingsQuery(r, caller.Tenant)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return sensor.Query{}, nil, false
	}

	records, err := s.planner.Run(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return sensor.Query{}, nil, false
	}
	return q, records, true
}

// handleQueryReadings returns sensor readings for a device over a time
// range, oldest first.
func (s *Server) handleQueryReadings(w http.ResponseWriter, r *http.Request) {
	q, records, ok := s.runReadingsQuery(w, r)
	if !ok {
		return
	}
	if records == nil {
		records = []sensor.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":   q.DeviceID,
		"sensor_type": q.SensorType,
		"from":        q.From,
		"to":          q.To,
		"readings":    records,
		"count":       len(records),
	})
}

// handleReadingStats returns summary statistics over a device's sensor
// readings in a time range.
func (s *Server) handleReadingStats(w http.ResponseWriter, r *http.Request) {
	q, records, ok := s.runReadingsQuery(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":   q.DeviceID,
		"sensor_type": q.SensorType,
		"from":        q.From,
		"to":          q.To,
		"stats":       sensor.Summarise(records),
	})
}

// handleSensorTypes lists the sensor types this deployment can query.
func (s *Server) handleSensorTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types": sensor.SupportedTypes(),
	})
}
