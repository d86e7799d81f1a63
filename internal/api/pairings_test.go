package api

import (
	"net/http"
	"testing"

	"github.com/sensewear/sensewear-core/internal/auth"
	"github.com/sensewear/sensewear-core/internal/enrollment"
)

func pairBody(senseID, alertID string) map[string]any {
	return map[string]any{
		"sense_device_id": senseID,
		"alert_device_id": alertID,
		"trigger_range":   3,
		"alert_duration":  10,
	}
}

func TestCreatePairing(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "a1", "alice")
	token := env.token(t, "alice", auth.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/v1/pairings", token, pairBody("s1", "a1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("pair status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var pairing enrollment.Pairing
	decode(t, rec, &pairing)
	if pairing.SenseDeviceID != "s1" || pairing.AlertDeviceID != "a1" {
		t.Errorf("pairing = %+v", pairing)
	}
	if pairing.Tenant != "carbon.super" {
		t.Errorf("tenant = %q, want carbon.super", pairing.Tenant)
	}
}

func TestCreatePairingValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "a1", "alice")
	token := env.token(t, "alice", auth.RoleUser)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing devices", map[string]any{"trigger_range": 3, "alert_duration": 10}},
		{"zero trigger range", map[string]any{
			"sense_device_id": "s1", "alert_device_id": "a1",
			"trigger_range": 0, "alert_duration": 10,
		}},
		{"negative duration", map[string]any{
			"sense_device_id": "s1", "alert_device_id": "a1",
			"trigger_range": 3, "alert_duration": -1,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/pairings", token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreatePairingForeignWearable(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "b1", "bob")

	rec := env.do(t, http.MethodPost, "/api/v1/pairings", env.token(t, "alice", auth.RoleUser), pairBody("s1", "b1"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("pairing another owner's wearable status = %d, want 403", rec.Code)
	}
}

func TestGetAlertPairing(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "a1", "alice")
	token := env.token(t, "alice", auth.RoleUser)

	rec := env.do(t, http.MethodGet, "/api/v1/pairings/alert/a1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unpaired wearable status = %d, want 404", rec.Code)
	}

	env.do(t, http.MethodPost, "/api/v1/pairings", token, pairBody("s1", "a1"))

	rec = env.do(t, http.MethodGet, "/api/v1/pairings/alert/a1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("paired wearable status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var pairing enrollment.Pairing
	decode(t, rec, &pairing)
	if pairing.TriggerRange != 3 || pairing.AlertDuration != 10 {
		t.Errorf("trigger settings = %d/%d, want 3/10", pairing.TriggerRange, pairing.AlertDuration)
	}
}

func TestUpdateAlertProperties(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "a1", "alice")
	token := env.token(t, "alice", auth.RoleUser)
	env.do(t, http.MethodPost, "/api/v1/pairings", token, pairBody("s1", "a1"))

	rec := env.do(t, http.MethodPut, "/api/v1/pairings/alert/a1", token, map[string]int{
		"trigger_range":  5,
		"alert_duration": 20,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var pairing enrollment.Pairing
	decode(t, rec, &pairing)
	if pairing.TriggerRange != 5 || pairing.AlertDuration != 20 {
		t.Errorf("trigger settings = %d/%d, want 5/20", pairing.TriggerRange, pairing.AlertDuration)
	}
}

func TestUpdateAlertPropertiesUnpaired(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "a1", "alice")
	token := env.token(t, "alice", auth.RoleUser)

	rec := env.do(t, http.MethodPut, "/api/v1/pairings/alert/a1", token, map[string]int{
		"trigger_range":  5,
		"alert_duration": 20,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update on unpaired wearable status = %d, want 404", rec.Code)
	}
}

func TestListSensePairingsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedDevice(t, "a1", "alice")
	token := env.token(t, "alice", auth.RoleUser)
	env.do(t, http.MethodPost, "/api/v1/pairings", token, pairBody("s1", "a1"))

	rec := env.do(t, http.MethodGet, "/api/v1/pairings/sense/s1", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user listing sense pairings status = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/pairings/sense/s1", env.token(t, "root", auth.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin listing sense pairings status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}
