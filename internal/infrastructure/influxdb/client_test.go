package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sensewear/sensewear-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}
	err := c.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestQueryReadingsDisconnected(t *testing.T) {
	c := &Client{}
	_, err := c.QueryReadings(context.Background(), ReadingFilter{})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("QueryReadings() error = %v, want ErrNotConnected", err)
	}
}

func TestReadingFilterValidate(t *testing.T) {
	now := time.Now()
	valid := ReadingFilter{
		Measurement: "proximity",
		Tenant:      "carbon.super",
		DeviceID:    "a81b3c",
		DeviceType:  "senseme",
		From:        now.Add(-time.Hour),
		To:          now,
	}

	if err := valid.validate(); err != nil {
		t.Errorf("validate() error = %v for valid filter", err)
	}

	tests := []struct {
		name   string
		mutate func(*ReadingFilter)
	}{
		{"empty measurement", func(f *ReadingFilter) { f.Measurement = "" }},
		{"flux injection in device id", func(f *ReadingFilter) { f.DeviceID = `x" or true or "` }},
		{"whitespace in tenant", func(f *ReadingFilter) { f.Tenant = "carbon super" }},
		{"inverted range", func(f *ReadingFilter) { f.From, f.To = f.To.Add(time.Hour), f.From }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if err := f.validate(); !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("validate() error = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestWriteSensorReadingDisconnectedNoop(t *testing.T) {
	c := &Client{}
	// Must not panic on a disconnected client.
	c.WriteSensorReading("proximity", "carbon.super", "a81b3c", "senseme", 1.0, time.Now())
	c.WritePoint("service_stats", map[string]string{"host": "core"}, map[string]interface{}{"n": 1})
	c.Flush()
}
