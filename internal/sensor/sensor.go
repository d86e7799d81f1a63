package sensor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sensewear/sensewear-core/internal/infrastructure/influxdb"
)

// Sentinel errors for sensor queries.
var (
	// ErrUnsupportedSensorType is returned when the requested sensor type
	// has no measurement mapping.
	ErrUnsupportedSensorType = errors.New("sensor: unsupported sensor type")

	// ErrQueryFailed is returned when the analytics store cannot serve
	// the query.
	ErrQueryFailed = errors.New("sensor: query failed")
)

// measurements maps public sensor type names to stored measurement
// names. A type absent from this map is unsupported even if agents
// publish readings under it.
var measurements = map[string]string{
	"proximity":   "proximity",
	"battery":     "battery_level",
	"heart_rate":  "heart_rate",
	"temperature": "temperature",
}

// Measurement resolves a sensor type to its stored measurement name.
func Measurement(sensorType string) (string, error) {
	m, ok := measurements[sensorType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSensorType, sensorType)
	}
	return m, nil
}

// SupportedTypes returns the sensor types this service can query,
// sorted for stable presentation.
func SupportedTypes() []string {
	types := make([]string, 0, len(measurements))
	for t := range measurements {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Record is one sensor reading returned to API callers.
type Record struct {
	DeviceID   string    `json:"device_id"`
	DeviceType string    `json:"device_type"`
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Time       time.Time `json:"time"`
}

// Query describes one sensor history request. The time range is
// inclusive at both ends.
type Query struct {
	DeviceID   string
	DeviceType string
	SensorType string
	Tenant     string
	From       time.Time
	To         time.Time
}

// Store is the analytics backend the planner reads from.
type Store interface {
	QueryReadings(ctx context.Context, filter influxdb.ReadingFilter) ([]influxdb.Reading, error)
}

// Planner resolves sensor queries against the analytics store.
type Planner struct {
	store Store
}

// NewPlanner creates a Planner backed by the given store.
func NewPlanner(store Store) *Planner {
	return &Planner{store: store}
}

// Run executes the query and returns matching records sorted by time
// ascending.
//
// The sensor type is resolved before the store is touched, so an
// unsupported type fails fast with ErrUnsupportedSensorType.
func (p *Planner) Run(ctx context.Context, q Query) ([]Record, error) {
	measurement, err := Measurement(q.SensorType)
	if err != nil {
		return nil, err
	}

	readings, err := p.store.QueryReadings(ctx, influxdb.ReadingFilter{
		Measurement: measurement,
		Tenant:      q.Tenant,
		DeviceID:    q.DeviceID,
		DeviceType:  q.DeviceType,
		From:        q.From,
		To:          q.To,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	records := make([]Record, 0, len(readings))
	for _, r := range readings {
		records = append(records, Record{
			DeviceID:   r.DeviceID,
			DeviceType: r.DeviceType,
			SensorType: q.SensorType,
			Value:      r.Value,
			Time:       r.Time,
		})
	}

	// The store sorts ascending already; keep the guarantee even if a
	// different Store implementation is plugged in.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})

	return records, nil
}
