package influxdb

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// identifierPattern restricts query inputs interpolated into Flux.
// Measurements, device ids, types, and tenants are all generated by
// this service, so anything outside this set is an injection attempt.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Reading is one sensor value returned from a query.
type Reading struct {
	DeviceID   string    `json:"device_id"`
	DeviceType string    `json:"device_type"`
	Value      float64   `json:"value"`
	Time       time.Time `json:"time"`
}

// ReadingFilter selects sensor readings for a query.
// All fields are required.
type ReadingFilter struct {
	Measurement string
	Tenant      string
	DeviceID    string
	DeviceType  string
	From        time.Time
	To          time.Time
}

// validate checks the filter inputs before they reach Flux.
func (f ReadingFilter) validate() error {
	for name, v := range map[string]string{
		"measurement": f.Measurement,
		"tenant":      f.Tenant,
		"device_id":   f.DeviceID,
		"device_type": f.DeviceType,
	} {
		if !identifierPattern.MatchString(v) {
			return fmt.Errorf("%w: %s %q", ErrInvalidQuery, name, v)
		}
	}
	if f.To.Before(f.From) {
		return fmt.Errorf("%w: time range end precedes start", ErrInvalidQuery)
	}
	return nil
}

// QueryReadings returns the sensor readings matching the filter,
// sorted by time ascending. Both range bounds are inclusive.
func (c *Client) QueryReadings(ctx context.Context, filter ReadingFilter) ([]Reading, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}

	// Flux range() excludes the stop instant; extend by one nanosecond
	// so [from, to] stays inclusive at both ends.
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r.tenant == %q and r.device_id == %q and r.device_type == %q)
  |> filter(fn: (r) => r._field == "value")
  |> sort(columns: ["_time"])`,
		c.cfg.Bucket,
		filter.From.UTC().Format(time.RFC3339Nano),
		filter.To.UTC().Add(time.Nanosecond).Format(time.RFC3339Nano),
		filter.Measurement,
		filter.Tenant,
		filter.DeviceID,
		filter.DeviceType,
	)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	var readings []Reading
	for result.Next() {
		record := result.Record()
		value, ok := record.Value().(float64)
		if !ok {
			continue
		}
		readings = append(readings, Reading{
			DeviceID:   filter.DeviceID,
			DeviceType: filter.DeviceType,
			Value:      value,
			Time:       record.Time(),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return readings, nil
}
