package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading writes one sensor reading to InfluxDB.
//
// This is the primary ingest path for agent telemetry. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - measurement: The mapped measurement name (e.g., "proximity")
//   - tenant: Tenant domain the device belongs to
//   - deviceID: The device that produced the reading
//   - deviceType: The device's type
//   - value: The reading value
//   - at: When the reading was taken (agent timestamp, not ingest time)
//
// Example:
//
//	client.WriteSensorReading("proximity", "carbon.super", "a81b3c", "senseme", 0.42, reading.At)
func (c *Client) WriteSensorReading(measurement, tenant, deviceID, deviceType string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurement,
		map[string]string{
			"tenant":      tenant,
			"device_id":   deviceID,
			"device_type": deviceType,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteSensorReading, such as
// service-level counters.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
