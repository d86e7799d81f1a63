package sensor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Writer is the slice of the analytics client the ingestor needs.
type Writer interface {
	WriteSensorReading(measurement, tenant, deviceID, deviceType string, value float64, at time.Time)
}

// Logger is the minimal logging interface the ingestor needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Ingestor turns agent telemetry messages into analytics writes.
//
// Agents publish plain numeric payloads to
// {tenant}/{device_type}/{device_id}/{sensor_type}; the ingestor maps
// the sensor type to its measurement and forwards the reading.
// Messages for unmapped sensor types are dropped with a warning, not
// an error: a fleet may carry newer firmware than the core.
type Ingestor struct {
	writer Writer
	logger Logger
}

// NewIngestor creates an Ingestor writing to the given analytics store.
func NewIngestor(writer Writer) *Ingestor {
	return &Ingestor{writer: writer}
}

// SetLogger sets an optional logger for dropped messages.
func (i *Ingestor) SetLogger(logger Logger) {
	i.logger = logger
}

// Handle processes one telemetry message. It satisfies the MQTT
// MessageHandler signature and is safe to register directly as the
// subscription callback.
func (i *Ingestor) Handle(topic string, payload []byte) error {
	tenant, deviceType, deviceID, sensorType, err := splitDataTopic(topic)
	if err != nil {
		return err
	}

	measurement, err := Measurement(sensorType)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("dropping reading for unmapped sensor type",
				"sensor_type", sensorType,
				"device_id", deviceID,
			)
		}
		return nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return fmt.Errorf("parsing reading payload %q: %w", payload, err)
	}

	i.writer.WriteSensorReading(measurement, tenant, deviceID, deviceType, value, time.Now().UTC())
	return nil
}

// splitDataTopic parses {tenant}/{device_type}/{device_id}/{sensor_type}.
func splitDataTopic(topic string) (tenant, deviceType, deviceID, sensorType string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return "", "", "", "", fmt.Errorf("unexpected data topic %q", topic)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", "", fmt.Errorf("unexpected data topic %q", topic)
		}
	}
	return parts[0], parts[1], parts[2], parts[3], nil
}
