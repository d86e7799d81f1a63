package operation

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for operation dispatch.
var (
	// ErrInvalidDevice is returned when the target device is not enrolled
	// or the identity is malformed.
	ErrInvalidDevice = errors.New("operation: invalid target device")

	// ErrDispatchFailed is returned when the command could not be
	// delivered to the device channel.
	ErrDispatchFailed = errors.New("operation: dispatch failed")
)

// Kind distinguishes immediate commands from configuration pushes.
type Kind string

// Operation kinds.
const (
	KindCommand Kind = "COMMAND"
	KindConfig  Kind = "CONFIG"
)

// Command codes understood by the wearable agents.
const (
	// CodeProximityAlert tells an alertme wearable to buzz for a duration.
	CodeProximityAlert = "PROXIMITY_ALERT"
)

// PropertyTopic is the property key carrying the delivery topic.
const PropertyTopic = "mqtt.adapter.topic"

// Command is one operation addressed to a device.
//
// Payload follows the agent's compact wire form, CODE:argument; — the
// firmware parsers split on the colon and trailing semicolon.
type Command struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	Kind       Kind              `json:"type"`
	Enabled    bool              `json:"enabled"`
	Payload    string            `json:"payload"`
	Properties map[string]string `json:"properties"`
	DeviceID   string            `json:"device_id"`
	DeviceType string            `json:"device_type"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Topic returns the delivery topic from the command properties.
func (c *Command) Topic() string {
	return c.Properties[PropertyTopic]
}

// AlertPayload renders the proximity alert wire payload, for example
// PROXIMITY_ALERT:10; for a ten second buzz.
func AlertPayload(durationSeconds int) string {
	return fmt.Sprintf("%s:%d;", CodeProximityAlert, durationSeconds)
}
