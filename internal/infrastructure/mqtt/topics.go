package mqtt

import "fmt"

// Device topics follow the tenant-scoped scheme the wearable agents
// subscribe to: {tenant}/{device_type}/{device_id}/{channel}.
// System topics live under the sensewear/ prefix and carry broker-level
// service state, not device traffic.
const (
	// TopicPrefixSystem is the base for service status topics.
	TopicPrefixSystem = "sensewear/system"

	// ChannelAlert carries proximity alert commands to a wearable.
	ChannelAlert = "alert"

	// ChannelCommand carries generic operations to a device agent.
	ChannelCommand = "command"
)

// Topics provides builders for SenseWear MQTT topics.
// Using these helpers keeps topic naming consistent with what the
// device agents are flashed to subscribe to.
type Topics struct{}

// DeviceAlert returns the alert command topic for one wearable.
//
// Example: carbon.super/alertme/k3x9p2q/alert
func (Topics) DeviceAlert(tenant, deviceType, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", tenant, deviceType, deviceID, ChannelAlert)
}

// DeviceCommand returns the generic command topic for one device.
//
// Example: carbon.super/alertme/k3x9p2q/command
func (Topics) DeviceCommand(tenant, deviceType, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", tenant, deviceType, deviceID, ChannelCommand)
}

// DeviceData returns the topic a device publishes one sensor's
// readings to.
//
// Example: carbon.super/senseme/a81b3c/proximity
func (Topics) DeviceData(tenant, deviceType, deviceID, sensorType string) string {
	return fmt.Sprintf("%s/%s/%s/%s", tenant, deviceType, deviceID, sensorType)
}

// AllDeviceData returns a pattern matching every sensor reading from
// every device of a type within a tenant.
//
// Pattern: carbon.super/senseme/+/+
func (Topics) AllDeviceData(tenant, deviceType string) string {
	return fmt.Sprintf("%s/%s/+/+", tenant, deviceType)
}

// SystemStatus returns the service status topic used for the LWT and
// online/offline announcements.
//
// Example: sensewear/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
