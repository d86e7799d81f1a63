// Package mqtt provides MQTT client connectivity for SenseWear Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the channel between the core and the wearable agents in the
// field. The core publishes alert commands to per-device topics and
// ingests sensor readings the agents publish back.
//
//	SenseWear Core ↔ MQTT Broker ↔ Wearable Agents
//
// Device topics are tenant-scoped: {tenant}/{device_type}/{device_id}/{channel}.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceAlert("carbon.super", "alertme", deviceID)
//	client.Publish(topic, []byte("PROXIMITY_ALERT:10;"), 1, false)
package mqtt
