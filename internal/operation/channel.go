package operation

import (
	"context"
	"fmt"
)

// Publisher is the slice of the MQTT client the channel needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTChannel delivers commands over the broker to device agents.
type MQTTChannel struct {
	publisher Publisher
	qos       byte
}

// NewMQTTChannel creates an MQTTChannel publishing at the given QoS.
func NewMQTTChannel(publisher Publisher, qos byte) *MQTTChannel {
	return &MQTTChannel{
		publisher: publisher,
		qos:       qos,
	}
}

// Send publishes the command payload to its delivery topic.
// Commands are never retained: a wearable that reconnects later must
// not replay a stale alert.
func (c *MQTTChannel) Send(_ context.Context, cmd *Command) error {
	topic := cmd.Topic()
	if topic == "" {
		return fmt.Errorf("command %s has no delivery topic", cmd.ID)
	}
	return c.publisher.Publish(topic, []byte(cmd.Payload), c.qos, false)
}
