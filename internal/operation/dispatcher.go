package operation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sensewear/sensewear-core/internal/enrollment"
	"github.com/sensewear/sensewear-core/internal/infrastructure/mqtt"
)

// statusSubmitted is recorded once the channel has accepted a command.
const statusSubmitted = "submitted"

// Channel delivers a command to the device it addresses.
type Channel interface {
	Send(ctx context.Context, cmd *Command) error
}

// DeviceReader is the slice of the enrollment store the dispatcher needs.
type DeviceReader interface {
	GetByIdentity(ctx context.Context, identity enrollment.Identity) (*enrollment.Device, error)
}

// Logger is the minimal logging interface the dispatcher needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher builds, delivers, and records commands for enrolled devices.
//
// Delivery happens before the operation is recorded: a channel failure
// leaves no record behind, so the operation log only ever contains
// commands that actually reached the broker.
type Dispatcher struct {
	devices DeviceReader
	channel Channel
	log     Repository
	tenant  string
	logger  Logger
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(devices DeviceReader, channel Channel, log Repository, tenant string) *Dispatcher {
	return &Dispatcher{
		devices: devices,
		channel: channel,
		log:     log,
		tenant:  tenant,
		now:     time.Now,
	}
}

// SetLogger sets an optional logger for dispatch events.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// DispatchAlert sends a proximity alert command to a wearable.
//
// The target must be enrolled; an unknown identity yields
// ErrInvalidDevice. The returned command reflects what was delivered
// and recorded.
func (d *Dispatcher) DispatchAlert(ctx context.Context, identity enrollment.Identity, durationSeconds int) (*Command, error) {
	if err := d.validateTarget(ctx, identity); err != nil {
		return nil, err
	}

	cmd := &Command{
		ID:      uuid.NewString(),
		Code:    CodeProximityAlert,
		Kind:    KindCommand,
		Enabled: true,
		Payload: AlertPayload(durationSeconds),
		Properties: map[string]string{
			PropertyTopic: mqtt.Topics{}.DeviceAlert(d.tenant, identity.Type, identity.ID),
		},
		DeviceID:   identity.ID,
		DeviceType: identity.Type,
		Status:     statusSubmitted,
		CreatedAt:  d.now().UTC(),
	}

	return d.dispatch(ctx, cmd)
}

// dispatch delivers the command and records it on success.
func (d *Dispatcher) dispatch(ctx context.Context, cmd *Command) (*Command, error) {
	if err := d.channel.Send(ctx, cmd); err != nil {
		if d.logger != nil {
			d.logger.Error("command delivery failed",
				"command_id", cmd.ID,
				"device_id", cmd.DeviceID,
				"code", cmd.Code,
				"error", err,
			)
		}
		return nil, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	if err := d.log.Record(ctx, cmd); err != nil {
		// Delivery already happened; a failed record is reported but the
		// device has the command either way.
		return nil, fmt.Errorf("%w: recording operation: %w", ErrDispatchFailed, err)
	}

	if d.logger != nil {
		d.logger.Info("command dispatched",
			"command_id", cmd.ID,
			"device_id", cmd.DeviceID,
			"code", cmd.Code,
			"topic", cmd.Topic(),
		)
	}
	return cmd, nil
}

// validateTarget confirms the identity addresses an enrolled device.
func (d *Dispatcher) validateTarget(ctx context.Context, identity enrollment.Identity) error {
	if !identity.Valid() {
		return fmt.Errorf("%w: incomplete identity", ErrInvalidDevice)
	}

	_, err := d.devices.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, enrollment.ErrDeviceNotFound) {
			return fmt.Errorf("%w: %s/%s is not enrolled", ErrInvalidDevice, identity.Type, identity.ID)
		}
		return fmt.Errorf("%w: checking target: %w", ErrDispatchFailed, err)
	}
	return nil
}
