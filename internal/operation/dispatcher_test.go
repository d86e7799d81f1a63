package operation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sensewear/sensewear-core/internal/enrollment"
)

// mockDevices recognises a fixed set of enrolled identities.
type mockDevices struct {
	enrolled map[string]bool
	err      error
}

func (m *mockDevices) GetByIdentity(_ context.Context, identity enrollment.Identity) (*enrollment.Device, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.enrolled[identity.ID] {
		return nil, enrollment.ErrDeviceNotFound
	}
	return &enrollment.Device{Identity: identity}, nil
}

// mockChannel captures sent commands.
type mockChannel struct {
	sent []*Command
	err  error
}

func (m *mockChannel) Send(_ context.Context, cmd *Command) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, cmd)
	return nil
}

// mockLog captures recorded commands.
type mockLog struct {
	recorded []*Command
	err      error
}

func (m *mockLog) Record(_ context.Context, cmd *Command) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, cmd)
	return nil
}

func (m *mockLog) ListByDevice(_ context.Context, _, _ string, _ int) ([]Command, error) {
	return nil, nil
}

func newTestDispatcher(devices *mockDevices, channel *mockChannel, log *mockLog) *Dispatcher {
	d := NewDispatcher(devices, channel, log, "carbon.super")
	d.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDispatchAlert(t *testing.T) {
	devices := &mockDevices{enrolled: map[string]bool{"k3x9p2q": true}}
	channel := &mockChannel{}
	log := &mockLog{}
	d := newTestDispatcher(devices, channel, log)

	cmd, err := d.DispatchAlert(context.Background(), enrollment.Identity{ID: "k3x9p2q", Type: "alertme"}, 10)
	if err != nil {
		t.Fatalf("DispatchAlert() error = %v", err)
	}

	if cmd.Code != CodeProximityAlert {
		t.Errorf("code = %q, want %q", cmd.Code, CodeProximityAlert)
	}
	if cmd.Kind != KindCommand {
		t.Errorf("kind = %q, want %q", cmd.Kind, KindCommand)
	}
	if !cmd.Enabled {
		t.Error("enabled = false, want true")
	}
	if cmd.Payload != "PROXIMITY_ALERT:10;" {
		t.Errorf("payload = %q, want %q", cmd.Payload, "PROXIMITY_ALERT:10;")
	}
	if got := cmd.Topic(); got != "carbon.super/alertme/k3x9p2q/alert" {
		t.Errorf("topic = %q, want %q", got, "carbon.super/alertme/k3x9p2q/alert")
	}
	if cmd.Status != "submitted" {
		t.Errorf("status = %q, want %q", cmd.Status, "submitted")
	}

	if len(channel.sent) != 1 {
		t.Fatalf("channel received %d commands, want 1", len(channel.sent))
	}
	if len(log.recorded) != 1 {
		t.Fatalf("log recorded %d commands, want 1", len(log.recorded))
	}
	if log.recorded[0].ID != cmd.ID {
		t.Errorf("recorded command id = %q, want %q", log.recorded[0].ID, cmd.ID)
	}
}

func TestDispatchAlertUnenrolledTarget(t *testing.T) {
	devices := &mockDevices{enrolled: map[string]bool{}}
	channel := &mockChannel{}
	log := &mockLog{}
	d := newTestDispatcher(devices, channel, log)

	_, err := d.DispatchAlert(context.Background(), enrollment.Identity{ID: "ghost", Type: "alertme"}, 10)
	if !errors.Is(err, ErrInvalidDevice) {
		t.Fatalf("DispatchAlert() error = %v, want ErrInvalidDevice", err)
	}
	if len(channel.sent) != 0 {
		t.Errorf("channel received %d commands for invalid target, want 0", len(channel.sent))
	}
}

func TestDispatchAlertInvalidIdentity(t *testing.T) {
	d := newTestDispatcher(&mockDevices{}, &mockChannel{}, &mockLog{})

	_, err := d.DispatchAlert(context.Background(), enrollment.Identity{ID: "k3x9p2q"}, 10)
	if !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("DispatchAlert() error = %v, want ErrInvalidDevice", err)
	}
}

func TestDispatchAlertChannelFailure(t *testing.T) {
	devices := &mockDevices{enrolled: map[string]bool{"k3x9p2q": true}}
	channel := &mockChannel{err: fmt.Errorf("broker unreachable")}
	log := &mockLog{}
	d := newTestDispatcher(devices, channel, log)

	_, err := d.DispatchAlert(context.Background(), enrollment.Identity{ID: "k3x9p2q", Type: "alertme"}, 10)
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("DispatchAlert() error = %v, want ErrDispatchFailed", err)
	}
	// Failed delivery must not leave an operation record behind.
	if len(log.recorded) != 0 {
		t.Errorf("log recorded %d commands after delivery failure, want 0", len(log.recorded))
	}
}

func TestDispatchAlertStoreFailure(t *testing.T) {
	devices := &mockDevices{err: fmt.Errorf("disk error")}
	d := newTestDispatcher(devices, &mockChannel{}, &mockLog{})

	_, err := d.DispatchAlert(context.Background(), enrollment.Identity{ID: "k3x9p2q", Type: "alertme"}, 10)
	if !errors.Is(err, ErrDispatchFailed) {
		t.Errorf("DispatchAlert() error = %v, want ErrDispatchFailed", err)
	}
	if errors.Is(err, ErrInvalidDevice) {
		t.Error("store failure reported as ErrInvalidDevice")
	}
}

func TestAlertPayload(t *testing.T) {
	if got := AlertPayload(30); got != "PROXIMITY_ALERT:30;" {
		t.Errorf("AlertPayload(30) = %q, want %q", got, "PROXIMITY_ALERT:30;")
	}
}
