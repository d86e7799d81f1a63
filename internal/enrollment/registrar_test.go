package enrollment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// MockRepository implements Repository for testing without a database.
type MockRepository struct {
	devices map[string]*Device

	createErr error
	getErr    error

	createCalls int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{devices: make(map[string]*Device)}
}

func mockKey(identity Identity) string {
	return identity.Type + "/" + identity.ID
}

func (m *MockRepository) GetByIdentity(_ context.Context, identity Identity) (*Device, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	device, ok := m.devices[mockKey(identity)]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

func (m *MockRepository) ListByOwner(_ context.Context, owner string) ([]Device, error) {
	var devices []Device
	for _, d := range m.devices {
		if d.Enrollment.Owner == owner {
			devices = append(devices, *d)
		}
	}
	return devices, nil
}

func (m *MockRepository) Create(_ context.Context, device *Device) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	key := mockKey(device.Identity)
	if _, ok := m.devices[key]; ok {
		return ErrDeviceExists
	}
	m.devices[key] = device
	return nil
}

func (m *MockRepository) UpdateStatus(_ context.Context, identity Identity, status Status) error {
	device, ok := m.devices[mockKey(identity)]
	if !ok {
		return ErrDeviceNotFound
	}
	device.Enrollment.Status = status
	return nil
}

func TestRegisterNewDevice(t *testing.T) {
	repo := NewMockRepository()
	registrar := NewRegistrar(repo)

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registrar.now = func() time.Time { return fixed }

	identity := Identity{ID: "k3x9p2q", Type: "alertme"}
	result, err := registrar.Register(context.Background(), identity, "Ward 3 wearable", "admin")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result != Registered {
		t.Errorf("Register() result = %q, want %q", result, Registered)
	}

	device, err := repo.GetByIdentity(context.Background(), identity)
	if err != nil {
		t.Fatalf("GetByIdentity() after register error = %v", err)
	}
	if device.Enrollment.Status != StatusActive {
		t.Errorf("status = %q, want %q", device.Enrollment.Status, StatusActive)
	}
	if device.Enrollment.Ownership != OwnershipBYOD {
		t.Errorf("ownership = %q, want %q", device.Enrollment.Ownership, OwnershipBYOD)
	}
	if !device.Enrollment.EnrolledAt.Equal(fixed) {
		t.Errorf("enrolled_at = %v, want %v", device.Enrollment.EnrolledAt, fixed)
	}
	if !device.Enrollment.LastUpdatedAt.Equal(fixed) {
		t.Errorf("last_updated_at = %v, want %v", device.Enrollment.LastUpdatedAt, fixed)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	repo := NewMockRepository()
	registrar := NewRegistrar(repo)
	identity := Identity{ID: "k3x9p2q", Type: "alertme"}

	if _, err := registrar.Register(context.Background(), identity, "first", "admin"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	result, err := registrar.Register(context.Background(), identity, "second", "admin")
	if err != nil {
		t.Fatalf("second Register() error = %v", err)
	}
	if result != AlreadyRegistered {
		t.Errorf("second Register() result = %q, want %q", result, AlreadyRegistered)
	}
	if repo.createCalls != 1 {
		t.Errorf("Create called %d times, want 1", repo.createCalls)
	}

	device, err := repo.GetByIdentity(context.Background(), identity)
	if err != nil {
		t.Fatalf("GetByIdentity() error = %v", err)
	}
	if device.Name != "first" {
		t.Errorf("device name = %q, want the original %q preserved", device.Name, "first")
	}
}

func TestRegisterInvalidIdentity(t *testing.T) {
	registrar := NewRegistrar(NewMockRepository())

	tests := []struct {
		name     string
		identity Identity
	}{
		{"missing id", Identity{Type: "alertme"}},
		{"missing type", Identity{ID: "k3x9p2q"}},
		{"empty", Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registrar.Register(context.Background(), tt.identity, "name", "admin")
			if !errors.Is(err, ErrInvalidIdentity) {
				t.Errorf("Register() error = %v, want ErrInvalidIdentity", err)
			}
		})
	}
}

func TestRegisterRaceLoser(t *testing.T) {
	// A concurrent registration can slip in between the enrollment check
	// and the insert; the registrar treats the resulting ErrDeviceExists
	// as AlreadyRegistered rather than a failure.
	repo := NewMockRepository()
	repo.createErr = ErrDeviceExists
	registrar := NewRegistrar(repo)

	result, err := registrar.Register(context.Background(), Identity{ID: "k3x9p2q", Type: "alertme"}, "name", "admin")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result != AlreadyRegistered {
		t.Errorf("Register() result = %q, want %q", result, AlreadyRegistered)
	}
}

func TestRegisterPersistenceFailure(t *testing.T) {
	repo := NewMockRepository()
	repo.createErr = fmt.Errorf("disk full")
	registrar := NewRegistrar(repo)

	_, err := registrar.Register(context.Background(), Identity{ID: "k3x9p2q", Type: "alertme"}, "name", "admin")
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Errorf("Register() error = %v, want ErrRegistrationFailed", err)
	}
}

func TestIsEnrolled(t *testing.T) {
	repo := NewMockRepository()
	registrar := NewRegistrar(repo)
	identity := Identity{ID: "k3x9p2q", Type: "alertme"}

	enrolled, err := registrar.IsEnrolled(context.Background(), identity)
	if err != nil {
		t.Fatalf("IsEnrolled() error = %v", err)
	}
	if enrolled {
		t.Error("IsEnrolled() = true before registration")
	}

	if _, err := registrar.Register(context.Background(), identity, "name", "admin"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	enrolled, err = registrar.IsEnrolled(context.Background(), identity)
	if err != nil {
		t.Fatalf("IsEnrolled() error = %v", err)
	}
	if !enrolled {
		t.Error("IsEnrolled() = false after registration")
	}
}

func TestIsEnrolledPropagatesStoreError(t *testing.T) {
	repo := NewMockRepository()
	repo.getErr = fmt.Errorf("connection lost")
	registrar := NewRegistrar(repo)

	_, err := registrar.IsEnrolled(context.Background(), Identity{ID: "k3x9p2q", Type: "alertme"})
	if err == nil {
		t.Error("IsEnrolled() error = nil, want store error propagated")
	}
}
