package enrollment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sensewear/sensewear-core/internal/infrastructure/database"
	_ "github.com/sensewear/sensewear-core/migrations" // register embedded schema
)

// newTestDB opens a throwaway SQLite database with the real schema applied.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     false,
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func testDevice(id string) *Device {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &Device{
		Identity: Identity{ID: id, Type: "alertme"},
		Name:     "Ward 3 wearable",
		Enrollment: EnrollmentInfo{
			EnrolledAt:    now,
			LastUpdatedAt: now,
			Status:        StatusActive,
			Ownership:     OwnershipBYOD,
			Owner:         "admin",
		},
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t).DB)
	ctx := context.Background()

	want := testDevice("k3x9p2q")
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByIdentity(ctx, want.Identity)
	if err != nil {
		t.Fatalf("GetByIdentity() error = %v", err)
	}
	if got.Identity != want.Identity {
		t.Errorf("identity = %+v, want %+v", got.Identity, want.Identity)
	}
	if got.Name != want.Name {
		t.Errorf("name = %q, want %q", got.Name, want.Name)
	}
	if got.Enrollment.Status != StatusActive {
		t.Errorf("status = %q, want %q", got.Enrollment.Status, StatusActive)
	}
	if got.Enrollment.Ownership != OwnershipBYOD {
		t.Errorf("ownership = %q, want %q", got.Enrollment.Ownership, OwnershipBYOD)
	}
	if !got.Enrollment.EnrolledAt.Equal(want.Enrollment.EnrolledAt) {
		t.Errorf("enrolled_at = %v, want %v", got.Enrollment.EnrolledAt, want.Enrollment.EnrolledAt)
	}
}

func TestSQLiteRepositoryDuplicateCreate(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t).DB)
	ctx := context.Background()

	device := testDevice("k3x9p2q")
	if err := repo.Create(ctx, device); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if err := repo.Create(ctx, device); !errors.Is(err, ErrDeviceExists) {
		t.Errorf("second Create() error = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepositorySameIDDifferentType(t *testing.T) {
	// The registry keys on (id, type): the same short id may exist once
	// per device type.
	repo := NewSQLiteRepository(newTestDB(t).DB)
	ctx := context.Background()

	alert := testDevice("k3x9p2q")
	sense := testDevice("k3x9p2q")
	sense.Identity.Type = "senseme"

	if err := repo.Create(ctx, alert); err != nil {
		t.Fatalf("Create(alertme) error = %v", err)
	}
	if err := repo.Create(ctx, sense); err != nil {
		t.Errorf("Create(senseme) error = %v, want same id allowed across types", err)
	}
}

func TestSQLiteRepositoryGetByIdentityNotFound(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t).DB)

	_, err := repo.GetByIdentity(context.Background(), Identity{ID: "missing", Type: "alertme"})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByIdentity() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepositoryListByOwner(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t).DB)
	ctx := context.Background()

	first := testDevice("aaa111")
	second := testDevice("bbb222")
	second.Enrollment.EnrolledAt = second.Enrollment.EnrolledAt.Add(time.Minute)
	other := testDevice("ccc333")
	other.Enrollment.Owner = "nurse"

	for _, d := range []*Device{first, second, other} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create(%s) error = %v", d.Identity.ID, err)
		}
	}

	devices, err := repo.ListByOwner(ctx, "admin")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ListByOwner() returned %d devices, want 2", len(devices))
	}
	if devices[0].Identity.ID != "aaa111" || devices[1].Identity.ID != "bbb222" {
		t.Errorf("ListByOwner() order = %q, %q; want enrollment order",
			devices[0].Identity.ID, devices[1].Identity.ID)
	}
}

func TestSQLiteRepositoryUpdateStatus(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t).DB)
	ctx := context.Background()

	device := testDevice("k3x9p2q")
	if err := repo.Create(ctx, device); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.UpdateStatus(ctx, device.Identity, StatusRemoved); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, err := repo.GetByIdentity(ctx, device.Identity)
	if err != nil {
		t.Fatalf("GetByIdentity() error = %v", err)
	}
	if got.Enrollment.Status != StatusRemoved {
		t.Errorf("status = %q, want %q", got.Enrollment.Status, StatusRemoved)
	}
	if !got.Enrollment.LastUpdatedAt.After(device.Enrollment.LastUpdatedAt) {
		t.Errorf("last_updated_at = %v, want refreshed past %v",
			got.Enrollment.LastUpdatedAt, device.Enrollment.LastUpdatedAt)
	}

	err = repo.UpdateStatus(ctx, Identity{ID: "missing", Type: "alertme"}, StatusBlocked)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateStatus(missing) error = %v, want ErrDeviceNotFound", err)
	}
}
