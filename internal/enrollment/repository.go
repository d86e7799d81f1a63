package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByIdentity retrieves a device by its identity.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByIdentity(ctx context.Context, identity Identity) (*Device, error)

	// ListByOwner retrieves all devices enrolled by the given owner.
	ListByOwner(ctx context.Context, owner string) ([]Device, error)

	// Create inserts a new device record.
	// Returns ErrDeviceExists if the identity is already enrolled.
	Create(ctx context.Context, device *Device) error

	// UpdateStatus changes a device's enrollment status and refreshes the
	// last-updated timestamp. Returns ErrDeviceNotFound if absent.
	UpdateStatus(ctx context.Context, identity Identity, status Status) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, type, name, owner, status, ownership, enrolled_at, last_updated_at`

// GetByIdentity retrieves a device by its identity.
func (r *SQLiteRepository) GetByIdentity(ctx context.Context, identity Identity) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ? AND type = ?`

	row := r.db.QueryRowContext(ctx, query, identity.ID, identity.Type)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by identity: %w", err)
	}
	return device, nil
}

// ListByOwner retrieves all devices enrolled by the given owner.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE owner = ? ORDER BY enrolled_at`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("querying devices by owner: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// Create inserts a new device record.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		device.Identity.ID,
		device.Identity.Type,
		device.Name,
		device.Enrollment.Owner,
		string(device.Enrollment.Status),
		string(device.Enrollment.Ownership),
		device.Enrollment.EnrolledAt.UTC().Format(time.RFC3339),
		device.Enrollment.LastUpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// UpdateStatus changes a device's enrollment status.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, identity Identity, status Status) error {
	query := `
		UPDATE devices
		SET status = ?, last_updated_at = ?
		WHERE id = ? AND type = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		identity.ID,
		identity.Type,
	)
	if err != nil {
		return fmt.Errorf("updating device status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanDevice.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row in deviceColumns order.
func scanDevice(row rowScanner) (*Device, error) {
	var (
		d                        Device
		status, ownership        string
		enrolledAt, lastUpdateAt string
	)

	err := row.Scan(
		&d.Identity.ID,
		&d.Identity.Type,
		&d.Name,
		&d.Enrollment.Owner,
		&status,
		&ownership,
		&enrolledAt,
		&lastUpdateAt,
	)
	if err != nil {
		return nil, err
	}

	d.Enrollment.Status = Status(status)
	d.Enrollment.Ownership = Ownership(ownership)

	// Timestamps are written by us in RFC3339; a parse failure means the
	// row was tampered with, surface it rather than guessing.
	if d.Enrollment.EnrolledAt, err = time.Parse(time.RFC3339, enrolledAt); err != nil {
		return nil, fmt.Errorf("parsing enrolled_at: %w", err)
	}
	if d.Enrollment.LastUpdatedAt, err = time.Parse(time.RFC3339, lastUpdateAt); err != nil {
		return nil, fmt.Errorf("parsing last_updated_at: %w", err)
	}

	return &d, nil
}

// isUniqueViolation reports whether err is a SQLite primary-key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// mattn/go-sqlite3 returns sqlite3.Error; matching on the message keeps
	// this repository free of a direct driver dependency.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
