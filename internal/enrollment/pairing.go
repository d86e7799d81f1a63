package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PairingRepository defines the interface for sensor/wearable pairing
// persistence. Pairings are keyed by (sense device, alert device, tenant).
type PairingRepository interface {
	// Pair creates or refreshes a pairing between a proximity sensor and
	// an alert wearable. An existing pairing keeps its trigger settings
	// but has its updated timestamp refreshed.
	Pair(ctx context.Context, pairing *Pairing) error

	// GetByAlertDevice retrieves the pairing that targets the given alert
	// wearable within a tenant. Returns ErrPairingNotFound if absent.
	GetByAlertDevice(ctx context.Context, alertDeviceID, tenant string) (*Pairing, error)

	// ListBySenseDevice retrieves all pairings originating from the given
	// proximity sensor within a tenant.
	ListBySenseDevice(ctx context.Context, senseDeviceID, tenant string) ([]Pairing, error)

	// UpdateAlertProperties changes the trigger range and alert duration
	// on the pairing that targets the given alert wearable.
	// Returns ErrPairingNotFound if no such pairing exists.
	UpdateAlertProperties(ctx context.Context, alertDeviceID, tenant string, triggerRange, alertDuration int) error
}

// SQLitePairingRepository implements PairingRepository using SQLite.
type SQLitePairingRepository struct {
	db *sql.DB
}

// NewSQLitePairingRepository creates a new SQLite-backed pairing repository.
func NewSQLitePairingRepository(db *sql.DB) *SQLitePairingRepository {
	return &SQLitePairingRepository{db: db}
}

const pairingColumns = `sense_device_id, alert_device_id, tenant, trigger_range, alert_duration, created_at, updated_at`

// Pair creates or refreshes a pairing.
func (r *SQLitePairingRepository) Pair(ctx context.Context, pairing *Pairing) error {
	now := time.Now().UTC().Format(time.RFC3339)

	// An upsert keeps re-pairing idempotent: the composite key already
	// identifies the relationship, so a repeat only bumps updated_at.
	query := `
		INSERT INTO device_pairings (` + pairingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sense_device_id, alert_device_id, tenant)
		DO UPDATE SET updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		pairing.SenseDeviceID,
		pairing.AlertDeviceID,
		pairing.Tenant,
		pairing.TriggerRange,
		pairing.AlertDuration,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upserting pairing: %w", err)
	}
	return nil
}

// GetByAlertDevice retrieves the pairing targeting an alert wearable.
func (r *SQLitePairingRepository) GetByAlertDevice(ctx context.Context, alertDeviceID, tenant string) (*Pairing, error) {
	query := `SELECT ` + pairingColumns + `
		FROM device_pairings WHERE alert_device_id = ? AND tenant = ?`

	row := r.db.QueryRowContext(ctx, query, alertDeviceID, tenant)
	pairing, err := scanPairing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPairingNotFound
		}
		return nil, fmt.Errorf("querying pairing by alert device: %w", err)
	}
	return pairing, nil
}

// ListBySenseDevice retrieves all pairings from a proximity sensor.
func (r *SQLitePairingRepository) ListBySenseDevice(ctx context.Context, senseDeviceID, tenant string) ([]Pairing, error) {
	query := `SELECT ` + pairingColumns + `
		FROM device_pairings WHERE sense_device_id = ? AND tenant = ? ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, senseDeviceID, tenant)
	if err != nil {
		return nil, fmt.Errorf("querying pairings by sense device: %w", err)
	}
	defer rows.Close()

	var pairings []Pairing
	for rows.Next() {
		pairing, err := scanPairing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pairing row: %w", err)
		}
		pairings = append(pairings, *pairing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pairing rows: %w", err)
	}
	return pairings, nil
}

// UpdateAlertProperties changes trigger settings on an existing pairing.
func (r *SQLitePairingRepository) UpdateAlertProperties(ctx context.Context, alertDeviceID, tenant string, triggerRange, alertDuration int) error {
	query := `
		UPDATE device_pairings
		SET trigger_range = ?, alert_duration = ?, updated_at = ?
		WHERE alert_device_id = ? AND tenant = ?`

	result, err := r.db.ExecContext(ctx, query,
		triggerRange,
		alertDuration,
		time.Now().UTC().Format(time.RFC3339),
		alertDeviceID,
		tenant,
	)
	if err != nil {
		return fmt.Errorf("updating pairing properties: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrPairingNotFound
	}
	return nil
}

// scanPairing scans a pairing row in pairingColumns order.
func scanPairing(row rowScanner) (*Pairing, error) {
	var (
		p                    Pairing
		createdAt, updatedAt string
	)

	err := row.Scan(
		&p.SenseDeviceID,
		&p.AlertDeviceID,
		&p.Tenant,
		&p.TriggerRange,
		&p.AlertDuration,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &p, nil
}
