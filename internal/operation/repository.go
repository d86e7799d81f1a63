package operation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository records dispatched operations and serves the per-device
// operation history.
type Repository interface {
	// Record persists a dispatched command.
	Record(ctx context.Context, cmd *Command) error

	// ListByDevice retrieves the operations sent to a device, newest first.
	ListByDevice(ctx context.Context, deviceID, deviceType string, limit int) ([]Command, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed operation log.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const defaultListLimit = 100

// Record persists a dispatched command.
func (r *SQLiteRepository) Record(ctx context.Context, cmd *Command) error {
	props, err := json.Marshal(cmd.Properties)
	if err != nil {
		return fmt.Errorf("encoding command properties: %w", err)
	}

	query := `
		INSERT INTO operations (id, code, type, enabled, payload, properties, device_id, device_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		cmd.ID,
		cmd.Code,
		string(cmd.Kind),
		cmd.Enabled,
		cmd.Payload,
		string(props),
		cmd.DeviceID,
		cmd.DeviceType,
		cmd.Status,
		cmd.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting operation: %w", err)
	}
	return nil
}

// ListByDevice retrieves the operations sent to a device, newest first.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID, deviceType string, limit int) ([]Command, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, code, type, enabled, payload, properties, device_id, device_type, status, created_at
		FROM operations
		WHERE device_id = ? AND device_type = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, deviceID, deviceType, limit)
	if err != nil {
		return nil, fmt.Errorf("querying operations: %w", err)
	}
	defer rows.Close()

	var commands []Command
	for rows.Next() {
		var (
			cmd       Command
			kind      string
			props     string
			createdAt string
		)
		if err := rows.Scan(
			&cmd.ID,
			&cmd.Code,
			&kind,
			&cmd.Enabled,
			&cmd.Payload,
			&props,
			&cmd.DeviceID,
			&cmd.DeviceType,
			&cmd.Status,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning operation row: %w", err)
		}

		cmd.Kind = Kind(kind)
		if err := json.Unmarshal([]byte(props), &cmd.Properties); err != nil {
			return nil, fmt.Errorf("decoding command properties: %w", err)
		}
		if cmd.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		commands = append(commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operation rows: %w", err)
	}
	return commands, nil
}
