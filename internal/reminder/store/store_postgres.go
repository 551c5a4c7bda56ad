package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
)

// PostgresStore persists reminders in PostgreSQL. Row-level locking in
// Postgres provides the single-writer-per-row guarantee the pipeline's
// status gating depends on.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed reminder store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is applied by the composition root at startup. Kept here so the
// store and its table definition evolve together.
const Schema = `
CREATE TABLE IF NOT EXISTS reminders (
	id            BIGSERIAL PRIMARY KEY,
	device_id     TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	radius_m      DOUBLE PRECISION NOT NULL,
	geofence_type TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'PENDING',
	priority      TEXT NOT NULL DEFAULT 'MEDIUM',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS reminders_device_created_idx
	ON reminders (device_id, created_at DESC);
`

const reminderColumns = `id, device_id, title, description, address,
	latitude, longitude, radius_m, geofence_type, status, priority,
	created_at, completed_at`

func (s *PostgresStore) Get(ctx context.Context, id int64) (models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	r, err := scanReminder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reminder{}, ErrNotFound
		}
		return models.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, deviceID string) ([]models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE ($1 = '' OR device_id = $1)
		ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, reminder models.Reminder) (int64, error) {
	query := `
		INSERT INTO reminders (
			device_id, title, description, address,
			latitude, longitude, radius_m, geofence_type,
			status, priority, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		reminder.DeviceID,
		reminder.Title,
		reminder.Description,
		reminder.Address,
		reminder.Latitude,
		reminder.Longitude,
		reminder.RadiusM,
		string(reminder.Type),
		string(reminder.Status),
		string(reminder.Priority),
		reminder.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert reminder: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, reminder models.Reminder) error {
	query := `
		UPDATE reminders SET
			title = $2, description = $3, address = $4,
			latitude = $5, longitude = $6, radius_m = $7,
			geofence_type = $8, priority = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.Title,
		reminder.Description,
		reminder.Address,
		reminder.Latitude,
		reminder.Longitude,
		reminder.RadiusM,
		string(reminder.Type),
		string(reminder.Priority),
	)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status models.ReminderStatus, completedAt *time.Time) error {
	// COALESCE keeps the first completed_at; redelivered completes are
	// idempotent at the row level.
	query := `
		UPDATE reminders
		SET status = $2, completed_at = COALESCE(completed_at, $3)
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, string(status), completedAt)
	if err != nil {
		return fmt.Errorf("update reminder status: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (models.Reminder, error) {
	var (
		r           models.Reminder
		geofence    string
		status      string
		priority    string
		completedAt sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.DeviceID, &r.Title, &r.Description, &r.Address,
		&r.Latitude, &r.Longitude, &r.RadiusM, &geofence, &status,
		&priority, &r.CreatedAt, &completedAt,
	)
	if err != nil {
		return models.Reminder{}, err
	}
	r.Type = models.GeofenceType(geofence)
	r.Status = models.ReminderStatus(status)
	r.Priority = models.Priority(priority)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return r, nil
}
