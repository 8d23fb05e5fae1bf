package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// ListCatalogRows returns every medical_catalog row in insertion order
func (db *DB) ListCatalogRows(ctx context.Context) ([]CatalogRow, error) {
	query := `
		SELECT symptom, possible_diseases, treatment
		FROM medical_catalog
		ORDER BY id ASC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog rows: %w", err)
	}
	defer rows.Close()

	out := make([]CatalogRow, 0)
	for rows.Next() {
		var r CatalogRow
		if err := rows.Scan(&r.Symptom, &r.Diseases, &r.Treatment); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog rows: %w", err)
	}

	return out, nil
}

// SaveReminder inserts a reminder
func (db *DB) SaveReminder(ctx context.Context, r *Reminder) error {
	query := `
		INSERT INTO reminders (id, session_id, message, sound_ref, time_of_day, due_at, fired)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at
	`

	err := db.QueryRowContext(ctx, query,
		r.ID, r.SessionID, r.Message, r.SoundRef, r.TimeOfDay, r.DueAt, r.Fired,
	).Scan(&r.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	return nil
}

// ListPendingReminders returns reminders that have not fired, soonest first
func (db *DB) ListPendingReminders(ctx context.Context) ([]Reminder, error) {
	query := `
		SELECT id, session_id, message, sound_ref, time_of_day, due_at, fired, created_at
		FROM reminders
		WHERE fired = FALSE
		ORDER BY due_at ASC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]Reminder, 0)
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Message, &r.SoundRef,
			&r.TimeOfDay, &r.DueAt, &r.Fired, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}

	return reminders, nil
}

// MarkReminderFired flags a reminder as delivered
func (db *DB) MarkReminderFired(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `UPDATE reminders SET fired = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder fired: %w", err)
	}
	return expectOneRow(res)
}

// DeleteReminder removes a reminder
func (db *DB) DeleteReminder(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
