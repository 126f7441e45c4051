// Package journal keeps a local record of every booking attempt.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded booking attempt.
type Entry struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	SlotStart time.Time `json:"-"`
	SlotEnd   time.Time `json:"-"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DB wraps sql.DB for the attempt journal.
type DB struct {
	*sql.DB
}

// Open opens the journal database at path and creates its tables.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_attempts (
            id TEXT PRIMARY KEY,
            profile_id TEXT NOT NULL,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            slot_start DATETIME NOT NULL,
            slot_end DATETIME NOT NULL,
            status TEXT NOT NULL,
            error TEXT,
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_booking_attempts_created ON booking_attempts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_attempts_status ON booking_attempts(status)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Record stores an attempt. Recording the same id twice keeps the latest status.
func (db *DB) Record(ctx context.Context, e Entry) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO booking_attempts (id, profile_id, name, email, slot_start, slot_end, status, error, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET status = excluded.status, error = excluded.error`,
		e.ID, e.ProfileID, e.Name, e.Email,
		e.SlotStart.UTC(), e.SlotEnd.UTC(), e.Status, nullString(e.Error), e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record attempt %s: %w", e.ID, err)
	}
	return nil
}

// List returns attempts created at or after since, newest first.
// An empty status matches every status.
func (db *DB) List(ctx context.Context, since time.Time, status string) ([]Entry, error) {
	query := `SELECT id, profile_id, name, email, slot_start, slot_end, status, error, created_at
        FROM booking_attempts WHERE created_at >= ?`
	args := []any{since.UTC()}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Name, &e.Email, &e.SlotStart, &e.SlotEnd, &e.Status, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		e.Error = errText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes attempts older than the retention window.
func (db *DB) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM booking_attempts WHERE created_at < ?`, time.Now().Add(-olderThan).UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old attempts: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
