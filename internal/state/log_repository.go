package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteLogRepository is the durable LogSink backed by the adr_log table.
type SQLiteLogRepository struct {
	db *sql.DB
}

// NewSQLiteLogRepository creates a repository over a migrated database.
func NewSQLiteLogRepository(db *sql.DB) *SQLiteLogRepository {
	return &SQLiteLogRepository{db: db}
}

// AppendLog inserts one entry.
func (r *SQLiteLogRepository) AppendLog(ctx context.Context, unit string, e Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO adr_log (unit, logged_at, message) VALUES (?, ?, ?)`,
		unit, e.Time.UTC().Format(time.RFC3339Nano), e.Message)
	if err != nil {
		return fmt.Errorf("appending log entry: %w", err)
	}
	return nil
}

// ReadLog returns every entry of unit in insertion order.
func (r *SQLiteLogRepository) ReadLog(ctx context.Context, unit string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT logged_at, message FROM adr_log WHERE unit = ? ORDER BY id`, unit)
	if err != nil {
		return nil, fmt.Errorf("querying log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var stamp string
		var e Entry
		if err := rows.Scan(&stamp, &e.Message); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Time, err = time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("parsing log timestamp %q: %w", stamp, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating log: %w", err)
	}
	return entries, nil
}
