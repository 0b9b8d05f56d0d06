package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore persists datasets in the datasets and dataset_rows tables.
//
// Thread Safety:
//   - Safe for concurrent use.
type SQLiteStore struct {
	db   *sql.DB
	unit string

	mu      sync.Mutex
	columns map[string]int
}

// NewSQLiteStore creates a store writing datasets for one ADR unit.
func NewSQLiteStore(db *sql.DB, unit string) *SQLiteStore {
	return &SQLiteStore{
		db:      db,
		unit:    unit,
		columns: make(map[string]int),
	}
}

// CreateDataset inserts a dataset and returns its generated ID.
func (s *SQLiteStore) CreateDataset(ctx context.Context, name, independent string, dependents []string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}

	deps, err := json.Marshal(dependents)
	if err != nil {
		return "", fmt.Errorf("encoding dependents: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, unit, name, independent, dependents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.unit, name, independent, string(deps), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("inserting dataset: %w", err)
	}

	s.mu.Lock()
	s.columns[id] = 1 + len(dependents)
	s.mu.Unlock()
	return id, nil
}

// AppendRow inserts one row. values holds the independent variable first.
func (s *SQLiteStore) AppendRow(ctx context.Context, handle string, at time.Time, values []float64) error {
	n, err := s.columnCount(ctx, handle)
	if err != nil {
		return err
	}
	if len(values) != n {
		return fmt.Errorf("%w: %d values for %d columns", ErrRowShape, len(values), n)
	}

	vals, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dataset_rows (dataset_id, recorded_at, vals) VALUES (?, ?, ?)`,
		handle, at.UTC().Format(time.RFC3339Nano), string(vals))
	if err != nil {
		return fmt.Errorf("inserting row: %w", err)
	}
	return nil
}

// columnCount returns the column count of a dataset, loading it from the
// database for datasets created by an earlier process.
func (s *SQLiteStore) columnCount(ctx context.Context, handle string) (int, error) {
	s.mu.Lock()
	n, ok := s.columns[handle]
	s.mu.Unlock()
	if ok {
		return n, nil
	}

	var deps string
	err := s.db.QueryRowContext(ctx,
		`SELECT dependents FROM datasets WHERE id = ?`, handle).Scan(&deps)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrDatasetNotFound, handle)
	}
	if err != nil {
		return 0, fmt.Errorf("loading dataset: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(deps), &names); err != nil {
		return 0, fmt.Errorf("decoding dependents: %w", err)
	}

	s.mu.Lock()
	s.columns[handle] = 1 + len(names)
	s.mu.Unlock()
	return 1 + len(names), nil
}
