package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/pw-import/internal/domain"
)

// DefaultCursorName identifies the master data file's cursor row.
const DefaultCursorName = "master_data"

// Seed supplies the resume date before the cursor has been written once.
type Seed interface {
	LastDate(ctx context.Context) (time.Time, error)
}

// CursorStore persists the last processed date so a run can resume without
// scanning the output file.
type CursorStore struct {
	db   *sql.DB
	name string
	seed Seed
}

// NewCursorStore creates a cursor backed by db. seed is consulted only while
// no cursor row exists yet; it may be nil.
func NewCursorStore(db *sql.DB, name string, seed Seed) *CursorStore {
	return &CursorStore{db: db, name: name, seed: seed}
}

// LastDate returns the last processed date.
func (s *CursorStore) LastDate(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT last_date FROM cursor WHERE name = ?`, s.name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		if s.seed == nil {
			return time.Time{}, fmt.Errorf("cursor %q: %w", s.name, err)
		}
		return s.seed.LastDate(ctx)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read cursor %q: %w", s.name, err)
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("cursor %q: %w", s.name, err)
	}
	return t, nil
}

// Advance records date as the last processed date.
func (s *CursorStore) Advance(ctx context.Context, date time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursor (name, last_date, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET last_date = excluded.last_date, updated_at = excluded.updated_at`,
		s.name, domain.DateKey(date), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("advance cursor %q: %w", s.name, err)
	}
	return nil
}
