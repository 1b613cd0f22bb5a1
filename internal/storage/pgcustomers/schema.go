package pgcustomers

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS tour_lists (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  pickup_weekdays JSONB NOT NULL DEFAULT '[]',
  cycle_weeks INT NOT NULL DEFAULT 1,
  anchor TIMESTAMPTZ NULL,
  delivery_offset_days INT NOT NULL DEFAULT 0,
  appointment_dates JSONB NOT NULL DEFAULT '[]',
  vacation JSONB NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  list_id TEXT NULL REFERENCES tour_lists(id) ON DELETE SET NULL,
  intervals JSONB NOT NULL DEFAULT '[]',
  delivery_offset_days INT NOT NULL DEFAULT 0,
  pickup_weekdays JSONB NOT NULL DEFAULT '[]',
  appointments JSONB NOT NULL DEFAULT '[]',
  shifts JSONB NOT NULL DEFAULT '[]',
  deletions JSONB NOT NULL DEFAULT '[]',
  vacation JSONB NULL,
  pickup JSONB NOT NULL DEFAULT '{}',
  delivery JSONB NOT NULL DEFAULT '{}',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_list_id ON customers(list_id)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
