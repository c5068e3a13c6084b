package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/graft-pt/graft/internal/dbinterface"
)

// SettingsStore is a minimal key/value table for operator-facing toggles
// (e.g. a global reseed pause flag) — not a schema-version marker, which
// the migrations table already covers.
type SettingsStore struct {
	db dbinterface.Querier
}

func NewSettingsStore(db dbinterface.Querier) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapIndexIO("SettingsStore.Get", err)
	}
	return value, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return wrapIndexIO("SettingsStore.Set", err)
	}
	return nil
}
