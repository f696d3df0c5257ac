package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fragmede/corebalance/internal/identity"
)

const sessionKey = "auth.session"

// LoadSession returns the persisted provider session, or nil if none is stored.
func (d *DB) LoadSession(ctx context.Context) (*identity.Session, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, sessionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s identity.Session
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil, nil
	}
	return &s, nil
}

// SaveSession persists the provider session, replacing any previous one.
func (d *DB) SaveSession(ctx context.Context, s *identity.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = d.db.ExecContext(ctx, `INSERT OR REPLACE INTO session (key, value, updated_at) VALUES (?, ?, ?)`,
		sessionKey, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// ClearSession removes the persisted provider session.
func (d *DB) ClearSession(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, sessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
