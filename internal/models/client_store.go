package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/graft-pt/graft/internal/dbinterface"
	"github.com/graft-pt/graft/internal/graft"
)

// ClientStore persists configured download clients.
type ClientStore struct {
	db dbinterface.Querier
}

func NewClientStore(db dbinterface.Querier) *ClientStore {
	return &ClientStore{db: db}
}

func (s *ClientStore) Create(ctx context.Context, c *Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, variant, host, port, username, password_encrypted, https, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, string(c.Variant), c.Host, c.Port, c.Username, c.PasswordEncrypted, c.HTTPS, c.Enabled)
	if err != nil {
		return wrapIndexIO("ClientStore.Create", err)
	}
	return nil
}

func (s *ClientStore) Get(ctx context.Context, id string) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, variant, host, port, username, password_encrypted, https, enabled, created_at, updated_at
		FROM clients WHERE id = ?
	`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graft.New(graft.KindNotFound, "ClientStore.Get", err)
	}
	if err != nil {
		return nil, wrapIndexIO("ClientStore.Get", err)
	}
	return c, nil
}

func (s *ClientStore) List(ctx context.Context) ([]*Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, variant, host, port, username, password_encrypted, https, enabled, created_at, updated_at
		FROM clients ORDER BY name
	`)
	if err != nil {
		return nil, wrapIndexIO("ClientStore.List", err)
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, wrapIndexIO("ClientStore.List", err)
		}
		out = append(out, c)
	}
	return out, wrapIndexIO("ClientStore.List", rows.Err())
}

func (s *ClientStore) Update(ctx context.Context, c *Client) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, variant = ?, host = ?, port = ?, username = ?, password_encrypted = ?,
		    https = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, c.Name, string(c.Variant), c.Host, c.Port, c.Username, c.PasswordEncrypted, c.HTTPS, c.Enabled, c.ID)
	if err != nil {
		return wrapIndexIO("ClientStore.Update", err)
	}
	return nil
}

func (s *ClientStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return wrapIndexIO("ClientStore.Delete", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*Client, error) {
	var c Client
	var variant string
	if err := row.Scan(&c.ID, &c.Name, &variant, &c.Host, &c.Port, &c.Username, &c.PasswordEncrypted,
		&c.HTTPS, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Variant = ClientType(variant)
	return &c, nil
}
