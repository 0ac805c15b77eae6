package auth

import (
	"context"
	"database/sql"
	"errors"
)

// Account is an operator of the sync worker's read-only API. Accounts
// live in the source MySQL database alongside the pending-events table.
type Account struct {
	ID           string
	PasswordHash string
	Role         string
	IsDisabled   bool
	CreatedAt    string
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) (int64, error)
}

type Store struct{ conn *sql.DB }

func NewStore(conn *sql.DB) AccountStore {
	return &Store{conn: conn}
}

func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `
SELECT id, password_hash, role, is_disabled, created_at
FROM sync_accounts
WHERE id = ?
LIMIT 1
`
	var a Account
	var isDisabledInt int
	err := s.conn.QueryRowContext(ctx, q, id).Scan(
		&a.ID,
		&a.PasswordHash,
		&a.Role,
		&isDisabledInt,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.IsDisabled = isDisabledInt != 0
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO sync_accounts (id, password_hash, role, is_disabled, created_at)
VALUES (?, ?, ?, 0, NOW(6))
`
	_, err := s.conn.ExecContext(ctx, q, a.ID, a.PasswordHash, a.Role)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	const q = `DELETE FROM sync_accounts WHERE id = ?`
	res, err := s.conn.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
