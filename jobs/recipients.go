package jobs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-hq/vantage/internal/shared"
)

// PGRecipientFinder resolves welcome email recipients straight from storage.
// The worker process does not carry the full users module.
type PGRecipientFinder struct {
	pool *pgxpool.Pool
}

// NewPGRecipientFinder constructs a recipient finder backed by Postgres.
func NewPGRecipientFinder(pool *pgxpool.Pool) *PGRecipientFinder {
	return &PGRecipientFinder{pool: pool}
}

// FindRecipient returns shared.ErrNotFound when the user row is gone.
func (f *PGRecipientFinder) FindRecipient(ctx context.Context, userID int64) (*WelcomeRecipient, error) {
	var recipient WelcomeRecipient
	err := f.pool.QueryRow(ctx,
		`SELECT name, email FROM users WHERE id = $1`, userID,
	).Scan(&recipient.Name, &recipient.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &recipient, nil
}
