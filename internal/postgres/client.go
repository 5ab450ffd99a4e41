package postgres

import (
	"context"
)

// IClient is the narrow surface repositories and services depend on.
// Transactions are carried in the context so that multi-row corrections
// (e.g. subscription + membership) commit atomically.
type IClient interface {
	GetQuerier(ctx context.Context) Querier
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewClient creates a new IClient backed by the given DB
func NewClient(db *DB) IClient {
	return db
}
