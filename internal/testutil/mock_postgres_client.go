package testutil

import (
	"context"

	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient is a mock implementation of the postgres client for
// testing. Repositories under test are in-memory, so WithTx just runs the
// callback without a real transaction.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{logger: logger}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// GetQuerier returns nil; in-memory repositories never query it
func (c *MockPostgresClient) GetQuerier(ctx context.Context) postgres.Querier {
	return nil
}
