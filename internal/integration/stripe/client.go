package stripe

import (
	"github.com/clubroll/clubroll/internal/config"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client holds one configured Stripe API client per processor account.
type Client struct {
	cfg     *config.Configuration
	clients map[string]*stripe.Client
	logger  *logger.Logger
}

// NewClient creates a new Stripe client
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	clients := make(map[string]*stripe.Client, len(cfg.Stripe.Accounts))
	for _, account := range cfg.Stripe.Accounts {
		clients[account.Key] = stripe.NewClient(account.SecretKey, nil)
	}
	return &Client{
		cfg:     cfg,
		clients: clients,
		logger:  logger,
	}
}

// ForAccount returns the Stripe client of the given processor account.
func (c *Client) ForAccount(accountKey string) (*stripe.Client, error) {
	client, ok := c.clients[accountKey]
	if !ok {
		return nil, ierr.NewError("unknown processor account").
			WithHint("No Stripe account configured with this key").
			WithReportableDetails(map[string]any{
				"account_key": accountKey,
			}).
			Mark(ierr.ErrNotFound)
	}
	return client, nil
}

// Accounts returns the configured processor accounts.
func (c *Client) Accounts() []config.StripeAccount {
	return c.cfg.Stripe.Accounts
}
