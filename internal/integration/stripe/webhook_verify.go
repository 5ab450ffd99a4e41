package stripe

import (
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// VerifyWebhookEvent verifies an inbound webhook signature against each
// configured account's secret in turn. The first secret that verifies
// identifies the originating account.
func (c *Client) VerifyWebhookEvent(payload []byte, signature string) (*stripe.Event, string, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}

	for _, account := range c.cfg.Stripe.Accounts {
		event, err := webhook.ConstructEventWithOptions(payload, signature, account.WebhookSecret, options)
		if err == nil {
			return &event, account.Key, nil
		}
	}

	c.logger.Errorw("Stripe webhook verification failed for every configured account",
		"accounts", len(c.cfg.Stripe.Accounts),
	)
	return nil, "", ierr.NewError("failed to verify webhook signature").
		WithHint("Signature did not match any configured account secret").
		Mark(ierr.ErrPermissionDenied)
}
