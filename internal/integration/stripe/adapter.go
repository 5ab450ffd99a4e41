package stripe

import (
	"context"
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// Adapter implements the processor adapter on top of the Stripe API.
type Adapter struct {
	client *Client
	logger *logger.Logger
}

// NewAdapter creates a new Stripe-backed processor adapter
func NewAdapter(client *Client, logger *logger.Logger) *Adapter {
	return &Adapter{
		client: client,
		logger: logger,
	}
}

func (a *Adapter) GetSubscription(ctx context.Context, accountKey, providerSubscriptionID string) (*provider.SubscriptionState, error) {
	stripeClient, err := a.client.ForAccount(accountKey)
	if err != nil {
		return nil, err
	}

	stripeSub, err := stripeClient.V1Subscriptions.Retrieve(ctx, providerSubscriptionID, nil)
	if err != nil {
		a.logger.Errorw("failed to retrieve subscription from Stripe",
			"error", err,
			"account_key", accountKey,
			"subscription_id", providerSubscriptionID,
		)
		return nil, ierr.WithError(err).
			WithHint("Could not fetch subscription from Stripe").
			WithReportableDetails(map[string]any{
				"subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrIntegration)
	}

	return SubscriptionStateFromStripe(stripeSub), nil
}

func (a *Adapter) PauseCollection(ctx context.Context, accountKey, providerSubscriptionID string, behavior types.PauseBehavior) error {
	stripeClient, err := a.client.ForAccount(accountKey)
	if err != nil {
		return err
	}

	params := &stripe.SubscriptionUpdateParams{
		PauseCollection: &stripe.SubscriptionUpdatePauseCollectionParams{
			Behavior: stripe.String(behavior.String()),
		},
	}

	_, err = stripeClient.V1Subscriptions.Update(ctx, providerSubscriptionID, params)
	if err != nil {
		a.logger.Errorw("failed to pause collection on Stripe",
			"error", err,
			"account_key", accountKey,
			"subscription_id", providerSubscriptionID,
			"behavior", behavior,
		)
		return ierr.WithError(err).
			WithHint("Could not suspend collection on Stripe").
			WithReportableDetails(map[string]any{
				"subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrIntegration)
	}

	return nil
}

func (a *Adapter) ResumeCollection(ctx context.Context, accountKey, providerSubscriptionID string) error {
	stripeClient, err := a.client.ForAccount(accountKey)
	if err != nil {
		return err
	}

	// Clearing pause_collection requires sending the key with an empty
	// value; the typed params cannot express that.
	params := &stripe.SubscriptionUpdateParams{}
	params.AddExtra("pause_collection", "")

	_, err = stripeClient.V1Subscriptions.Update(ctx, providerSubscriptionID, params)
	if err != nil {
		a.logger.Errorw("failed to resume collection on Stripe",
			"error", err,
			"account_key", accountKey,
			"subscription_id", providerSubscriptionID,
		)
		return ierr.WithError(err).
			WithHint("Could not resume collection on Stripe").
			WithReportableDetails(map[string]any{
				"subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrIntegration)
	}

	return nil
}

func (a *Adapter) ListOpenInvoices(ctx context.Context, accountKey, providerSubscriptionID string) ([]*provider.Invoice, error) {
	stripeClient, err := a.client.ForAccount(accountKey)
	if err != nil {
		return nil, err
	}

	params := &stripe.InvoiceListParams{
		Subscription: stripe.String(providerSubscriptionID),
		Status:       stripe.String(string(stripe.InvoiceStatusOpen)),
	}

	var invoices []*provider.Invoice
	for stripeInvoice, err := range stripeClient.V1Invoices.List(ctx, params) {
		if err != nil {
			a.logger.Errorw("failed to list invoices from Stripe",
				"error", err,
				"account_key", accountKey,
				"subscription_id", providerSubscriptionID,
			)
			return nil, ierr.WithError(err).
				WithHint("Could not list invoices from Stripe").
				WithReportableDetails(map[string]any{
					"subscription_id": providerSubscriptionID,
				}).
				Mark(ierr.ErrIntegration)
		}
		invoices = append(invoices, InvoiceFromStripe(stripeInvoice))
	}

	return invoices, nil
}

func (a *Adapter) VoidInvoice(ctx context.Context, accountKey, providerInvoiceID string) error {
	stripeClient, err := a.client.ForAccount(accountKey)
	if err != nil {
		return err
	}

	_, err = stripeClient.V1Invoices.VoidInvoice(ctx, providerInvoiceID, &stripe.InvoiceVoidInvoiceParams{})
	if err != nil {
		a.logger.Errorw("failed to void invoice on Stripe",
			"error", err,
			"account_key", accountKey,
			"invoice_id", providerInvoiceID,
		)
		return ierr.WithError(err).
			WithHint("Could not void invoice on Stripe").
			WithReportableDetails(map[string]any{
				"invoice_id": providerInvoiceID,
			}).
			Mark(ierr.ErrIntegration)
	}

	return nil
}

func (a *Adapter) PayInvoice(ctx context.Context, accountKey, providerInvoiceID string) error {
	stripeClient, err := a.client.ForAccount(accountKey)
	if err != nil {
		return err
	}

	_, err = stripeClient.V1Invoices.Pay(ctx, providerInvoiceID, &stripe.InvoicePayParams{})
	if err != nil {
		a.logger.Errorw("failed to pay invoice on Stripe",
			"error", err,
			"account_key", accountKey,
			"invoice_id", providerInvoiceID,
		)
		return ierr.WithError(err).
			WithHint("Could not pay invoice on Stripe").
			WithReportableDetails(map[string]any{
				"invoice_id": providerInvoiceID,
			}).
			Mark(ierr.ErrIntegration)
	}

	return nil
}

// SubscriptionStateFromStripe maps a Stripe subscription onto the
// processor-neutral state shape.
func SubscriptionStateFromStripe(stripeSub *stripe.Subscription) *provider.SubscriptionState {
	state := &provider.SubscriptionState{
		ProviderSubscriptionID: stripeSub.ID,
		Status:                 string(stripeSub.Status),
		PauseCollectionActive:  stripeSub.PauseCollection != nil && stripeSub.PauseCollection.Behavior != "",
		CancelAtPeriodEnd:      stripeSub.CancelAtPeriodEnd,
	}

	if stripeSub.Customer != nil {
		state.ProviderCustomerID = stripeSub.Customer.ID
	}
	if stripeSub.CanceledAt != 0 {
		cancelledAt := time.Unix(stripeSub.CanceledAt, 0).UTC()
		state.CancelledAt = &cancelledAt
	}
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 {
		item := stripeSub.Items.Data[0]
		if item.CurrentPeriodStart != 0 {
			start := time.Unix(item.CurrentPeriodStart, 0).UTC()
			state.CurrentPeriodStart = &start
		}
		if item.CurrentPeriodEnd != 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			state.CurrentPeriodEnd = &end
		}
	}

	return state
}

// InvoiceFromStripe maps a Stripe invoice onto the processor-neutral
// invoice shape. Amounts arrive in minor units.
func InvoiceFromStripe(stripeInvoice *stripe.Invoice) *provider.Invoice {
	inv := &provider.Invoice{
		ProviderInvoiceID: stripeInvoice.ID,
		Status:            string(stripeInvoice.Status),
		Total:             decimal.NewFromInt(stripeInvoice.Total).Div(decimal.NewFromInt(100)),
		Currency:          string(stripeInvoice.Currency),
	}

	if stripeInvoice.Parent != nil &&
		stripeInvoice.Parent.SubscriptionDetails != nil &&
		stripeInvoice.Parent.SubscriptionDetails.Subscription != nil {
		inv.ProviderSubscriptionID = stripeInvoice.Parent.SubscriptionDetails.Subscription.ID
	}
	if stripeInvoice.PeriodStart != 0 {
		start := time.Unix(stripeInvoice.PeriodStart, 0).UTC()
		inv.PeriodStart = &start
	}
	if stripeInvoice.PeriodEnd != 0 {
		end := time.Unix(stripeInvoice.PeriodEnd, 0).UTC()
		inv.PeriodEnd = &end
	}

	return inv
}
