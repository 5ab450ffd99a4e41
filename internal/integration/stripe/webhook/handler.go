package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/dedupe"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	integration "github.com/clubroll/clubroll/internal/integration/stripe"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/service"
	stripeapi "github.com/stripe/stripe-go/v82"
)

// Handler routes verified Stripe webhook events to the ledger and
// subscription sync paths. Delivery is at least once; every routed
// handler re-checks local state by external id before writing, and a
// processing failure returns an error so the processor redelivers.
type Handler struct {
	client  *integration.Client
	ledger  service.LedgerService
	sync    service.SubscriptionSyncService
	deduper dedupe.Deduper
	logger  *logger.Logger
}

// NewHandler creates a new Stripe webhook handler
func NewHandler(
	client *integration.Client,
	ledger service.LedgerService,
	sync service.SubscriptionSyncService,
	deduper dedupe.Deduper,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		client:  client,
		ledger:  ledger,
		sync:    sync,
		deduper: deduper,
		logger:  logger,
	}
}

// VerifyAndParse verifies the signature against each configured account
// secret and returns the event together with the originating account key.
func (h *Handler) VerifyAndParse(payload []byte, signature string) (*stripeapi.Event, string, error) {
	return h.client.VerifyWebhookEvent(payload, signature)
}

// HandleEvent processes one verified webhook event.
func (h *Handler) HandleEvent(ctx context.Context, event *stripeapi.Event, accountKey string) error {
	seen, err := h.deduper.Seen(ctx, event.ID)
	if err != nil {
		// Losing the dedupe state is safe; every handler is idempotent.
		h.logger.Warnw("dedupe lookup failed, processing anyway",
			"error", err,
			"event_id", event.ID,
		)
	} else if seen {
		h.logger.Infow("skipping already-processed webhook event",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return nil
	}

	h.logger.Infow("processing Stripe webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
		"account_key", accountKey,
	)

	switch string(event.Type) {
	case "invoice.payment_succeeded", "invoice.paid":
		err = h.handleInvoicePaid(ctx, event, accountKey)
	case "invoice.payment_failed":
		err = h.handleInvoiceFailed(ctx, event, accountKey)
	case "customer.subscription.created", "customer.subscription.updated":
		err = h.handleSubscriptionChanged(ctx, event)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(ctx, event)
	case "checkout.session.async_payment_succeeded":
		err = h.handleAsyncPaymentSucceeded(ctx, event)
	default:
		h.logger.Infow("unhandled Stripe webhook event type", "type", event.Type)
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := h.deduper.MarkProcessed(ctx, event.ID); err != nil {
		h.logger.Warnw("failed to record processed webhook event",
			"error", err,
			"event_id", event.ID,
		)
	}
	return nil
}

func (h *Handler) handleInvoicePaid(ctx context.Context, event *stripeapi.Event, accountKey string) error {
	stripeInvoice, err := parseInvoice(event)
	if err != nil {
		return err
	}

	providerInvoice := integration.InvoiceFromStripe(stripeInvoice)

	if _, err := h.sync.UpsertInvoice(ctx, providerInvoice); err != nil {
		return err
	}

	if providerInvoice.ProviderSubscriptionID == "" {
		h.logger.Infow("paid invoice has no subscription, ledger untouched",
			"invoice_id", providerInvoice.ProviderInvoiceID,
		)
		return nil
	}

	req, subID, err := h.paymentRequest(ctx, providerInvoice, accountKey)
	if err != nil || req == nil {
		return err
	}
	req.Description = fmt.Sprintf("membership payment for invoice %s", providerInvoice.ProviderInvoiceID)

	if _, err := h.ledger.PersistSuccessfulPayment(ctx, *req); err != nil {
		return err
	}
	return h.sync.ActivateOnPayment(ctx, subID)
}

func (h *Handler) handleInvoiceFailed(ctx context.Context, event *stripeapi.Event, accountKey string) error {
	stripeInvoice, err := parseInvoice(event)
	if err != nil {
		return err
	}

	providerInvoice := integration.InvoiceFromStripe(stripeInvoice)

	if _, err := h.sync.UpsertInvoice(ctx, providerInvoice); err != nil {
		return err
	}
	if providerInvoice.ProviderSubscriptionID == "" {
		return nil
	}

	req, _, err := h.paymentRequest(ctx, providerInvoice, accountKey)
	if err != nil || req == nil {
		return err
	}
	req.Description = fmt.Sprintf("failed payment for invoice %s", providerInvoice.ProviderInvoiceID)
	req.Reason = "invoice payment failed"

	_, err = h.ledger.PersistFailedPayment(ctx, *req)
	return err
}

func (h *Handler) handleSubscriptionChanged(ctx context.Context, event *stripeapi.Event) error {
	var stripeSub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid subscription data in webhook").
			Mark(ierr.ErrValidation)
	}
	return h.sync.SyncSubscriptionState(ctx, integration.SubscriptionStateFromStripe(&stripeSub))
}

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, event *stripeapi.Event) error {
	var stripeSub stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid subscription data in webhook").
			Mark(ierr.ErrValidation)
	}
	return h.sync.MarkSubscriptionCancelled(ctx, stripeSub.ID)
}

// handleAsyncPaymentSucceeded activates a subscription whose checkout
// settled through a delayed payment method.
func (h *Handler) handleAsyncPaymentSucceeded(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid checkout session data in webhook").
			Mark(ierr.ErrValidation)
	}

	providerSubscriptionID := ""
	if session.Subscription != nil {
		providerSubscriptionID = session.Subscription.ID
	}
	if providerSubscriptionID == "" {
		providerSubscriptionID = session.Metadata["subscription_id"]
	}
	if providerSubscriptionID == "" {
		h.logger.Warnw("async payment session names no subscription",
			"session_id", session.ID,
		)
		return nil
	}

	err := h.ledger.ActivateFromAsyncPayment(ctx, providerSubscriptionID)
	if ierr.IsNotFound(err) {
		h.logger.Infow("ignoring async payment for unknown subscription",
			"provider_subscription_id", providerSubscriptionID,
		)
		return nil
	}
	return err
}

// paymentRequest builds the ledger request for an invoice event. Events
// for unknown subscriptions are dropped with a nil request, not an error.
func (h *Handler) paymentRequest(ctx context.Context, providerInvoice *provider.Invoice, accountKey string) (*dto.RecordPaymentRequest, string, error) {
	sub, err := h.sync.ResolveByProviderID(ctx, providerInvoice.ProviderSubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			h.logger.Infow("ignoring invoice event for unknown subscription",
				"provider_subscription_id", providerInvoice.ProviderSubscriptionID,
				"invoice_id", providerInvoice.ProviderInvoiceID,
			)
			return nil, "", nil
		}
		return nil, "", err
	}

	currency := providerInvoice.Currency
	if currency == "" {
		currency = sub.Currency
	}

	return &dto.RecordPaymentRequest{
		ProviderInvoiceID: providerInvoice.ProviderInvoiceID,
		SubscriptionID:    sub.ID,
		UserID:            sub.UserID,
		Amount:            providerInvoice.Total,
		Currency:          currency,
		RoutedEntity:      accountKey,
	}, sub.ID, nil
}

func parseInvoice(event *stripeapi.Event) (*stripeapi.Invoice, error) {
	var stripeInvoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &stripeInvoice); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid invoice data in webhook").
			Mark(ierr.ErrValidation)
	}
	return &stripeInvoice, nil
}
