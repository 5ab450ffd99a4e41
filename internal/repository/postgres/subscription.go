package postgres

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/cache"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger, cache: cache}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id,
			user_id,
			account_key,
			provider_subscription_id,
			provider_customer_id,
			plan_name,
			monthly_price,
			currency,
			subscription_status,
			current_period_start,
			current_period_end,
			next_billing_date,
			cancel_at_period_end,
			cancelled_at,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:user_id,
			:account_key,
			:provider_subscription_id,
			:provider_customer_id,
			:plan_name,
			:monthly_price,
			:currency,
			:subscription_status,
			:current_period_start,
			:current_period_end,
			:next_billing_date,
			:cancel_at_period_end,
			:cancelled_at,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this provider id already exists").
				WithReportableDetails(map[string]any{
					"provider_subscription_id": sub.ProviderSubscriptionID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	if cached := r.getCache(ctx, id); cached != nil {
		return cached, nil
	}

	query := `
		SELECT * FROM subscriptions
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	var sub subscription.Subscription
	if err := rows.StructScan(&sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan subscription").
			Mark(ierr.ErrDatabase)
	}
	r.setCache(ctx, &sub)
	return &sub, nil
}

func (r *subscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	if cached := r.getCacheByProviderID(ctx, providerSubscriptionID); cached != nil {
		return cached, nil
	}

	query := `
		SELECT * FROM subscriptions
		WHERE provider_subscription_id = :provider_subscription_id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"provider_subscription_id": providerSubscriptionID,
		"tenant_id":                types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription by provider id").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription is linked to this provider subscription id").
			WithReportableDetails(map[string]any{
				"provider_subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrNotFound)
	}

	var sub subscription.Subscription
	if err := rows.StructScan(&sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan subscription").
			Mark(ierr.ErrDatabase)
	}
	r.setCache(ctx, &sub)
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE subscriptions SET
			plan_name = :plan_name,
			monthly_price = :monthly_price,
			currency = :currency,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			next_billing_date = :next_billing_date,
			cancel_at_period_end = :cancel_at_period_end,
			cancelled_at = :cancelled_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	result, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			WithReportableDetails(map[string]any{"id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	r.deleteCache(ctx, sub)
	return nil
}

func (r *subscriptionRepository) ListByAccountKey(ctx context.Context, accountKey string) ([]*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE account_key = :account_key AND tenant_id = :tenant_id
		ORDER BY id
	`
	return r.list(ctx, query, map[string]interface{}{
		"account_key": accountKey,
		"tenant_id":   types.GetTenantID(ctx),
	})
}

func (r *subscriptionRepository) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE subscription_status = :subscription_status AND tenant_id = :tenant_id
		ORDER BY id
	`
	return r.list(ctx, query, map[string]interface{}{
		"subscription_status": status,
		"tenant_id":           types.GetTenantID(ctx),
	})
}

func (r *subscriptionRepository) list(ctx context.Context, query string, params map[string]interface{}) ([]*subscription.Subscription, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		var sub subscription.Subscription
		if err := rows.StructScan(&sub); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan subscription").
				Mark(ierr.ErrDatabase)
		}
		subs = append(subs, &sub)
	}
	return subs, nil
}

// caching
func (r *subscriptionRepository) setCache(ctx context.Context, sub *subscription.Subscription) {
	tenantID := types.GetTenantID(ctx)

	// Set both ID and provider id based cache entries
	idKey := cache.GenerateKey(cache.PrefixSubscription, tenantID, sub.ID)
	r.cache.Set(ctx, idKey, sub, cache.DefaultExpiration)
	if sub.ProviderSubscriptionID != "" {
		providerKey := cache.GenerateKey(cache.PrefixSubscription, tenantID, "provider", sub.ProviderSubscriptionID)
		r.cache.Set(ctx, providerKey, sub, cache.DefaultExpiration)
	}
}

func (r *subscriptionRepository) getCache(ctx context.Context, id string) *subscription.Subscription {
	cacheKey := cache.GenerateKey(cache.PrefixSubscription, types.GetTenantID(ctx), id)
	if value, found := r.cache.Get(ctx, cacheKey); found {
		if sub, ok := value.(*subscription.Subscription); ok {
			return sub
		}
	}
	return nil
}

func (r *subscriptionRepository) getCacheByProviderID(ctx context.Context, providerSubscriptionID string) *subscription.Subscription {
	cacheKey := cache.GenerateKey(cache.PrefixSubscription, types.GetTenantID(ctx), "provider", providerSubscriptionID)
	if value, found := r.cache.Get(ctx, cacheKey); found {
		if sub, ok := value.(*subscription.Subscription); ok {
			return sub
		}
	}
	return nil
}

func (r *subscriptionRepository) deleteCache(ctx context.Context, sub *subscription.Subscription) {
	tenantID := types.GetTenantID(ctx)
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixSubscription, tenantID, sub.ID))
	if sub.ProviderSubscriptionID != "" {
		r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixSubscription, tenantID, "provider", sub.ProviderSubscriptionID))
	}
}
