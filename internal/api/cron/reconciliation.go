package cron

import (
	"net/http"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/service"
	"github.com/gin-gonic/gin"
)

// ReconciliationHandler handles the nightly reconciliation sweep
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	config                *config.Configuration
	logger                *logger.Logger
}

// NewReconciliationHandler creates a new reconciliation cron handler
func NewReconciliationHandler(
	reconciliationService service.ReconciliationService,
	config *config.Configuration,
	logger *logger.Logger,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		config:                config,
		logger:                logger,
	}
}

// ReconcileAll sweeps every configured processor account, or just the one
// named by the account_key query param. A failing account does not abort
// the remaining accounts.
func (h *ReconciliationHandler) ReconcileAll(c *gin.Context) {
	ctx := c.Request.Context()

	accounts := make([]string, 0, len(h.config.Stripe.Accounts))
	if key := c.Query("account_key"); key != "" {
		accounts = append(accounts, key)
	} else {
		for _, account := range h.config.Stripe.Accounts {
			accounts = append(accounts, account.Key)
		}
	}

	h.logger.Infow("starting reconciliation cron job", "accounts", accounts)

	responses := make([]*dto.ReconcileRunResponse, 0, len(accounts))
	var lastErr error
	for _, key := range accounts {
		resp, err := h.reconciliationService.ReconcileSubscriptions(ctx, key)
		if err != nil {
			h.logger.Errorw("failed to reconcile account", "error", err, "account_key", key)
			lastErr = err
			continue
		}
		responses = append(responses, resp)
	}

	if len(responses) == 0 && lastErr != nil {
		c.Error(lastErr)
		return
	}

	h.logger.Infow("completed reconciliation cron job", "accounts", len(responses))
	c.JSON(http.StatusOK, gin.H{"runs": responses})
}
