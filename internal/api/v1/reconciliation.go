package v1

import (
	"net/http"

	"github.com/clubroll/clubroll/internal/api/dto"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/service"
	"github.com/gin-gonic/gin"
)

// ReconciliationHandler handles API requests for manual reconciliation runs
type ReconciliationHandler struct {
	service service.ReconciliationService
	log     *logger.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(service service.ReconciliationService, log *logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
		log:     log,
	}
}

// @Summary Run reconciliation for one processor account
// @Description Compare every linked subscription against the external processor and correct drift
// @Tags Reconciliation
// @Accept json
// @Produce json
// @Param request body dto.ReconcileRequest true "Reconcile request"
// @Success 200 {object} dto.ReconcileRunResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /reconciliation/run [post]
func (h *ReconciliationHandler) Run(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ReconcileSubscriptions(c.Request.Context(), req.AccountKey)
	if err != nil {
		h.log.Errorw("failed to reconcile subscriptions", "error", err, "account_key", req.AccountKey)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
