package cron

import (
	"net/http"
	"time"

	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/service"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/gin-gonic/gin"
)

// PauseHandler handles the scheduled pause passes. Each pass is
// idempotent, so overlapping or repeated invocations are safe.
type PauseHandler struct {
	pauseService service.PauseService
	logger       *logger.Logger
}

// NewPauseHandler creates a new pause cron handler
func NewPauseHandler(pauseService service.PauseService, logger *logger.Logger) *PauseHandler {
	return &PauseHandler{
		pauseService: pauseService,
		logger:       logger,
	}
}

// ApplyPauses suspends collection for every window scheduled for the
// current month. Runs on the 1st; the month can be overridden for replays.
func (h *PauseHandler) ApplyPauses(c *gin.Context) {
	month, err := h.month(c)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Infow("starting pause apply cron job", "month", month.String())

	resp, err := h.pauseService.ApplyPauses(c.Request.Context(), month)
	if err != nil {
		h.logger.Errorw("failed to apply pauses", "error", err, "month", month.String())
		c.Error(err)
		return
	}

	h.logger.Infow("completed pause apply cron job",
		"month", month.String(),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	c.JSON(http.StatusOK, resp)
}

// ResumePauses resumes collection for windows whose covered month ended,
// unless a following window continues the coverage.
func (h *PauseHandler) ResumePauses(c *gin.Context) {
	month, err := h.month(c)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Infow("starting pause resume cron job", "month", month.String())

	resp, err := h.pauseService.ResumePauses(c.Request.Context(), month)
	if err != nil {
		h.logger.Errorw("failed to resume pauses", "error", err, "month", month.String())
		c.Error(err)
		return
	}

	h.logger.Infow("completed pause resume cron job",
		"month", month.String(),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	c.JSON(http.StatusOK, resp)
}

// VerifyPauses is the backstop pass: it re-checks every window the apply
// and resume passes should have settled and repairs what they missed.
func (h *PauseHandler) VerifyPauses(c *gin.Context) {
	month, err := h.month(c)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Infow("starting pause verify cron job", "month", month.String())

	resp, err := h.pauseService.VerifyPauses(c.Request.Context(), month)
	if err != nil {
		h.logger.Errorw("failed to verify pauses", "error", err, "month", month.String())
		c.Error(err)
		return
	}

	h.logger.Infow("completed pause verify cron job",
		"month", month.String(),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	c.JSON(http.StatusOK, resp)
}

// month reads the optional month override (YYYY-MM), defaulting to the
// current calendar month.
func (h *PauseHandler) month(c *gin.Context) (types.MonthKey, error) {
	if raw := c.Query("month"); raw != "" {
		return types.ParseMonthKey(raw)
	}
	return types.MonthKeyFor(time.Now().UTC()), nil
}
