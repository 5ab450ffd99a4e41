package v1

import (
	"net/http"

	"github.com/clubroll/clubroll/internal/api/dto"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/service"
	"github.com/gin-gonic/gin"
)

// PauseHandler handles API requests for billing pauses
type PauseHandler struct {
	service service.PauseService
	log     *logger.Logger
}

// NewPauseHandler creates a new pause handler
func NewPauseHandler(service service.PauseService, log *logger.Logger) *PauseHandler {
	return &PauseHandler{
		service: service,
		log:     log,
	}
}

// @Summary Schedule a billing pause
// @Description Schedule a fixed set of paused months or an open-ended pause
// @Tags Pauses
// @Accept json
// @Produce json
// @Param request body dto.SchedulePauseRequest true "Schedule pause request"
// @Success 201 {object} dto.SchedulePauseResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /pauses [post]
func (h *PauseHandler) SchedulePause(c *gin.Context) {
	var req dto.SchedulePauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.SchedulePause(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("failed to schedule pause", "error", err, "subscription_id", req.SubscriptionID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Cancel a pause window
// @Description Cancel a scheduled or active pause window, crediting elapsed days
// @Tags Pauses
// @Produce json
// @Param id path string true "Pause window ID"
// @Success 200 {object} dto.CancelPauseResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /pauses/{id}/cancel [post]
func (h *PauseHandler) CancelPause(c *gin.Context) {
	windowID := c.Param("id")
	if windowID == "" {
		c.Error(ierr.NewError("pause window id is required").
			WithHint("Pause window ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CancelPause(c.Request.Context(), windowID)
	if err != nil {
		h.log.Errorw("failed to cancel pause", "error", err, "window_id", windowID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
