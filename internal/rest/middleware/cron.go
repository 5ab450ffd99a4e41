package middleware

import (
	"crypto/subtle"

	"github.com/clubroll/clubroll/internal/config"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware authenticates scheduled invocations with the shared
// secret from config. Cron routes carry no user session.
func CronAuthMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := cfg.Cron.SharedSecret
		if secret == "" {
			c.Error(ierr.NewError("cron secret not configured").
				WithHint("Scheduled endpoints are disabled").
				Mark(ierr.ErrPermissionDenied))
			c.Abort()
			return
		}

		provided := c.GetHeader(types.HeaderCronSecret)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.Error(ierr.NewError("invalid cron secret").
				WithHint("Invalid or missing cron secret").
				Mark(ierr.ErrPermissionDenied))
			c.Abort()
			return
		}

		c.Next()
	}
}
