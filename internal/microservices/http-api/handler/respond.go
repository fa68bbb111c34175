package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/v-prt/bookish-backend/internal/apperror"
	"github.com/v-prt/bookish-backend/internal/validation"
)

// Request budgets. Handlers that enrich from the catalog get more time.
const (
	storeTimeout   = 5 * time.Second
	catalogTimeout = 15 * time.Second
)

func withTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}

// respondError writes err as {"error": ..., "code": ...}. Causes of internal
// and upstream errors are logged, never sent.
func respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)

	status := appErr.HTTPStatus()
	if status >= 500 {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"code", appErr.Code,
			"error", err)
	}

	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

// respondBindError reports a request that failed binding or validation.
func respondBindError(c *gin.Context, err error) {
	respondError(c, validation.Error(err))
}
