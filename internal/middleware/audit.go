package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// ActivityWriter persists activity log rows.
type ActivityWriter interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

// Audit records an activity row after each successful request on the route.
func Audit(w ActivityWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if w == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.ActivityLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if claims := Claims(c); claims != nil {
			entry.UserID = &claims.UserID
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		entry.Details, _ = json.Marshal(map[string]interface{}{
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})

		if err := w.Create(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
		}
	}
}
