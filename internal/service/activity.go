package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

type activityWriter interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

// recordActivity writes an activity_logs row. Failures are logged and never fail the caller.
func recordActivity(ctx context.Context, w activityWriter, logger *zap.Logger, entry models.ActivityLog, details interface{}) {
	if w == nil {
		return
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = raw
		}
	}
	if err := w.Create(ctx, &entry); err != nil {
		logger.Warn("failed to record activity", zap.String("action", entry.Action), zap.Error(err))
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
