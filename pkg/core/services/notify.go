package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, userID string, kind model.NotificationKind, payload map[string]string) error
}

// EmailSender sends a plain text email
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// notify is fire-and-forget: a failure is logged and counted but never returned to the caller
func notify(ctx context.Context, notifier Notifier, logger *zap.Logger, userID string, kind model.NotificationKind, payload map[string]string) {
	if notifier == nil || userID == "" {
		return
	}
	if err := notifier.Notify(ctx, userID, kind, payload); err != nil {
		metrics.RecordNotificationFailure("in_app")
		logger.Warn("Failed to send notification",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// sendEmail is best-effort in the same way as notify
func sendEmail(ctx context.Context, sender EmailSender, logger *zap.Logger, to, subject, body string) {
	if sender == nil || to == "" {
		return
	}
	if err := sender.Send(ctx, to, subject, body); err != nil {
		metrics.RecordNotificationFailure("email")
		logger.Warn("Failed to send email", zap.String("to", to), zap.Error(err))
	}
}
