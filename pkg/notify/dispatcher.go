package notify

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// Dispatcher persists in-app notifications
type Dispatcher struct {
	store  db.NotificationStore
	logger *zap.Logger
}

func NewDispatcher(store db.NotificationStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

// Notify stores a notification for userID
func (d *Dispatcher) Notify(ctx context.Context, userID string, kind model.NotificationKind, payload map[string]string) error {
	n := &db.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Payload:   maps.Clone(payload),
		CreatedAt: time.Now().UTC(),
	}

	if err := d.store.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store %s notification for %s: %w", kind, userID, err)
	}

	d.logger.Debug("Notification stored",
		zap.String("notification_id", n.ID),
		zap.String("user_id", userID),
		zap.String("kind", string(kind)))
	return nil
}
