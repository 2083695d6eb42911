package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// InsertNotification stores an in-app notification
func (d *DB) InsertNotification(ctx context.Context, n *db.Notification) error {
	payload := n.Payload
	if payload == nil {
		payload = map[string]string{}
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.UserID, string(n.Kind), payload, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
