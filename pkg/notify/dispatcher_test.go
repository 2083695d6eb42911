package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

type mockNotificationStore struct {
	inserted []db.Notification
	err      error
}

func (m *mockNotificationStore) InsertNotification(ctx context.Context, n *db.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, *n)
	return nil
}

func TestNotify_StoresNotification(t *testing.T) {
	store := &mockNotificationStore{}
	d := NewDispatcher(store, zap.NewNop())

	payload := map[string]string{"application_id": "app-1"}
	err := d.Notify(context.Background(), "user-1", model.NotifyApplicationReceived, payload)
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	n := store.inserted[0]
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "user-1", n.UserID)
	assert.Equal(t, model.NotifyApplicationReceived, n.Kind)
	assert.Equal(t, "app-1", n.Payload["application_id"])
	assert.False(t, n.CreatedAt.IsZero())

	// The stored payload is a copy
	payload["application_id"] = "changed"
	assert.Equal(t, "app-1", store.inserted[0].Payload["application_id"])
}

func TestNotify_StoreError(t *testing.T) {
	store := &mockNotificationStore{err: errors.New("connection reset")}
	d := NewDispatcher(store, zap.NewNop())

	err := d.Notify(context.Background(), "user-1", model.NotifyApplicationStatus, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), string(model.NotifyApplicationStatus))
}
