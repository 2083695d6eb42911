package services

import (
	"context"
	"sync"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
)

type sentNotification struct {
	UserID  string
	Kind    model.NotificationKind
	Payload map[string]string
}

// mockNotifier records notifications and optionally fails them
type mockNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (m *mockNotifier) Notify(ctx context.Context, userID string, kind model.NotificationKind, payload map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentNotification{UserID: userID, Kind: kind, Payload: payload})
	return m.err
}

func (m *mockNotifier) to(userID string) []sentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentNotification
	for _, n := range m.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

// mockEmailSender records emails and optionally fails them
type mockEmailSender struct {
	sent []sentEmail
	err  error
}

func (m *mockEmailSender) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: body})
	return m.err
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
