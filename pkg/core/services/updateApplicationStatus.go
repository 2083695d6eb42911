package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// UpdateApplicationStatus sets the status of an application on behalf of the owning charity or a moderator.
// Moving to confirmed increments the opportunity's confirmed count in the same store write.
func UpdateApplicationStatus(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, applicationID string, status model.ApplicationStatus, notes string) (*db.Application, error) {
	logger.Debug("Updating application status",
		zap.String("application_id", applicationID),
		zap.String("status", string(status)))

	ac, err := loadApplicationContext(ctx, store, applicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{
		Trigger:      lifecycle.TriggerUpdateStatus,
		TargetStatus: status,
		Notes:        notes,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := ac.copyApplication()
	updated.ReviewNotes = notes
	updated.ReviewedBy = actor.UserID
	updated.ReviewedAt = timePtr(now)
	if outcome.Next == model.StatusConfirmed {
		updated.ConfirmedAt = timePtr(now)
	}

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerUpdateStatus, updated, outcome); err != nil {
		return nil, err
	}

	payload := applicationPayload(updated, ac.opportunity)
	payload["notes"] = notes
	notify(ctx, notifier, logger, ac.volunteer.UserID, model.NotifyApplicationStatus, payload)

	return updated, nil
}
