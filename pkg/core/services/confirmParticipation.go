package services

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

const (
	MinCommittedHours = 1
	MaxCommittedHours = 168
)

// ConfirmParticipation confirms the calling volunteer's approved application with the hours they commit to.
// The opportunity's confirmed count is incremented by the store in the same write as the status change,
// so concurrent confirmations never lose an increment.
func ConfirmParticipation(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, applicationID string, committedHours *int) (*db.Application, error) {
	logger.Debug("Confirming participation", zap.String("application_id", applicationID))

	if committedHours == nil {
		return nil, model.Validationf("committed hours are required")
	}
	if *committedHours < MinCommittedHours || *committedHours > MaxCommittedHours {
		return nil, model.Validationf("committed hours must be between %d and %d, got %d",
			MinCommittedHours, MaxCommittedHours, *committedHours)
	}

	ac, err := loadApplicationContext(ctx, store, applicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{Trigger: lifecycle.TriggerConfirm})
	if err != nil {
		return nil, err
	}

	hours := *committedHours
	updated := ac.copyApplication()
	updated.CommittedHours = &hours
	updated.ConfirmedAt = timePtr(time.Now().UTC())

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerConfirm, updated, outcome); err != nil {
		return nil, err
	}

	payload := applicationPayload(updated, ac.opportunity)
	payload["volunteer_name"] = ac.volunteer.DisplayName()
	payload["committed_hours"] = strconv.Itoa(hours)
	notify(ctx, notifier, logger, ac.charity.UserID, model.NotifyParticipationConfirmed, payload)

	return updated, nil
}
