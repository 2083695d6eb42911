package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// WithdrawApplication withdraws the calling volunteer's application.
// Withdrawing a confirmed application releases its place on the opportunity.
func WithdrawApplication(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, applicationID, reason string) (*db.Application, error) {
	logger.Debug("Withdrawing application", zap.String("application_id", applicationID))

	ac, err := loadApplicationContext(ctx, store, applicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{Trigger: lifecycle.TriggerWithdraw})
	if err != nil {
		return nil, err
	}

	updated := ac.copyApplication()
	updated.WithdrawalReason = reason
	updated.WithdrawnAt = timePtr(time.Now().UTC())

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerWithdraw, updated, outcome); err != nil {
		return nil, err
	}

	payload := applicationPayload(updated, ac.opportunity)
	payload["volunteer_name"] = ac.volunteer.DisplayName()
	payload["reason"] = reason
	notify(ctx, notifier, logger, ac.charity.UserID, model.NotifyApplicationWithdrawn, payload)

	return updated, nil
}
