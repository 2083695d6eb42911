package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

// CreateApplicationParams is the volunteer's application to an opportunity
type CreateApplicationParams struct {
	OpportunityID string `validate:"required"`
	Message       string `validate:"max=2000"`
}

// CreateApplication applies the calling volunteer to an opportunity.
// The store's uniqueness constraint decides concurrent duplicates, so exactly one of two racing calls succeeds.
func CreateApplication(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, params CreateApplicationParams) (*db.Application, error) {
	logger.Debug("Creating application",
		zap.String("opportunity_id", params.OpportunityID),
		zap.String("user_id", actor.UserID))

	if err := requireRole(actor, lifecycle.TriggerCreate); err != nil {
		return nil, err
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}

	volunteer, err := volunteerForActor(ctx, store, actor)
	if err != nil {
		return nil, err
	}
	if volunteer.ApprovalStatus != model.ApprovalApproved {
		return nil, model.Forbiddenf("volunteer profile is %s; only approved volunteers may apply", volunteer.ApprovalStatus)
	}

	opportunity, err := getOpportunity(ctx, store, params.OpportunityID)
	if err != nil {
		return nil, err
	}
	if opportunity.Status != model.OpportunityPublished {
		return nil, model.Conflictf("opportunity %s is %s and not accepting applications", opportunity.ID, opportunity.Status)
	}
	now := time.Now().UTC()
	if opportunity.ApplicationDeadline != nil && now.After(*opportunity.ApplicationDeadline) {
		return nil, model.Conflictf("application deadline for opportunity %s has passed", opportunity.ID)
	}

	charity, err := store.GetCharity(ctx, opportunity.CharityID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("charity %s not found", opportunity.CharityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}

	outcome, err := lifecycle.Evaluate(lifecycle.Request{Trigger: lifecycle.TriggerCreate, Role: actor.Role})
	if err != nil {
		return nil, err
	}

	app := &db.Application{
		ID:            uuid.New().String(),
		OpportunityID: opportunity.ID,
		VolunteerID:   volunteer.ID,
		Status:        outcome.Next,
		Message:       params.Message,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := store.InsertApplication(ctx, app); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, model.Conflictf("volunteer %s has already applied to opportunity %s", volunteer.ID, opportunity.ID)
		}
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	metrics.RecordTransition(string(lifecycle.TriggerCreate), string(app.Status))
	logger.Info("Application created",
		zap.String("application_id", app.ID),
		zap.String("opportunity_id", opportunity.ID),
		zap.String("volunteer_id", volunteer.ID))

	payload := applicationPayload(app, opportunity)
	payload["volunteer_name"] = volunteer.DisplayName()
	notify(ctx, notifier, logger, charity.UserID, model.NotifyApplicationReceived, payload)

	return app, nil
}
