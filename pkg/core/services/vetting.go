package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// VettingParams is the charity's assessment of an application
type VettingParams struct {
	ApplicationID           string `validate:"required"`
	Score                   int    `validate:"min=1,max=10"`
	Notes                   string `validate:"max=2000"`
	FlagForModeration       bool
	RequiresBackgroundCheck bool
}

// CompleteVetting records the vetting result and routes the application: flagged applications go to a
// moderator, otherwise a required background check takes precedence over returning to review.
func CompleteVetting(ctx context.Context, store db.LifecycleStore, logger *zap.Logger, actor model.Actor, params VettingParams) (*db.Application, error) {
	logger.Debug("Completing vetting",
		zap.String("application_id", params.ApplicationID),
		zap.Int("score", params.Score),
		zap.Bool("flag_for_moderation", params.FlagForModeration),
		zap.Bool("requires_background_check", params.RequiresBackgroundCheck))

	if err := validateParams(params); err != nil {
		return nil, err
	}

	ac, err := loadApplicationContext(ctx, store, params.ApplicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{
		Trigger:                 lifecycle.TriggerCompleteVetting,
		FlagForModeration:       params.FlagForModeration,
		RequiresBackgroundCheck: params.RequiresBackgroundCheck,
	})
	if err != nil {
		return nil, err
	}

	score := params.Score
	updated := ac.copyApplication()
	updated.VettingScore = &score
	updated.VettingNotes = params.Notes
	updated.FlaggedForModeration = params.FlagForModeration
	updated.RequiresBackgroundCheck = params.RequiresBackgroundCheck
	updated.ReviewedBy = actor.UserID
	updated.ReviewedAt = timePtr(time.Now().UTC())

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerCompleteVetting, updated, outcome); err != nil {
		return nil, err
	}

	return updated, nil
}

// ModeratorReviewParams is a moderator's decision on an application.
// Override, when set, replaces the status the decision would otherwise produce.
type ModeratorReviewParams struct {
	ApplicationID string         `validate:"required"`
	Decision      model.Decision `validate:"required"`
	Notes         string         `validate:"max=2000"`
	Override      model.ApplicationStatus
}

// ModeratorReview adjudicates an application. "approved" returns it to under_review and "rejected" ends it,
// unless an override status is given. The moderation flag is cleared and both parties are notified.
func ModeratorReview(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, params ModeratorReviewParams) (*db.Application, error) {
	logger.Debug("Moderator reviewing application",
		zap.String("application_id", params.ApplicationID),
		zap.String("decision", string(params.Decision)),
		zap.String("override", string(params.Override)))

	if err := requireRole(actor, lifecycle.TriggerModeratorReview); err != nil {
		return nil, err
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}

	ac, err := loadApplicationContext(ctx, store, params.ApplicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{
		Trigger:      lifecycle.TriggerModeratorReview,
		Decision:     params.Decision,
		Notes:        params.Notes,
		TargetStatus: params.Override,
	})
	if err != nil {
		return nil, err
	}

	updated := ac.copyApplication()
	updated.ModeratorDecision = string(params.Decision)
	updated.ModeratorNotes = params.Notes
	updated.ModeratedBy = actor.UserID
	updated.ModeratedAt = timePtr(time.Now().UTC())
	updated.FlaggedForModeration = false

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerModeratorReview, updated, outcome); err != nil {
		return nil, err
	}

	payload := applicationPayload(updated, ac.opportunity)
	payload["decision"] = string(params.Decision)
	notify(ctx, notifier, logger, ac.charity.UserID, model.NotifyModeratorReview, payload)
	notify(ctx, notifier, logger, ac.volunteer.UserID, model.NotifyModeratorReview, payload)

	return updated, nil
}
