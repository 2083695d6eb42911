package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// RateOpportunityParams is a volunteer's rating of an opportunity they attended
type RateOpportunityParams struct {
	OpportunityID string `validate:"required"`
	Rating        int    `validate:"min=1,max=5"`
	Feedback      string `validate:"max=2000"`
}

// RatingStore defines the database operations needed to record a volunteer's rating
type RatingStore interface {
	db.VolunteerStore
	db.AttendanceStore
}

// RateOpportunity records the calling volunteer's rating of the charity on their attendance row.
// It only touches the volunteer-owned rating columns, so it never overwrites the charity's rating.
func RateOpportunity(ctx context.Context, store RatingStore, logger *zap.Logger, actor model.Actor, params RateOpportunityParams) error {
	logger.Debug("Rating opportunity",
		zap.String("opportunity_id", params.OpportunityID),
		zap.Int("rating", params.Rating))

	if actor.Role != model.RoleVolunteer {
		return model.Forbiddenf("role %q may not rate opportunities", actor.Role)
	}
	if err := validateParams(params); err != nil {
		return err
	}

	volunteer, err := volunteerForActor(ctx, store, actor)
	if err != nil {
		return err
	}

	err = store.SetCharityRating(ctx, db.CharityRatingUpdate{
		OpportunityID: params.OpportunityID,
		VolunteerID:   volunteer.ID,
		Rating:        params.Rating,
		Feedback:      params.Feedback,
	})
	if errors.Is(err, db.ErrNotFound) {
		return model.Conflictf("no attendance recorded for volunteer %s on opportunity %s", volunteer.ID, params.OpportunityID)
	}
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	logger.Info("Opportunity rated",
		zap.String("opportunity_id", params.OpportunityID),
		zap.String("volunteer_id", volunteer.ID))
	return nil
}

// VolunteerRating returns the average rating charities have given the volunteer
func VolunteerRating(ctx context.Context, store db.AttendanceStore, volunteerID string) (db.RatingSummary, error) {
	summary, err := store.RatingSummary(ctx, db.RatingQuery{VolunteerID: volunteerID})
	if err != nil {
		return db.RatingSummary{}, fmt.Errorf("failed to aggregate volunteer rating: %w", err)
	}
	return summary, nil
}

// CharityRating returns the average rating volunteers have given the charity's opportunities
func CharityRating(ctx context.Context, store db.AttendanceStore, charityID string) (db.RatingSummary, error) {
	summary, err := store.RatingSummary(ctx, db.RatingQuery{CharityID: charityID})
	if err != nil {
		return db.RatingSummary{}, fmt.Errorf("failed to aggregate charity rating: %w", err)
	}
	return summary, nil
}
