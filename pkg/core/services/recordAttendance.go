package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// AttendanceParams is the charity's record of a volunteer's participation
type AttendanceParams struct {
	OpportunityID string                 `validate:"required"`
	VolunteerID   string                 `validate:"required"`
	Status        model.AttendanceStatus `validate:"required,oneof=present absent late excused"`
	HoursWorked   *float64               `validate:"omitempty,min=0,max=168"`
	// Rating is the charity's 1-5 rating of the volunteer
	Rating   *int   `validate:"omitempty,min=1,max=5"`
	Feedback string `validate:"max=2000"`
}

// RecordAttendance creates or updates the attendance row for a confirmed volunteer and recomputes the
// volunteer's totals from their full attendance history
func RecordAttendance(ctx context.Context, store db.AttendanceRecordStore, logger *zap.Logger, actor model.Actor, params AttendanceParams) (*db.Attendance, error) {
	logger.Debug("Recording attendance",
		zap.String("opportunity_id", params.OpportunityID),
		zap.String("volunteer_id", params.VolunteerID),
		zap.String("status", string(params.Status)))

	if actor.Role != model.RoleCharity {
		return nil, model.Forbiddenf("role %q may not record attendance", actor.Role)
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}

	opportunity, err := getOpportunity(ctx, store, params.OpportunityID)
	if err != nil {
		return nil, err
	}
	charity, err := store.GetCharity(ctx, opportunity.CharityID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("charity %s not found", opportunity.CharityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}
	if charity.UserID != actor.UserID {
		return nil, model.Forbiddenf("opportunity %s belongs to another charity", opportunity.ID)
	}

	if _, err := store.GetVolunteer(ctx, params.VolunteerID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, model.NotFoundf("volunteer %s not found", params.VolunteerID)
		}
		return nil, fmt.Errorf("failed to fetch volunteer: %w", err)
	}

	confirmed, err := store.ListApplications(ctx, db.ApplicationQuery{
		OpportunityIDs: []string{opportunity.ID},
		VolunteerIDs:   []string{params.VolunteerID},
		Statuses:       []model.ApplicationStatus{model.StatusConfirmed},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applications: %w", err)
	}
	if len(confirmed) == 0 {
		return nil, model.Conflictf("volunteer %s has no confirmed application for opportunity %s", params.VolunteerID, opportunity.ID)
	}

	now := time.Now().UTC()
	attendance, err := store.UpsertAttendance(ctx, &db.Attendance{
		ID:                uuid.New().String(),
		OpportunityID:     opportunity.ID,
		VolunteerID:       params.VolunteerID,
		Status:            params.Status,
		HoursWorked:       params.HoursWorked,
		VolunteerRating:   params.Rating,
		VolunteerFeedback: params.Feedback,
		RecordedBy:        actor.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	logger.Info("Attendance recorded",
		zap.String("attendance_id", attendance.ID),
		zap.String("volunteer_id", params.VolunteerID),
		zap.String("status", string(params.Status)))

	if _, err := RecomputeVolunteerTotals(ctx, store, logger, params.VolunteerID); err != nil {
		return nil, err
	}

	return attendance, nil
}

// TotalsStore defines the database operations needed to recompute volunteer totals
type TotalsStore interface {
	AttendanceTotals(ctx context.Context, volunteerID string) (db.AttendanceTotals, error)
	SetVolunteerTotals(ctx context.Context, volunteerID string, totals db.VolunteerTotals) error
}

// RecomputeVolunteerTotals derives the volunteer's total hours and completed opportunities from every
// attendance row. It is idempotent, so redundant or concurrent runs converge on the same values.
func RecomputeVolunteerTotals(ctx context.Context, store TotalsStore, logger *zap.Logger, volunteerID string) (db.VolunteerTotals, error) {
	raw, err := store.AttendanceTotals(ctx, volunteerID)
	if err != nil {
		return db.VolunteerTotals{}, fmt.Errorf("failed to aggregate attendance: %w", err)
	}

	totals := db.VolunteerTotals{
		TotalHoursVolunteered:       int(math.Round(raw.HoursWorked)),
		TotalOpportunitiesCompleted: raw.CompletedCount,
	}

	if err := store.SetVolunteerTotals(ctx, volunteerID, totals); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.VolunteerTotals{}, model.NotFoundf("volunteer %s not found", volunteerID)
		}
		return db.VolunteerTotals{}, fmt.Errorf("failed to update volunteer totals: %w", err)
	}

	logger.Debug("Volunteer totals recomputed",
		zap.String("volunteer_id", volunteerID),
		zap.Int("total_hours", totals.TotalHoursVolunteered),
		zap.Int("completed", totals.TotalOpportunitiesCompleted))

	return totals, nil
}
