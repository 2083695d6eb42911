package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// ReviewVolunteerProfile approves or rejects a volunteer profile. Only approved volunteers may apply
// to opportunities or be proposed by system matching.
func ReviewVolunteerProfile(ctx context.Context, store db.VolunteerStore, notifier Notifier, logger *zap.Logger, actor model.Actor, volunteerID string, decision model.Decision, notes string) (*db.Volunteer, error) {
	logger.Debug("Reviewing volunteer profile",
		zap.String("volunteer_id", volunteerID),
		zap.String("decision", string(decision)))

	if actor.Role != model.RoleModerator {
		return nil, model.Forbiddenf("role %q may not review volunteer profiles", actor.Role)
	}

	var status model.ApprovalStatus
	switch decision {
	case model.DecisionApproved:
		status = model.ApprovalApproved
	case model.DecisionRejected:
		if notes == "" {
			return nil, model.Validationf("a rejection reason is required")
		}
		status = model.ApprovalRejected
	default:
		return nil, model.Validationf("decision must be %q or %q, got %q", model.DecisionApproved, model.DecisionRejected, decision)
	}

	volunteer, err := store.GetVolunteer(ctx, volunteerID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("volunteer %s not found", volunteerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteer: %w", err)
	}

	if err := store.SetVolunteerApproval(ctx, db.VolunteerApprovalUpdate{
		VolunteerID: volunteerID,
		Status:      status,
		Notes:       notes,
	}); err != nil {
		return nil, fmt.Errorf("failed to update volunteer approval: %w", err)
	}

	volunteer.ApprovalStatus = status
	volunteer.ApprovalNotes = notes

	logger.Info("Volunteer profile reviewed",
		zap.String("volunteer_id", volunteerID),
		zap.String("status", string(status)))

	notify(ctx, notifier, logger, volunteer.UserID, model.NotifyVolunteerProfileDecided, map[string]string{
		"volunteer_id": volunteerID,
		"status":       string(status),
		"notes":        notes,
	})

	return volunteer, nil
}
