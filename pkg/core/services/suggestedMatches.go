package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/matching"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/scoring"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

const (
	// DefaultSystemMatchMinScore keeps weak matches out of proposals
	DefaultSystemMatchMinScore = scoring.GoodThreshold
	// DefaultMaxSystemMatches is used when the caller passes a non-positive maximum
	DefaultMaxSystemMatches = 10
)

// MatchFinder ranks volunteers for an opportunity
type MatchFinder interface {
	FindMatches(ctx context.Context, opportunityID string, limit, minScore int) (*matching.MatchList, error)
}

// SuggestionStore defines the database operations needed to create and review system matches
type SuggestionStore interface {
	db.CharityStore
	db.ApplicationStore
}

// SystemMatchOptions tunes CreateSystemMatches
type SystemMatchOptions struct {
	MaxMatches int
	// MinScore may raise the threshold above DefaultSystemMatchMinScore but never lower it
	MinScore int
}

// CreateSystemMatches proposes the best-scoring volunteers who have not yet applied to the opportunity.
// Each proposal is a pending, system-matched application carrying its score, and the owning charity is
// notified for each. No qualifying volunteers yields an empty list.
func CreateSystemMatches(ctx context.Context, store SuggestionStore, finder MatchFinder, notifier Notifier, logger *zap.Logger, opportunityID string, opts SystemMatchOptions) ([]db.Application, error) {
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultMaxSystemMatches
	}
	// Proposals never go below the system threshold, whatever the caller asks for
	opts.MinScore = max(opts.MinScore, DefaultSystemMatchMinScore)

	logger.Debug("Creating system matches",
		zap.String("opportunity_id", opportunityID),
		zap.Int("max_matches", opts.MaxMatches),
		zap.Int("min_score", opts.MinScore))

	existing, err := store.ListApplications(ctx, db.ApplicationQuery{OpportunityIDs: []string{opportunityID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing applications: %w", err)
	}
	applied := make(map[string]bool, len(existing))
	for _, app := range existing {
		applied[app.VolunteerID] = true
	}

	// Ask for enough candidates that excluding existing applicants still leaves MaxMatches
	matches, err := finder.FindMatches(ctx, opportunityID, opts.MaxMatches+len(applied), opts.MinScore)
	if err != nil {
		return nil, err
	}

	var candidates []matching.Match
	for _, m := range matches.Matches {
		if applied[m.Volunteer.ID] {
			continue
		}
		candidates = append(candidates, m)
		if len(candidates) == opts.MaxMatches {
			break
		}
	}

	logger.Debug("Candidates after excluding existing applicants",
		zap.Int("ranked", len(matches.Matches)),
		zap.Int("already_applied", len(applied)),
		zap.Int("candidates", len(candidates)))

	if len(candidates) == 0 {
		return []db.Application{}, nil
	}

	charity, err := store.GetCharity(ctx, matches.Opportunity.CharityID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("charity %s not found", matches.Opportunity.CharityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}

	created := make([]db.Application, 0, len(candidates))
	for _, m := range candidates {
		now := time.Now().UTC()
		score := m.Score.Value
		app := &db.Application{
			ID:              uuid.New().String(),
			OpportunityID:   opportunityID,
			VolunteerID:     m.Volunteer.ID,
			Status:          model.StatusPending,
			IsSystemMatched: true,
			MatchScore:      &score,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := store.InsertApplication(ctx, app); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				// The volunteer applied between the listing and this insert
				logger.Debug("Skipping volunteer who applied concurrently", zap.String("volunteer_id", m.Volunteer.ID))
				continue
			}
			return created, fmt.Errorf("failed to insert system match: %w", err)
		}
		created = append(created, *app)

		payload := applicationPayload(app, matches.Opportunity)
		payload["volunteer_name"] = m.Volunteer.DisplayName()
		payload["match_score"] = strconv.Itoa(score)
		payload["band"] = string(m.Score.Band)
		notify(ctx, notifier, logger, charity.UserID, model.NotifySuggestedMatch, payload)
	}

	metrics.RecordSystemMatches(len(created))
	logger.Info("System matches created",
		zap.String("opportunity_id", opportunityID),
		zap.Int("count", len(created)))

	return created, nil
}

// SuggestionReviewStore defines the database operations needed to list suggestions for a charity
type SuggestionReviewStore interface {
	db.CharityStore
	db.OpportunityStore
	db.ApplicationStore
}

// GetSuggestedMatchesForReview lists pending system matches on the charity's opportunities, optionally
// narrowed to one opportunity, highest score first and newest first among equal scores
func GetSuggestedMatchesForReview(ctx context.Context, store SuggestionReviewStore, logger *zap.Logger, actor model.Actor, charityID, opportunityID string) ([]db.Application, error) {
	logger.Debug("Listing suggested matches",
		zap.String("charity_id", charityID),
		zap.String("opportunity_id", opportunityID))

	charity, err := store.GetCharity(ctx, charityID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("charity %s not found", charityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}
	switch actor.Role {
	case model.RoleModerator:
	case model.RoleCharity:
		if charity.UserID != actor.UserID {
			return nil, model.Forbiddenf("charity %s belongs to another user", charityID)
		}
	default:
		return nil, model.Forbiddenf("role %q may not review suggested matches", actor.Role)
	}

	var opportunityIDs []string
	if opportunityID != "" {
		opportunity, err := getOpportunity(ctx, store, opportunityID)
		if err != nil {
			return nil, err
		}
		if opportunity.CharityID != charityID {
			return nil, model.Forbiddenf("opportunity %s belongs to another charity", opportunityID)
		}
		opportunityIDs = []string{opportunityID}
	} else {
		opportunities, err := store.ListOpportunities(ctx, db.OpportunityQuery{CharityID: charityID})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch opportunities: %w", err)
		}
		for _, o := range opportunities {
			opportunityIDs = append(opportunityIDs, o.ID)
		}
	}

	if len(opportunityIDs) == 0 {
		return []db.Application{}, nil
	}

	systemMatched := true
	apps, err := store.ListApplications(ctx, db.ApplicationQuery{
		OpportunityIDs: opportunityIDs,
		Statuses:       []model.ApplicationStatus{model.StatusPending},
		SystemMatched:  &systemMatched,
		OrderBy:        db.OrderScoreDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggested matches: %w", err)
	}

	logger.Debug("Suggested matches found", zap.Int("count", len(apps)))
	return apps, nil
}

// ReviewSuggestedMatch lets the owning charity accept a system match into review or decline it.
// The volunteer is notified once with the outcome.
func ReviewSuggestedMatch(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, applicationID string, decision model.Decision, notes string) (*db.Application, error) {
	logger.Debug("Reviewing suggested match",
		zap.String("application_id", applicationID),
		zap.String("decision", string(decision)))

	var (
		trigger lifecycle.Trigger
		kind    model.NotificationKind
	)
	switch decision {
	case model.DecisionAccept:
		trigger, kind = lifecycle.TriggerAcceptSuggestion, model.NotifySuggestedMatchAccepted
	case model.DecisionDecline:
		trigger, kind = lifecycle.TriggerDeclineSuggestion, model.NotifySuggestedMatchDeclined
	default:
		return nil, model.Validationf("decision must be %q or %q, got %q", model.DecisionAccept, model.DecisionDecline, decision)
	}

	ac, err := loadApplicationContext(ctx, store, applicationID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, trigger); err != nil {
		return nil, err
	}
	if err := ac.authorize(actor); err != nil {
		return nil, err
	}
	if !ac.app.IsSystemMatched {
		return nil, model.Conflictf("application %s was not created by system matching", applicationID)
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{Trigger: trigger, Notes: notes})
	if err != nil {
		return nil, err
	}

	updated := ac.copyApplication()
	updated.ReviewNotes = notes
	updated.ReviewedBy = actor.UserID
	updated.ReviewedAt = timePtr(time.Now().UTC())

	if err := ac.commit(ctx, store, logger, trigger, updated, outcome); err != nil {
		return nil, err
	}

	payload := applicationPayload(updated, ac.opportunity)
	payload["notes"] = notes
	notify(ctx, notifier, logger, ac.volunteer.UserID, kind, payload)

	return updated, nil
}
