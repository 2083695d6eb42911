package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

// applicationContext is everything a transition needs to know about an application
type applicationContext struct {
	app         *db.Application
	opportunity *db.Opportunity
	charity     *db.Charity
	volunteer   *db.Volunteer
}

// loadApplicationContext fetches the application and the records it references
func loadApplicationContext(ctx context.Context, store db.LifecycleStore, applicationID string) (*applicationContext, error) {
	app, err := store.GetApplication(ctx, applicationID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("application %s not found", applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch application: %w", err)
	}

	opportunity, err := getOpportunity(ctx, store, app.OpportunityID)
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

	volunteer, err := store.GetVolunteer(ctx, app.VolunteerID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("volunteer %s not found", app.VolunteerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteer: %w", err)
	}

	return &applicationContext{
		app:         app,
		opportunity: opportunity,
		charity:     charity,
		volunteer:   volunteer,
	}, nil
}

func getOpportunity(ctx context.Context, store db.OpportunityStore, opportunityID string) (*db.Opportunity, error) {
	opportunity, err := store.GetOpportunity(ctx, opportunityID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("opportunity %s not found", opportunityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opportunity: %w", err)
	}
	return opportunity, nil
}

// volunteerForActor resolves the volunteer profile of the calling user
func volunteerForActor(ctx context.Context, store db.VolunteerStore, actor model.Actor) (*db.Volunteer, error) {
	volunteer, err := store.GetVolunteerByUserID(ctx, actor.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("no volunteer profile for user %s", actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteer profile: %w", err)
	}
	return volunteer, nil
}

// requireRole fails with Forbidden unless the actor's role may fire trigger
func requireRole(actor model.Actor, trigger lifecycle.Trigger) error {
	rule, ok := lifecycle.RuleFor(trigger)
	if !ok {
		return model.Validationf("unknown trigger %q", trigger)
	}
	for _, role := range rule.Roles {
		if role == actor.Role {
			return nil
		}
	}
	return model.Forbiddenf("role %q may not perform %s", actor.Role, trigger)
}

// authorize checks ownership: a charity must own the opportunity and a volunteer must own the application.
// Moderators act on any application.
func (ac *applicationContext) authorize(actor model.Actor) error {
	switch actor.Role {
	case model.RoleModerator:
		return nil
	case model.RoleCharity:
		if ac.charity.UserID != actor.UserID {
			return model.Forbiddenf("opportunity %s belongs to another charity", ac.opportunity.ID)
		}
		return nil
	case model.RoleVolunteer:
		if ac.volunteer.UserID != actor.UserID {
			return model.Forbiddenf("application %s belongs to another volunteer", ac.app.ID)
		}
		return nil
	}
	return model.Forbiddenf("unknown role %q", actor.Role)
}

// prepare runs the role, ownership and transition checks and returns the outcome without writing anything
func (ac *applicationContext) prepare(actor model.Actor, req lifecycle.Request) (lifecycle.Outcome, error) {
	if err := requireRole(actor, req.Trigger); err != nil {
		return lifecycle.Outcome{}, err
	}
	if err := ac.authorize(actor); err != nil {
		return lifecycle.Outcome{}, err
	}

	req.Role = actor.Role
	req.Current = ac.app.Status
	req.OpportunitySuspended = ac.opportunity.Status == model.OpportunitySuspended
	return lifecycle.Evaluate(req)
}

// commit writes updated if the stored status is still the one that was loaded
func (ac *applicationContext) commit(ctx context.Context, store db.ApplicationStore, logger *zap.Logger, trigger lifecycle.Trigger, updated *db.Application, outcome lifecycle.Outcome) error {
	updated.Status = outcome.Next
	updated.UpdatedAt = time.Now().UTC()

	err := store.UpdateApplication(ctx, db.ApplicationUpdate{
		Application:    updated,
		ExpectedStatus: ac.app.Status,
		ConfirmedDelta: outcome.ConfirmedDelta,
	})
	switch {
	case errors.Is(err, db.ErrStaleStatus):
		return model.Conflictf("application %s was changed by another request, reload and retry", updated.ID)
	case errors.Is(err, db.ErrNotFound):
		return model.NotFoundf("application %s not found", updated.ID)
	case err != nil:
		return fmt.Errorf("failed to update application: %w", err)
	}

	metrics.RecordTransition(string(trigger), string(outcome.Next))
	logger.Info("Application transitioned",
		zap.String("application_id", updated.ID),
		zap.String("trigger", string(trigger)),
		zap.String("from", string(ac.app.Status)),
		zap.String("to", string(outcome.Next)),
		zap.Int("confirmed_delta", outcome.ConfirmedDelta))
	return nil
}

// copyApplication returns a copy that can be modified without touching the loaded record
func (ac *applicationContext) copyApplication() *db.Application {
	return ac.app.Clone()
}

func applicationPayload(app *db.Application, opportunity *db.Opportunity) map[string]string {
	return map[string]string{
		"application_id":    app.ID,
		"opportunity_id":    opportunity.ID,
		"opportunity_title": opportunity.Title,
		"status":            string(app.Status),
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
