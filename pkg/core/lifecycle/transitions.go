package lifecycle

import (
	"slices"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
)

// Trigger identifies an action that moves an application between statuses
type Trigger string

const (
	TriggerCreate            Trigger = "create"
	TriggerUpdateStatus      Trigger = "update_status"
	TriggerWithdraw          Trigger = "withdraw"
	TriggerRequestInfo       Trigger = "request_info"
	TriggerProvideInfo       Trigger = "provide_info"
	TriggerCompleteVetting   Trigger = "complete_vetting"
	TriggerModeratorReview   Trigger = "moderator_review"
	TriggerConfirm           Trigger = "confirm"
	TriggerAcceptSuggestion  Trigger = "accept_suggestion"
	TriggerDeclineSuggestion Trigger = "decline_suggestion"
)

var active = []model.ApplicationStatus{
	model.StatusPending,
	model.StatusUnderReview,
	model.StatusApproved,
	model.StatusAccepted,
	model.StatusAdditionalInfoRequested,
	model.StatusModeratorReview,
	model.StatusBackgroundCheckRequired,
}

// Rule describes who may fire a trigger and from which statuses
type Rule struct {
	Trigger Trigger
	Roles   []model.Role
	// From lists the statuses the trigger may fire from. Empty means the application must not exist yet.
	From []model.ApplicationStatus
	// ModeratorOnlyFrom lists statuses in From that only a moderator may leave with this trigger
	ModeratorOnlyFrom []model.ApplicationStatus
}

var rules = []Rule{
	{
		Trigger: TriggerCreate,
		Roles:   []model.Role{model.RoleVolunteer},
	},
	{
		Trigger:           TriggerUpdateStatus,
		Roles:             []model.Role{model.RoleCharity, model.RoleModerator},
		From:              active,
		ModeratorOnlyFrom: []model.ApplicationStatus{model.StatusModeratorReview},
	},
	{
		Trigger: TriggerWithdraw,
		Roles:   []model.Role{model.RoleVolunteer},
		From:    append(slices.Clone(active), model.StatusConfirmed),
	},
	{
		Trigger: TriggerRequestInfo,
		Roles:   []model.Role{model.RoleCharity},
		From: []model.ApplicationStatus{
			model.StatusPending,
			model.StatusUnderReview,
			model.StatusApproved,
			model.StatusAccepted,
			model.StatusAdditionalInfoRequested,
			model.StatusBackgroundCheckRequired,
		},
	},
	{
		Trigger: TriggerProvideInfo,
		Roles:   []model.Role{model.RoleVolunteer},
		From:    []model.ApplicationStatus{model.StatusAdditionalInfoRequested},
	},
	{
		Trigger: TriggerCompleteVetting,
		Roles:   []model.Role{model.RoleCharity},
		From: []model.ApplicationStatus{
			model.StatusPending,
			model.StatusUnderReview,
			model.StatusAdditionalInfoRequested,
			model.StatusBackgroundCheckRequired,
		},
	},
	{
		Trigger: TriggerModeratorReview,
		Roles:   []model.Role{model.RoleModerator},
		From:    active,
	},
	{
		Trigger: TriggerConfirm,
		Roles:   []model.Role{model.RoleVolunteer},
		From:    []model.ApplicationStatus{model.StatusApproved},
	},
	{
		Trigger: TriggerAcceptSuggestion,
		Roles:   []model.Role{model.RoleCharity},
		From:    []model.ApplicationStatus{model.StatusPending},
	},
	{
		Trigger: TriggerDeclineSuggestion,
		Roles:   []model.Role{model.RoleCharity},
		From:    []model.ApplicationStatus{model.StatusPending},
	},
}

// updateTargets are the statuses a charity or moderator may set directly
var updateTargets = []model.ApplicationStatus{
	model.StatusUnderReview,
	model.StatusApproved,
	model.StatusAccepted,
	model.StatusRejected,
	model.StatusConfirmed,
	model.StatusBackgroundCheckRequired,
}

// Rules returns a copy of the transition table
func Rules() []Rule {
	return slices.Clone(rules)
}

// RuleFor returns the rule for trigger
func RuleFor(trigger Trigger) (Rule, bool) {
	for _, r := range rules {
		if r.Trigger == trigger {
			return r, true
		}
	}
	return Rule{}, false
}

// Request is the input to a transition
type Request struct {
	Trigger Trigger
	Role    model.Role
	// Current is empty for TriggerCreate
	Current model.ApplicationStatus

	// TargetStatus is required for TriggerUpdateStatus and an optional override for TriggerModeratorReview
	TargetStatus model.ApplicationStatus
	// Decision is required for TriggerModeratorReview
	Decision model.Decision
	// Notes accompany status updates and reviews; a rejection needs a reason
	Notes string

	FlagForModeration       bool
	RequiresBackgroundCheck bool

	OpportunitySuspended bool
}

// Outcome is the effect of an allowed transition
type Outcome struct {
	Next model.ApplicationStatus
	// ConfirmedDelta is applied to the opportunity's confirmed count together with the status change
	ConfirmedDelta int
}

// Evaluate decides the next status for req, or returns a Forbidden, Validation or Conflict error.
// It has no side effects.
func Evaluate(req Request) (Outcome, error) {
	rule, ok := RuleFor(req.Trigger)
	if !ok {
		return Outcome{}, model.Validationf("unknown trigger %q", req.Trigger)
	}

	if !slices.Contains(rule.Roles, req.Role) {
		return Outcome{}, model.Forbiddenf("role %q may not %s", req.Role, describe(req.Trigger))
	}

	next, err := nextStatus(req)
	if err != nil {
		return Outcome{}, err
	}

	if len(rule.From) == 0 {
		if req.Current != "" {
			return Outcome{}, model.Conflictf("application already exists")
		}
	} else if !slices.Contains(rule.From, req.Current) {
		return Outcome{}, model.Conflictf("cannot %s an application that is %s", describe(req.Trigger), req.Current)
	}

	if slices.Contains(rule.ModeratorOnlyFrom, req.Current) && req.Role != model.RoleModerator {
		return Outcome{}, model.Conflictf("application is %s and awaits a moderator", req.Current)
	}

	if req.OpportunitySuspended && req.Role != model.RoleModerator &&
		(next == model.StatusApproved || next == model.StatusConfirmed) {
		return Outcome{}, model.Conflictf("opportunity is suspended; only a moderator may move an application to %s", next)
	}

	return Outcome{Next: next, ConfirmedDelta: confirmedDelta(req.Current, next)}, nil
}

func nextStatus(req Request) (model.ApplicationStatus, error) {
	switch req.Trigger {
	case TriggerCreate:
		return model.StatusPending, nil

	case TriggerUpdateStatus:
		if !slices.Contains(updateTargets, req.TargetStatus) {
			return "", model.Validationf("status %q cannot be set directly", req.TargetStatus)
		}
		if req.TargetStatus == model.StatusRejected && req.Notes == "" {
			return "", model.Validationf("a rejection reason is required")
		}
		return req.TargetStatus, nil

	case TriggerWithdraw:
		return model.StatusWithdrawn, nil

	case TriggerRequestInfo:
		return model.StatusAdditionalInfoRequested, nil

	case TriggerProvideInfo:
		return model.StatusUnderReview, nil

	case TriggerCompleteVetting:
		switch {
		case req.FlagForModeration:
			return model.StatusModeratorReview, nil
		case req.RequiresBackgroundCheck:
			return model.StatusBackgroundCheckRequired, nil
		default:
			return model.StatusUnderReview, nil
		}

	case TriggerModeratorReview:
		if req.Decision != model.DecisionApproved && req.Decision != model.DecisionRejected {
			return "", model.Validationf("moderator decision must be %q or %q, got %q",
				model.DecisionApproved, model.DecisionRejected, req.Decision)
		}
		if req.Decision == model.DecisionRejected && req.Notes == "" {
			return "", model.Validationf("a rejection reason is required")
		}
		if req.TargetStatus != "" {
			if !req.TargetStatus.IsValid() || req.TargetStatus == model.StatusWithdrawn {
				return "", model.Validationf("invalid override status %q", req.TargetStatus)
			}
			return req.TargetStatus, nil
		}
		if req.Decision == model.DecisionApproved {
			return model.StatusUnderReview, nil
		}
		return model.StatusRejected, nil

	case TriggerConfirm:
		return model.StatusConfirmed, nil

	case TriggerAcceptSuggestion:
		return model.StatusUnderReview, nil

	case TriggerDeclineSuggestion:
		return model.StatusRejected, nil
	}

	return "", model.Validationf("unknown trigger %q", req.Trigger)
}

func confirmedDelta(current, next model.ApplicationStatus) int {
	switch {
	case next == model.StatusConfirmed && current != model.StatusConfirmed:
		return 1
	case current == model.StatusConfirmed && next != model.StatusConfirmed:
		return -1
	}
	return 0
}

func describe(t Trigger) string {
	switch t {
	case TriggerCreate:
		return "apply"
	case TriggerUpdateStatus:
		return "update the status of"
	case TriggerWithdraw:
		return "withdraw"
	case TriggerRequestInfo:
		return "request information on"
	case TriggerProvideInfo:
		return "provide information on"
	case TriggerCompleteVetting:
		return "vet"
	case TriggerModeratorReview:
		return "moderate"
	case TriggerConfirm:
		return "confirm"
	case TriggerAcceptSuggestion:
		return "accept"
	case TriggerDeclineSuggestion:
		return "decline"
	}
	return string(t)
}
