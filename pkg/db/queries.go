package db

import (
	"fmt"
	"slices"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
)

// ApplicationOrder selects the sort order of ListApplications
type ApplicationOrder int

const (
	// OrderCreatedAsc sorts by creation time, oldest first (default)
	OrderCreatedAsc ApplicationOrder = iota
	// OrderScoreDesc sorts by match score descending, then creation time descending
	OrderScoreDesc
)

// ApplicationQuery filters ListApplications. Empty slices do not filter.
type ApplicationQuery struct {
	OpportunityIDs []string
	VolunteerIDs   []string
	Statuses       []model.ApplicationStatus
	SystemMatched  *bool
	OrderBy        ApplicationOrder
}

// Validate checks the query before it reaches the store
func (q ApplicationQuery) Validate() error {
	for _, s := range q.Statuses {
		if !s.IsValid() {
			return fmt.Errorf("invalid application status filter %q", s)
		}
	}
	if q.OrderBy != OrderCreatedAsc && q.OrderBy != OrderScoreDesc {
		return fmt.Errorf("invalid application order %d", q.OrderBy)
	}
	return nil
}

// Matches reports whether app satisfies the query filters
func (q ApplicationQuery) Matches(app *Application) bool {
	if len(q.OpportunityIDs) > 0 && !slices.Contains(q.OpportunityIDs, app.OpportunityID) {
		return false
	}
	if len(q.VolunteerIDs) > 0 && !slices.Contains(q.VolunteerIDs, app.VolunteerID) {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, app.Status) {
		return false
	}
	if q.SystemMatched != nil && *q.SystemMatched != app.IsSystemMatched {
		return false
	}
	return true
}

// VolunteerQuery filters ListVolunteers. Results are ordered by creation time then ID.
type VolunteerQuery struct {
	ApprovalStatus model.ApprovalStatus // empty for any
	ActiveOnly     bool
	Limit          int // 0 for no limit
}

// Validate checks the query before it reaches the store
func (q VolunteerQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("volunteer query limit must not be negative, got %d", q.Limit)
	}
	switch q.ApprovalStatus {
	case "", model.ApprovalPending, model.ApprovalApproved, model.ApprovalRejected:
	default:
		return fmt.Errorf("invalid approval status filter %q", q.ApprovalStatus)
	}
	return nil
}

// Matches reports whether v satisfies the query filters (Limit is applied by the caller)
func (q VolunteerQuery) Matches(v *Volunteer) bool {
	if q.ApprovalStatus != "" && v.ApprovalStatus != q.ApprovalStatus {
		return false
	}
	if q.ActiveOnly && !v.IsActive {
		return false
	}
	return true
}

// OpportunityQuery filters ListOpportunities
type OpportunityQuery struct {
	CharityID string
	IDs       []string
}

// Validate checks the query before it reaches the store
func (q OpportunityQuery) Validate() error {
	if q.CharityID == "" && len(q.IDs) == 0 {
		return fmt.Errorf("opportunity query needs a charity or explicit ids")
	}
	return nil
}

// Matches reports whether o satisfies the query filters
func (q OpportunityQuery) Matches(o *Opportunity) bool {
	if q.CharityID != "" && o.CharityID != q.CharityID {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, o.ID) {
		return false
	}
	return true
}

// RatingQuery selects whose average rating to compute. Exactly one field must be set.
type RatingQuery struct {
	VolunteerID string // ratings given by charities to this volunteer
	CharityID   string // ratings given by volunteers to this charity's opportunities
}

// Validate checks the query before it reaches the store
func (q RatingQuery) Validate() error {
	if (q.VolunteerID == "") == (q.CharityID == "") {
		return fmt.Errorf("rating query needs exactly one of volunteer or charity")
	}
	return nil
}

// ApplicationUpdate writes an application if its stored status still equals ExpectedStatus.
// ConfirmedDelta is added to the opportunity's confirmed count in the same write.
type ApplicationUpdate struct {
	Application    *Application
	ExpectedStatus model.ApplicationStatus
	ConfirmedDelta int
}

// VolunteerApprovalUpdate records a moderation decision on a volunteer profile
type VolunteerApprovalUpdate struct {
	VolunteerID string
	Status      model.ApprovalStatus
	Notes       string
}

// CharityRatingUpdate records the volunteer's rating of an opportunity on their attendance row
type CharityRatingUpdate struct {
	OpportunityID string
	VolunteerID   string
	Rating        int
	Feedback      string
}
