package testfixtures

import (
	"time"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures
func ReferenceTime() time.Time {
	return referenceTime
}

// Charity returns a charity owned by userID
func Charity(id, userID string) db.Charity {
	return db.Charity{
		ID:     id,
		UserID: userID,
		Name:   "Charity " + id,
		Email:  id + "@charity.example",
	}
}

// ApprovedVolunteer returns an approved, active volunteer owned by userID
func ApprovedVolunteer(id, userID string) db.Volunteer {
	return db.Volunteer{
		ID:             id,
		UserID:         userID,
		FirstName:      "Vol",
		LastName:       id,
		Email:          id + "@volunteer.example",
		Skills:         []string{"Teaching"},
		Interests:      []string{"Education"},
		ApprovalStatus: model.ApprovalApproved,
		IsActive:       true,
		CreatedAt:      referenceTime,
	}
}

// PublishedOpportunity returns a virtual education opportunity with a deadline a week after now
func PublishedOpportunity(id, charityID string) db.Opportunity {
	deadline := time.Now().Add(7 * 24 * time.Hour)
	return db.Opportunity{
		ID:                  id,
		CharityID:           charityID,
		Title:               "Homework club",
		Category:            "Education",
		RequiredSkills:      []string{"Teaching", "Cooking"},
		LocationType:        model.LocationVirtual,
		NumberOfVolunteers:  5,
		Status:              model.OpportunityPublished,
		ApplicationDeadline: &deadline,
		CreatedAt:           referenceTime,
	}
}

// Application returns an application in status, created at the reference time
func Application(id, opportunityID, volunteerID string, status model.ApplicationStatus) db.Application {
	return db.Application{
		ID:            id,
		OpportunityID: opportunityID,
		VolunteerID:   volunteerID,
		Status:        status,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
}

// SystemMatch returns a pending system-matched application with score, created offset after the reference time
func SystemMatch(id, opportunityID, volunteerID string, score int, offset time.Duration) db.Application {
	app := Application(id, opportunityID, volunteerID, model.StatusPending)
	app.IsSystemMatched = true
	app.MatchScore = &score
	app.CreatedAt = referenceTime.Add(offset)
	app.UpdatedAt = app.CreatedAt
	return app
}

// Scenario is a seeded store with one charity, one published opportunity and one approved volunteer
type Scenario struct {
	Store       *Store
	Charity     db.Charity
	Opportunity db.Opportunity
	Volunteer   db.Volunteer

	CharityActor   model.Actor
	VolunteerActor model.Actor
	ModeratorActor model.Actor
}

// NewScenario seeds a fresh store
func NewScenario() *Scenario {
	s := &Scenario{
		Store:          NewStore(),
		Charity:        Charity("charity-1", "user-charity"),
		Opportunity:    PublishedOpportunity("opp-1", "charity-1"),
		Volunteer:      ApprovedVolunteer("vol-1", "user-vol"),
		CharityActor:   model.Actor{UserID: "user-charity", Role: model.RoleCharity},
		VolunteerActor: model.Actor{UserID: "user-vol", Role: model.RoleVolunteer},
		ModeratorActor: model.Actor{UserID: "user-mod", Role: model.RoleModerator},
	}
	s.Store.AddCharity(s.Charity)
	s.Store.AddOpportunity(s.Opportunity)
	s.Store.AddVolunteer(s.Volunteer)
	return s
}

// WithApplication seeds an application for the scenario volunteer and opportunity
func (s *Scenario) WithApplication(id string, status model.ApplicationStatus) db.Application {
	app := Application(id, s.Opportunity.ID, s.Volunteer.ID, status)
	s.Store.AddApplication(app)
	return app
}
