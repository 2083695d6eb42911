package db

import (
	"maps"
	"slices"
	"time"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
)

// Charity represents a database charity record
type Charity struct {
	ID     string
	UserID string // owning user
	Name   string
	Email  string
}

// Experience is a single entry of a volunteer's prior experience
type Experience struct {
	Title        string `json:"title"`
	Organization string `json:"organization,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Volunteer represents a database volunteer profile record
type Volunteer struct {
	ID          string
	UserID      string
	FirstName   string
	LastName    string
	Email       string
	Skills      []string
	Interests   []string
	Experience  []Experience
	DateOfBirth *time.Time // nullable

	City      string
	State     string
	Country   string
	Latitude  *float64 // nullable
	Longitude *float64 // nullable

	PreferredDays  []string
	PreferredTimes []string
	Frequency      string

	ApprovalStatus model.ApprovalStatus
	ApprovalNotes  string
	IsActive       bool

	TotalHoursVolunteered       int
	TotalOpportunitiesCompleted int

	CreatedAt time.Time
}

// DisplayName returns the volunteer's full name
func (v *Volunteer) DisplayName() string {
	if v.LastName == "" {
		return v.FirstName
	}
	return v.FirstName + " " + v.LastName
}

// Opportunity represents a database opportunity record
type Opportunity struct {
	ID             string
	CharityID      string
	Title          string
	Category       string
	RequiredSkills []string

	LocationType model.LocationType
	City         string
	State        string
	Country      string

	NumberOfVolunteers int
	ConfirmedCount     int // only changed through ApplicationUpdate.ConfirmedDelta
	ViewCount          int

	Status              model.OpportunityStatus
	ApplicationDeadline *time.Time // nullable
	StartDate           *time.Time // nullable
	EndDate             *time.Time // nullable
	Recurrence          string     // RRULE, empty for one-off opportunities

	CreatedAt time.Time
}

// Application represents a database application record
type Application struct {
	ID            string
	OpportunityID string
	VolunteerID   string
	Status        model.ApplicationStatus
	Message       string

	ReviewNotes string
	ReviewedBy  string
	ReviewedAt  *time.Time

	VettingScore            *int
	VettingNotes            string
	FlaggedForModeration    bool
	RequiresBackgroundCheck bool

	ModeratorDecision string
	ModeratorNotes    string
	ModeratedBy       string
	ModeratedAt       *time.Time

	InfoRequestedFields []string
	InfoRequestMessage  string
	InfoRequestedAt     *time.Time
	InfoResponse        map[string]string
	InfoProvidedAt      *time.Time

	IsSystemMatched bool
	MatchScore      *int

	WithdrawalReason string
	WithdrawnAt      *time.Time

	CommittedHours *int
	ConfirmedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy that shares no slices or maps with a
func (a *Application) Clone() *Application {
	c := *a
	c.InfoRequestedFields = slices.Clone(a.InfoRequestedFields)
	c.InfoResponse = maps.Clone(a.InfoResponse)
	return &c
}

// Attendance represents a database attendance record. There is at most one per (opportunity, volunteer).
type Attendance struct {
	ID            string
	OpportunityID string
	VolunteerID   string
	Status        model.AttendanceStatus
	HoursWorked   *float64 // nullable

	// Charity rating the volunteer
	VolunteerRating   *int
	VolunteerFeedback string

	// Volunteer rating the charity
	CharityRating   *int
	CharityFeedback string

	RecordedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Notification represents a database in-app notification record
type Notification struct {
	ID        string
	UserID    string
	Kind      model.NotificationKind
	Payload   map[string]string
	CreatedAt time.Time
}

// VolunteerTotals are the aggregate fields derived from attendance history
type VolunteerTotals struct {
	TotalHoursVolunteered       int
	TotalOpportunitiesCompleted int
}

// AttendanceTotals is the raw aggregate over a volunteer's attendance rows
type AttendanceTotals struct {
	HoursWorked    float64
	CompletedCount int
}

// RatingSummary is an average rating over attendance rows
type RatingSummary struct {
	Average float64
	Count   int
}
