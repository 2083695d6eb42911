package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("db: not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write
	ErrDuplicate = errors.New("db: duplicate record")
	// ErrStaleStatus is returned when a conditional application update finds a different status
	ErrStaleStatus = errors.New("db: application status changed concurrently")
)

// CharityStore defines the interface for charity database operations
type CharityStore interface {
	GetCharity(ctx context.Context, id string) (*Charity, error)
}

// VolunteerStore defines the interface for volunteer database operations
type VolunteerStore interface {
	GetVolunteer(ctx context.Context, id string) (*Volunteer, error)
	GetVolunteerByUserID(ctx context.Context, userID string) (*Volunteer, error)
	ListVolunteers(ctx context.Context, query VolunteerQuery) ([]Volunteer, error)
	SetVolunteerApproval(ctx context.Context, update VolunteerApprovalUpdate) error
	SetVolunteerTotals(ctx context.Context, volunteerID string, totals VolunteerTotals) error
}

// OpportunityStore defines the interface for opportunity database operations
type OpportunityStore interface {
	GetOpportunity(ctx context.Context, id string) (*Opportunity, error)
	ListOpportunities(ctx context.Context, query OpportunityQuery) ([]Opportunity, error)
	IncrementOpportunityViews(ctx context.Context, id string) error
}

// ApplicationStore defines the interface for application database operations.
// InsertApplication returns ErrDuplicate when the (opportunity, volunteer) pair already has an application.
// UpdateApplication returns ErrStaleStatus when the stored status no longer matches the expected one.
type ApplicationStore interface {
	InsertApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context, query ApplicationQuery) ([]Application, error)
	UpdateApplication(ctx context.Context, update ApplicationUpdate) error
}

// AttendanceStore defines the interface for attendance database operations
type AttendanceStore interface {
	GetAttendance(ctx context.Context, opportunityID, volunteerID string) (*Attendance, error)
	UpsertAttendance(ctx context.Context, attendance *Attendance) (*Attendance, error)
	SetCharityRating(ctx context.Context, update CharityRatingUpdate) error
	AttendanceTotals(ctx context.Context, volunteerID string) (AttendanceTotals, error)
	RatingSummary(ctx context.Context, query RatingQuery) (RatingSummary, error)
}

// NotificationStore defines the interface for notification database operations
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *Notification) error
}

// LifecycleStore is the set of stores the application lifecycle reads and writes
type LifecycleStore interface {
	CharityStore
	VolunteerStore
	OpportunityStore
	ApplicationStore
}

// AttendanceRecordStore is the set of stores used when recording attendance and ratings
type AttendanceRecordStore interface {
	LifecycleStore
	AttendanceStore
}

// Database defines the interface for all database operations.
// Both postgres.DB and the in-memory test store implement it.
type Database interface {
	LifecycleStore
	AttendanceStore
	NotificationStore
}
