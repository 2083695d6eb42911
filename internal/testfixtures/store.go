package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// Store is an in-memory db.Database. It enforces the same constraints as the Postgres store:
// one application and one attendance row per (opportunity, volunteer), conditional status
// updates and atomic confirmed-count changes.
type Store struct {
	mu sync.Mutex

	charities     map[string]db.Charity
	volunteers    map[string]db.Volunteer
	opportunities map[string]db.Opportunity
	applications  map[string]db.Application
	attendance    map[pairKey]db.Attendance
	notifications []db.Notification

	// FailNotifications makes InsertNotification fail, for exercising best-effort dispatch
	FailNotifications bool
}

type pairKey struct {
	opportunityID string
	volunteerID   string
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{
		charities:     make(map[string]db.Charity),
		volunteers:    make(map[string]db.Volunteer),
		opportunities: make(map[string]db.Opportunity),
		applications:  make(map[string]db.Application),
		attendance:    make(map[pairKey]db.Attendance),
	}
}

var _ db.Database = (*Store)(nil)

// ----------------------------- Seeding -----------------------------

func (s *Store) AddCharity(c db.Charity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charities[c.ID] = c
}

func (s *Store) AddVolunteer(v db.Volunteer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volunteers[v.ID] = v
}

func (s *Store) AddOpportunity(o db.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities[o.ID] = o
}

// AddApplication seeds an application without the uniqueness check
func (s *Store) AddApplication(a db.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[a.ID] = *a.Clone()
}

func (s *Store) AddAttendance(a db.Attendance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[pairKey{a.OpportunityID, a.VolunteerID}] = a
}

// Applications returns every stored application ordered by creation time then ID
func (s *Store) Applications() []db.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Application, 0, len(s.applications))
	for _, a := range s.applications {
		out = append(out, *a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Notifications returns the notifications inserted so far, oldest first
func (s *Store) Notifications() []db.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.Notification(nil), s.notifications...)
}

// NotificationsFor returns the notifications addressed to userID
func (s *Store) NotificationsFor(userID string) []db.Notification {
	var out []db.Notification
	for _, n := range s.Notifications() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// ----------------------------- CharityStore -----------------------------

func (s *Store) GetCharity(ctx context.Context, id string) (*db.Charity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charities[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

// ----------------------------- VolunteerStore -----------------------------

func (s *Store) GetVolunteer(ctx context.Context, id string) (*db.Volunteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volunteers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (s *Store) GetVolunteerByUserID(ctx context.Context, userID string) (*db.Volunteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.volunteers {
		if v.UserID == userID {
			return &v, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) ListVolunteers(ctx context.Context, query db.VolunteerQuery) ([]db.Volunteer, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Volunteer
	for _, v := range s.volunteers {
		if query.Matches(&v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) SetVolunteerApproval(ctx context.Context, update db.VolunteerApprovalUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volunteers[update.VolunteerID]
	if !ok {
		return db.ErrNotFound
	}
	v.ApprovalStatus = update.Status
	v.ApprovalNotes = update.Notes
	s.volunteers[v.ID] = v
	return nil
}

func (s *Store) SetVolunteerTotals(ctx context.Context, volunteerID string, totals db.VolunteerTotals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volunteers[volunteerID]
	if !ok {
		return db.ErrNotFound
	}
	v.TotalHoursVolunteered = totals.TotalHoursVolunteered
	v.TotalOpportunitiesCompleted = totals.TotalOpportunitiesCompleted
	s.volunteers[v.ID] = v
	return nil
}

// ----------------------------- OpportunityStore -----------------------------

func (s *Store) GetOpportunity(ctx context.Context, id string) (*db.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.opportunities[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	o.Status = model.NormalizeOpportunityStatus(string(o.Status))
	return &o, nil
}

func (s *Store) ListOpportunities(ctx context.Context, query db.OpportunityQuery) ([]db.Opportunity, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Opportunity
	for _, o := range s.opportunities {
		if query.Matches(&o) {
			o.Status = model.NormalizeOpportunityStatus(string(o.Status))
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) IncrementOpportunityViews(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.opportunities[id]
	if !ok {
		return db.ErrNotFound
	}
	o.ViewCount++
	s.opportunities[id] = o
	return nil
}

// ----------------------------- ApplicationStore -----------------------------

func (s *Store) InsertApplication(ctx context.Context, app *db.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[app.ID]; ok {
		return db.ErrDuplicate
	}
	for _, existing := range s.applications {
		if existing.OpportunityID == app.OpportunityID && existing.VolunteerID == app.VolunteerID {
			return db.ErrDuplicate
		}
	}
	s.applications[app.ID] = *app.Clone()
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) ListApplications(ctx context.Context, query db.ApplicationQuery) ([]db.Application, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Application
	for _, a := range s.applications {
		if query.Matches(&a) {
			out = append(out, *a.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if query.OrderBy == db.OrderScoreDesc {
			si, sj := scoreOf(out[i]), scoreOf(out[j])
			if si != sj {
				return si > sj
			}
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func scoreOf(a db.Application) int {
	if a.MatchScore == nil {
		return -1
	}
	return *a.MatchScore
}

func (s *Store) UpdateApplication(ctx context.Context, update db.ApplicationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app := update.Application
	current, ok := s.applications[app.ID]
	if !ok {
		return db.ErrNotFound
	}
	if current.Status != update.ExpectedStatus {
		return db.ErrStaleStatus
	}

	if update.ConfirmedDelta != 0 {
		o, ok := s.opportunities[app.OpportunityID]
		if !ok {
			return fmt.Errorf("opportunity %s missing for application %s", app.OpportunityID, app.ID)
		}
		o.ConfirmedCount = max(o.ConfirmedCount+update.ConfirmedDelta, 0)
		s.opportunities[o.ID] = o
	}

	s.applications[app.ID] = *app.Clone()
	return nil
}

// ----------------------------- AttendanceStore -----------------------------

func (s *Store) GetAttendance(ctx context.Context, opportunityID, volunteerID string) (*db.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendance[pairKey{opportunityID, volunteerID}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &a, nil
}

// UpsertAttendance writes the charity-owned columns and keeps the id, creation time and
// volunteer-given rating of an existing row
func (s *Store) UpsertAttendance(ctx context.Context, attendance *db.Attendance) (*db.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{attendance.OpportunityID, attendance.VolunteerID}
	row := *attendance
	if existing, ok := s.attendance[key]; ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		row.CharityRating = existing.CharityRating
		row.CharityFeedback = existing.CharityFeedback
	}
	s.attendance[key] = row
	return &row, nil
}

func (s *Store) SetCharityRating(ctx context.Context, update db.CharityRatingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{update.OpportunityID, update.VolunteerID}
	row, ok := s.attendance[key]
	if !ok {
		return db.ErrNotFound
	}
	rating := update.Rating
	row.CharityRating = &rating
	row.CharityFeedback = update.Feedback
	row.UpdatedAt = time.Now()
	s.attendance[key] = row
	return nil
}

func (s *Store) AttendanceTotals(ctx context.Context, volunteerID string) (db.AttendanceTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals db.AttendanceTotals
	for _, a := range s.attendance {
		if a.VolunteerID != volunteerID {
			continue
		}
		if a.HoursWorked != nil {
			totals.HoursWorked += *a.HoursWorked
		}
		if a.Status.Completed() {
			totals.CompletedCount++
		}
	}
	return totals, nil
}

func (s *Store) RatingSummary(ctx context.Context, query db.RatingQuery) (db.RatingSummary, error) {
	if err := query.Validate(); err != nil {
		return db.RatingSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sum, count int
	for _, a := range s.attendance {
		var rating *int
		if query.VolunteerID != "" {
			if a.VolunteerID != query.VolunteerID {
				continue
			}
			rating = a.VolunteerRating
		} else {
			o, ok := s.opportunities[a.OpportunityID]
			if !ok || o.CharityID != query.CharityID {
				continue
			}
			rating = a.CharityRating
		}
		if rating != nil {
			sum += *rating
			count++
		}
	}
	if count == 0 {
		return db.RatingSummary{}, nil
	}
	return db.RatingSummary{Average: float64(sum) / float64(count), Count: count}, nil
}

// ----------------------------- NotificationStore -----------------------------

func (s *Store) InsertNotification(ctx context.Context, n *db.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNotifications {
		return fmt.Errorf("notification store unavailable")
	}
	s.notifications = append(s.notifications, *n)
	return nil
}
