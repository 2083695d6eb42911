//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// Run with: MATCH_TEST_DATABASE_URL=postgres://... go test -tags integration ./pkg/postgres/
func setupDB(t *testing.T) (*DB, func(string) string) {
	t.Helper()

	connString := os.Getenv("MATCH_TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("MATCH_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := NewDB(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.RunMigrations(ctx, zap.NewNop()))
	// Running twice must be a no-op
	require.NoError(t, database.RunMigrations(ctx, zap.NewNop()))

	suffix := uuid.NewString()[:8]
	return database, func(id string) string { return id + "-" + suffix }
}

func seed(t *testing.T, d *DB, id func(string) string) {
	t.Helper()
	ctx := context.Background()

	_, err := d.pool.Exec(ctx, `INSERT INTO charities (id, user_id, name) VALUES ($1, $2, 'Food bank')`,
		id("charity"), id("user-charity"))
	require.NoError(t, err)

	_, err = d.pool.Exec(ctx, `
		INSERT INTO volunteers (id, user_id, first_name, skills, approval_status)
		VALUES ($1, $2, 'Vol', '{Teaching}', 'approved')
	`, id("vol"), id("user-vol"))
	require.NoError(t, err)

	_, err = d.pool.Exec(ctx, `
		INSERT INTO opportunities (id, charity_id, title, required_skills, status, location_type)
		VALUES ($1, $2, 'Homework club', '{Teaching}', 'active', 'virtual')
	`, id("opp"), id("charity"))
	require.NoError(t, err)
}

func newApplication(id func(string) string) *db.Application {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &db.Application{
		ID:            id("app"),
		OpportunityID: id("opp"),
		VolunteerID:   id("vol"),
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestDB_Lookups(t *testing.T) {
	d, id := setupDB(t)
	seed(t, d, id)
	ctx := context.Background()

	opp, err := d.GetOpportunity(ctx, id("opp"))
	require.NoError(t, err)
	assert.Equal(t, model.OpportunityPublished, opp.Status)
	assert.Equal(t, []string{"Teaching"}, opp.RequiredSkills)

	v, err := d.GetVolunteerByUserID(ctx, id("user-vol"))
	require.NoError(t, err)
	assert.Equal(t, id("vol"), v.ID)
	assert.Empty(t, v.Experience)

	_, err = d.GetCharity(ctx, id("missing"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	opps, err := d.ListOpportunities(ctx, db.OpportunityQuery{CharityID: id("charity")})
	require.NoError(t, err)
	require.Len(t, opps, 1)
}

func TestDB_InsertApplicationDuplicate(t *testing.T) {
	d, id := setupDB(t)
	seed(t, d, id)
	ctx := context.Background()

	require.NoError(t, d.InsertApplication(ctx, newApplication(id)))

	dup := newApplication(id)
	dup.ID = id("app-2")
	assert.ErrorIs(t, d.InsertApplication(ctx, dup), db.ErrDuplicate)
}

func TestDB_UpdateApplication(t *testing.T) {
	d, id := setupDB(t)
	seed(t, d, id)
	ctx := context.Background()

	app := newApplication(id)
	app.Status = model.StatusApproved
	require.NoError(t, d.InsertApplication(ctx, app))

	hours := 4
	app.Status = model.StatusConfirmed
	app.CommittedHours = &hours
	app.InfoResponse = map[string]string{"dbs": "yes"}
	require.NoError(t, d.UpdateApplication(ctx, db.ApplicationUpdate{
		Application:    app,
		ExpectedStatus: model.StatusApproved,
		ConfirmedDelta: 1,
	}))

	stored, err := d.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, stored.Status)
	assert.Equal(t, &hours, stored.CommittedHours)
	assert.Equal(t, map[string]string{"dbs": "yes"}, stored.InfoResponse)

	opp, err := d.GetOpportunity(ctx, id("opp"))
	require.NoError(t, err)
	assert.Equal(t, 1, opp.ConfirmedCount)

	// Stale expected status
	err = d.UpdateApplication(ctx, db.ApplicationUpdate{Application: app, ExpectedStatus: model.StatusApproved, ConfirmedDelta: 1})
	assert.ErrorIs(t, err, db.ErrStaleStatus)

	// Missing application
	missing := *app
	missing.ID = id("missing")
	err = d.UpdateApplication(ctx, db.ApplicationUpdate{Application: &missing, ExpectedStatus: model.StatusConfirmed})
	assert.ErrorIs(t, err, db.ErrNotFound)

	// The counter never goes below zero
	app.Status = model.StatusWithdrawn
	require.NoError(t, d.UpdateApplication(ctx, db.ApplicationUpdate{Application: app, ExpectedStatus: model.StatusConfirmed, ConfirmedDelta: -5}))
	opp, err = d.GetOpportunity(ctx, id("opp"))
	require.NoError(t, err)
	assert.Equal(t, 0, opp.ConfirmedCount)
}

func TestDB_ListApplicationsOrder(t *testing.T) {
	d, id := setupDB(t)
	seed(t, d, id)
	ctx := context.Background()

	_, err := d.pool.Exec(ctx, `
		INSERT INTO volunteers (id, user_id, first_name, approval_status) VALUES ($1, $2, 'Other', 'approved')
	`, id("vol-2"), id("user-vol-2"))
	require.NoError(t, err)

	low, high := 60, 90
	first := newApplication(id)
	first.IsSystemMatched = true
	first.MatchScore = &low
	require.NoError(t, d.InsertApplication(ctx, first))

	second := newApplication(id)
	second.ID = id("app-2")
	second.VolunteerID = id("vol-2")
	second.IsSystemMatched = true
	second.MatchScore = &high
	require.NoError(t, d.InsertApplication(ctx, second))

	systemMatched := true
	apps, err := d.ListApplications(ctx, db.ApplicationQuery{
		OpportunityIDs: []string{id("opp")},
		Statuses:       []model.ApplicationStatus{model.StatusPending},
		SystemMatched:  &systemMatched,
		OrderBy:        db.OrderScoreDesc,
	})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].ID)
	assert.Equal(t, first.ID, apps[1].ID)
}

func TestDB_Attendance(t *testing.T) {
	d, id := setupDB(t)
	seed(t, d, id)
	ctx := context.Background()

	hours := 2.5
	rating := 4
	now := time.Now().UTC()
	record := &db.Attendance{
		ID:              id("att"),
		OpportunityID:   id("opp"),
		VolunteerID:     id("vol"),
		Status:          model.AttendancePresent,
		HoursWorked:     &hours,
		VolunteerRating: &rating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stored, err := d.UpsertAttendance(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, id("att"), stored.ID)

	require.NoError(t, d.SetCharityRating(ctx, db.CharityRatingUpdate{
		OpportunityID: id("opp"), VolunteerID: id("vol"), Rating: 5, Feedback: "great",
	}))

	// A second upsert keeps the original row and the volunteer's rating of the charity
	record.ID = id("att-2")
	record.Status = model.AttendanceLate
	stored, err = d.UpsertAttendance(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, id("att"), stored.ID)
	assert.Equal(t, model.AttendanceLate, stored.Status)
	require.NotNil(t, stored.CharityRating)
	assert.Equal(t, 5, *stored.CharityRating)

	totals, err := d.AttendanceTotals(ctx, id("vol"))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, totals.HoursWorked, 0.001)
	assert.Equal(t, 1, totals.CompletedCount)

	summary, err := d.RatingSummary(ctx, db.RatingQuery{CharityID: id("charity")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 5.0, summary.Average, 0.001)

	err = d.SetCharityRating(ctx, db.CharityRatingUpdate{OpportunityID: id("opp"), VolunteerID: id("missing"), Rating: 3})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_ViewsAndNotifications(t *testing.T) {
	d, id := setupDB(t)
	seed(t, d, id)
	ctx := context.Background()

	require.NoError(t, d.IncrementOpportunityViews(ctx, id("opp")))
	require.NoError(t, d.IncrementOpportunityViews(ctx, id("opp")))
	opp, err := d.GetOpportunity(ctx, id("opp"))
	require.NoError(t, err)
	assert.Equal(t, 2, opp.ViewCount)

	assert.ErrorIs(t, d.IncrementOpportunityViews(ctx, id("missing")), db.ErrNotFound)

	require.NoError(t, d.InsertNotification(ctx, &db.Notification{
		ID:        id("note"),
		UserID:    id("user-vol"),
		Kind:      model.NotifyApplicationStatus,
		CreatedAt: time.Now().UTC(),
	}))
}
