package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

const attendanceColumns = `id, opportunity_id, volunteer_id, status, hours_worked,
	volunteer_rating, volunteer_feedback, charity_rating, charity_feedback,
	recorded_by, created_at, updated_at`

func scanAttendance(row scanner) (*db.Attendance, error) {
	var a db.Attendance
	err := row.Scan(
		&a.ID, &a.OpportunityID, &a.VolunteerID, &a.Status, &a.HoursWorked,
		&a.VolunteerRating, &a.VolunteerFeedback, &a.CharityRating, &a.CharityFeedback,
		&a.RecordedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAttendance retrieves the attendance row for a volunteer on an opportunity
func (d *DB) GetAttendance(ctx context.Context, opportunityID, volunteerID string) (*db.Attendance, error) {
	a, err := scanAttendance(d.pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE opportunity_id = $1 AND volunteer_id = $2
	`, opportunityID, volunteerID))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// UpsertAttendance inserts or replaces the charity-owned fields of the attendance row.
// The volunteer's rating of the charity and the original ID survive an update.
func (d *DB) UpsertAttendance(ctx context.Context, attendance *db.Attendance) (*db.Attendance, error) {
	a, err := scanAttendance(d.pool.QueryRow(ctx, `
		INSERT INTO attendance (id, opportunity_id, volunteer_id, status, hours_worked,
			volunteer_rating, volunteer_feedback, recorded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (opportunity_id, volunteer_id) DO UPDATE SET
			status = EXCLUDED.status,
			hours_worked = EXCLUDED.hours_worked,
			volunteer_rating = EXCLUDED.volunteer_rating,
			volunteer_feedback = EXCLUDED.volunteer_feedback,
			recorded_by = EXCLUDED.recorded_by,
			updated_at = EXCLUDED.updated_at
		RETURNING `+attendanceColumns,
		attendance.ID, attendance.OpportunityID, attendance.VolunteerID, string(attendance.Status), attendance.HoursWorked,
		attendance.VolunteerRating, attendance.VolunteerFeedback, attendance.RecordedBy, attendance.CreatedAt, attendance.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return a, nil
}

// SetCharityRating stores the volunteer's rating on their attendance row
func (d *DB) SetCharityRating(ctx context.Context, update db.CharityRatingUpdate) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE attendance
		SET charity_rating = $3, charity_feedback = $4, updated_at = NOW()
		WHERE opportunity_id = $1 AND volunteer_id = $2
	`, update.OpportunityID, update.VolunteerID, update.Rating, update.Feedback)
	if err != nil {
		return fmt.Errorf("failed to set charity rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// AttendanceTotals sums hours and counts completed attendances for a volunteer
func (d *DB) AttendanceTotals(ctx context.Context, volunteerID string) (db.AttendanceTotals, error) {
	var totals db.AttendanceTotals
	err := d.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours_worked), 0), COUNT(*) FILTER (WHERE status IN ($2, $3))
		FROM attendance
		WHERE volunteer_id = $1
	`, volunteerID, string(model.AttendancePresent), string(model.AttendanceLate)).Scan(&totals.HoursWorked, &totals.CompletedCount)
	if err != nil {
		return db.AttendanceTotals{}, fmt.Errorf("failed to sum attendance: %w", err)
	}
	return totals, nil
}

// RatingSummary averages the ratings given to a volunteer or to a charity's opportunities
func (d *DB) RatingSummary(ctx context.Context, query db.RatingQuery) (db.RatingSummary, error) {
	if err := query.Validate(); err != nil {
		return db.RatingSummary{}, err
	}

	sql := `
		SELECT COALESCE(AVG(volunteer_rating), 0)::float8, COUNT(volunteer_rating)
		FROM attendance
		WHERE volunteer_id = $1
	`
	arg := query.VolunteerID
	if query.CharityID != "" {
		sql = `
			SELECT COALESCE(AVG(a.charity_rating), 0)::float8, COUNT(a.charity_rating)
			FROM attendance a
			JOIN opportunities o ON o.id = a.opportunity_id
			WHERE o.charity_id = $1
		`
		arg = query.CharityID
	}

	var summary db.RatingSummary
	if err := d.pool.QueryRow(ctx, sql, arg).Scan(&summary.Average, &summary.Count); err != nil {
		return db.RatingSummary{}, fmt.Errorf("failed to summarise ratings: %w", err)
	}
	return summary, nil
}
