package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

const volunteerColumns = `id, user_id, first_name, last_name, email, skills, interests, experience, date_of_birth,
	city, state, country, latitude, longitude, preferred_days, preferred_times, frequency,
	approval_status, approval_notes, is_active, total_hours_volunteered, total_opportunities_completed, created_at`

func scanVolunteer(row scanner) (*db.Volunteer, error) {
	var v db.Volunteer
	err := row.Scan(
		&v.ID, &v.UserID, &v.FirstName, &v.LastName, &v.Email, &v.Skills, &v.Interests, &v.Experience, &v.DateOfBirth,
		&v.City, &v.State, &v.Country, &v.Latitude, &v.Longitude, &v.PreferredDays, &v.PreferredTimes, &v.Frequency,
		&v.ApprovalStatus, &v.ApprovalNotes, &v.IsActive, &v.TotalHoursVolunteered, &v.TotalOpportunitiesCompleted, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetCharity retrieves a charity by ID
func (d *DB) GetCharity(ctx context.Context, id string) (*db.Charity, error) {
	var c db.Charity
	err := d.pool.QueryRow(ctx, `SELECT id, user_id, name, email FROM charities WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Email)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// GetVolunteer retrieves a volunteer profile by ID
func (d *DB) GetVolunteer(ctx context.Context, id string) (*db.Volunteer, error) {
	v, err := scanVolunteer(d.pool.QueryRow(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// GetVolunteerByUserID retrieves the volunteer profile owned by a user
func (d *DB) GetVolunteerByUserID(ctx context.Context, userID string) (*db.Volunteer, error) {
	v, err := scanVolunteer(d.pool.QueryRow(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// ListVolunteers retrieves volunteers matching the query, oldest first
func (d *DB) ListVolunteers(ctx context.Context, query db.VolunteerQuery) ([]db.Volunteer, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var limit *int
	if query.Limit > 0 {
		limit = &query.Limit
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+volunteerColumns+`
		FROM volunteers
		WHERE ($1::text = '' OR approval_status = $1)
		  AND (NOT $2::boolean OR is_active)
		ORDER BY created_at, id
		LIMIT $3
	`, string(query.ApprovalStatus), query.ActiveOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []db.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}
	return volunteers, nil
}

// SetVolunteerApproval records a moderation decision on a volunteer profile
func (d *DB) SetVolunteerApproval(ctx context.Context, update db.VolunteerApprovalUpdate) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE volunteers SET approval_status = $2, approval_notes = $3 WHERE id = $1
	`, update.VolunteerID, string(update.Status), update.Notes)
	if err != nil {
		return fmt.Errorf("failed to update volunteer approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// SetVolunteerTotals overwrites the derived totals with values recomputed from attendance
func (d *DB) SetVolunteerTotals(ctx context.Context, volunteerID string, totals db.VolunteerTotals) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE volunteers
		SET total_hours_volunteered = $2, total_opportunities_completed = $3
		WHERE id = $1
	`, volunteerID, totals.TotalHoursVolunteered, totals.TotalOpportunitiesCompleted)
	if err != nil {
		return fmt.Errorf("failed to update volunteer totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
