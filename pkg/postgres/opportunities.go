package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

const opportunityColumns = `id, charity_id, title, category, required_skills, location_type, city, state, country,
	number_of_volunteers, confirmed_count, view_count, status, application_deadline, start_date, end_date,
	recurrence, created_at`

func scanOpportunity(row scanner) (*db.Opportunity, error) {
	var o db.Opportunity
	var status string
	err := row.Scan(
		&o.ID, &o.CharityID, &o.Title, &o.Category, &o.RequiredSkills, &o.LocationType, &o.City, &o.State, &o.Country,
		&o.NumberOfVolunteers, &o.ConfirmedCount, &o.ViewCount, &status, &o.ApplicationDeadline, &o.StartDate, &o.EndDate,
		&o.Recurrence, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = model.NormalizeOpportunityStatus(status)
	return &o, nil
}

// GetOpportunity retrieves an opportunity by ID
func (d *DB) GetOpportunity(ctx context.Context, id string) (*db.Opportunity, error) {
	o, err := scanOpportunity(d.pool.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// ListOpportunities retrieves opportunities matching the query
func (d *DB) ListOpportunities(ctx context.Context, query db.OpportunityQuery) ([]db.Opportunity, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+opportunityColumns+`
		FROM opportunities
		WHERE ($1::text = '' OR charity_id = $1)
		  AND (cardinality($2::text[]) = 0 OR id = ANY($2))
		ORDER BY id
	`, query.CharityID, textArray(query.IDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []db.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}
	return opportunities, nil
}

// IncrementOpportunityViews adds one to the view counter in a single statement
func (d *DB) IncrementOpportunityViews(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE opportunities SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment opportunity views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
