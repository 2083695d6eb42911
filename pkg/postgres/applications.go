package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

const applicationColumns = `id, opportunity_id, volunteer_id, status, message,
	review_notes, reviewed_by, reviewed_at,
	vetting_score, vetting_notes, flagged_for_moderation, requires_background_check,
	moderator_decision, moderator_notes, moderated_by, moderated_at,
	info_requested_fields, info_request_message, info_requested_at, info_response, info_provided_at,
	is_system_matched, match_score, withdrawal_reason, withdrawn_at,
	committed_hours, confirmed_at, created_at, updated_at`

func scanApplication(row scanner) (*db.Application, error) {
	var a db.Application
	err := row.Scan(
		&a.ID, &a.OpportunityID, &a.VolunteerID, &a.Status, &a.Message,
		&a.ReviewNotes, &a.ReviewedBy, &a.ReviewedAt,
		&a.VettingScore, &a.VettingNotes, &a.FlaggedForModeration, &a.RequiresBackgroundCheck,
		&a.ModeratorDecision, &a.ModeratorNotes, &a.ModeratedBy, &a.ModeratedAt,
		&a.InfoRequestedFields, &a.InfoRequestMessage, &a.InfoRequestedAt, &a.InfoResponse, &a.InfoProvidedAt,
		&a.IsSystemMatched, &a.MatchScore, &a.WithdrawalReason, &a.WithdrawnAt,
		&a.CommittedHours, &a.ConfirmedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertApplication inserts a new application.
// The (opportunity_id, volunteer_id) unique constraint turns a concurrent duplicate into db.ErrDuplicate.
func (d *DB) InsertApplication(ctx context.Context, app *db.Application) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO applications (id, opportunity_id, volunteer_id, status, message, is_system_matched, match_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, app.ID, app.OpportunityID, app.VolunteerID, string(app.Status), app.Message,
		app.IsSystemMatched, app.MatchScore, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrDuplicate
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// GetApplication retrieves an application by ID
func (d *DB) GetApplication(ctx context.Context, id string) (*db.Application, error) {
	a, err := scanApplication(d.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListApplications retrieves applications matching the query in the requested order
func (d *DB) ListApplications(ctx context.Context, query db.ApplicationQuery) ([]db.Application, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orderBy := `created_at, id`
	if query.OrderBy == db.OrderScoreDesc {
		orderBy = `match_score DESC NULLS LAST, created_at DESC, id`
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE (cardinality($1::text[]) = 0 OR opportunity_id = ANY($1))
		  AND (cardinality($2::text[]) = 0 OR volunteer_id = ANY($2))
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3))
		  AND ($4::boolean IS NULL OR is_system_matched = $4)
		ORDER BY `+orderBy,
		textArray(query.OpportunityIDs), textArray(query.VolunteerIDs), textArray(query.Statuses), query.SystemMatched)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []db.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	return apps, nil
}

// UpdateApplication writes every mutable column of the application if its stored status still equals
// update.ExpectedStatus, and applies update.ConfirmedDelta to the opportunity's counter in the same transaction.
func (d *DB) UpdateApplication(ctx context.Context, update db.ApplicationUpdate) error {
	a := update.Application

	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE applications SET
				status = $3, message = $4,
				review_notes = $5, reviewed_by = $6, reviewed_at = $7,
				vetting_score = $8, vetting_notes = $9, flagged_for_moderation = $10, requires_background_check = $11,
				moderator_decision = $12, moderator_notes = $13, moderated_by = $14, moderated_at = $15,
				info_requested_fields = $16, info_request_message = $17, info_requested_at = $18,
				info_response = $19, info_provided_at = $20,
				match_score = $21, withdrawal_reason = $22, withdrawn_at = $23,
				committed_hours = $24, confirmed_at = $25, updated_at = $26
			WHERE id = $1 AND status = $2
		`,
			a.ID, string(update.ExpectedStatus),
			string(a.Status), a.Message,
			a.ReviewNotes, a.ReviewedBy, a.ReviewedAt,
			a.VettingScore, a.VettingNotes, a.FlaggedForModeration, a.RequiresBackgroundCheck,
			a.ModeratorDecision, a.ModeratorNotes, a.ModeratedBy, a.ModeratedAt,
			textArray(a.InfoRequestedFields), a.InfoRequestMessage, a.InfoRequestedAt,
			a.InfoResponse, a.InfoProvidedAt,
			a.MatchScore, a.WithdrawalReason, a.WithdrawnAt,
			a.CommittedHours, a.ConfirmedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check application: %w", err)
			}
			if !exists {
				return db.ErrNotFound
			}
			return db.ErrStaleStatus
		}

		if update.ConfirmedDelta == 0 {
			return nil
		}

		tag, err = tx.Exec(ctx, `
			UPDATE opportunities
			SET confirmed_count = GREATEST(confirmed_count + $2, 0)
			WHERE id = $1
		`, a.OpportunityID, update.ConfirmedDelta)
		if err != nil {
			return fmt.Errorf("failed to update confirmed count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errors.New("opportunity missing for application " + a.ID)
		}
		return nil
	})
}
