package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// RecordAttendanceCmd creates the recordAttendance command
func RecordAttendanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordAttendance <opportunity_id> <volunteer_id> <present|absent|late|excused>",
		Short: "Record a confirmed volunteer's attendance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			hoursFlag, _ := cmd.Flags().GetString("hours")
			ratingFlag, _ := cmd.Flags().GetString("rating")
			feedback, _ := cmd.Flags().GetString("feedback")

			hours, err := optionalFloat("hours", hoursFlag)
			if err != nil {
				return err
			}
			rating, err := optionalInt("rating", ratingFlag)
			if err != nil {
				return err
			}

			record, err := services.RecordAttendance(app.Ctx, app.Database, app.Logger, app.Actor, services.AttendanceParams{
				OpportunityID: args[0],
				VolunteerID:   args[1],
				Status:        model.AttendanceStatus(args[2]),
				HoursWorked:   hours,
				Rating:        rating,
				Feedback:      feedback,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Attendance %s recorded as %s\n", record.ID, record.Status)

			v, err := app.Database.GetVolunteer(app.Ctx, record.VolunteerID)
			if err != nil {
				return fmt.Errorf("failed to reload volunteer: %w", err)
			}
			fmt.Fprintf(out, "  %s: %d hours over %d opportunities\n",
				v.DisplayName(), v.TotalHoursVolunteered, v.TotalOpportunitiesCompleted)
			return nil
		},
	}

	cmd.Flags().String("hours", "", "Hours worked (0-168)")
	cmd.Flags().String("rating", "", "Rating of the volunteer (1-5)")
	cmd.Flags().String("feedback", "", "Feedback for the volunteer")

	return cmd
}

// RateOpportunityCmd creates the rateOpportunity command
func RateOpportunityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rateOpportunity <opportunity_id> <rating>",
		Short: "Rate an attended opportunity (1-5) as the current volunteer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number: %w", err)
			}
			feedback, _ := cmd.Flags().GetString("feedback")

			err = services.RateOpportunity(app.Ctx, app.Database, app.Logger, app.Actor, services.RateOpportunityParams{
				OpportunityID: args[0],
				Rating:        rating,
				Feedback:      feedback,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Rating recorded")
			return nil
		},
	}

	cmd.Flags().String("feedback", "", "Feedback for the charity")

	return cmd
}

// RatingsCmd creates the ratings command
func RatingsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ratings <volunteer|charity> <id>",
		Short: "Show the average rating of a volunteer or charity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary db.RatingSummary
			var err error
			switch args[0] {
			case "volunteer":
				summary, err = services.VolunteerRating(app.Ctx, app.Database, args[1])
			case "charity":
				summary, err = services.CharityRating(app.Ctx, app.Database, args[1])
			default:
				return fmt.Errorf("expected volunteer or charity, got %q", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary.Count == 0 {
				fmt.Fprintf(out, "%s %s has no ratings yet\n", args[0], args[1])
				return nil
			}
			fmt.Fprintf(out, "%s %s: %.2f from %d ratings\n", args[0], args[1], summary.Average, summary.Count)
			return nil
		},
	}
}
