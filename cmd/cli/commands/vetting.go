package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// VetCmd creates the vet command
func VetCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet <application_id> <score>",
		Short: "Record a vetting score (1-10) and route the application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("score must be a number: %w", err)
			}
			notes, _ := cmd.Flags().GetString("notes")
			flag, _ := cmd.Flags().GetBool("flag")
			backgroundCheck, _ := cmd.Flags().GetBool("background-check")

			updated, err := services.CompleteVetting(app.Ctx, app.Database, app.Logger, app.Actor, services.VettingParams{
				ApplicationID:           args[0],
				Score:                   score,
				Notes:                   notes,
				FlagForModeration:       flag,
				RequiresBackgroundCheck: backgroundCheck,
			})
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Vetting notes")
	cmd.Flags().Bool("flag", false, "Send the application to a moderator")
	cmd.Flags().Bool("background-check", false, "Require a background check")

	return cmd
}

// ModerateCmd creates the moderate command
func ModerateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderate <application_id> <approved|rejected>",
		Short: "Adjudicate an application as a moderator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			override, _ := cmd.Flags().GetString("status")

			updated, err := services.ModeratorReview(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor, services.ModeratorReviewParams{
				ApplicationID: args[0],
				Decision:      model.Decision(args[1]),
				Notes:         notes,
				Override:      model.ApplicationStatus(override),
			})
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Moderator notes (required when rejecting)")
	cmd.Flags().String("status", "", "Override the resulting status")

	return cmd
}

// ReviewVolunteerCmd creates the reviewVolunteer command
func ReviewVolunteerCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewVolunteer <volunteer_id> <approved|rejected>",
		Short: "Approve or reject a volunteer profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")

			v, err := services.ReviewVolunteerProfile(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor,
				args[0], model.Decision(args[1]), notes)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s) is now %s\n", v.DisplayName(), v.ID, v.ApprovalStatus)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Reason (required when rejecting)")

	return cmd
}
