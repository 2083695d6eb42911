package commands

import (
	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// ApplyCmd creates the apply command
func ApplyCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <opportunity_id>",
		Short: "Apply to an opportunity as the current volunteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			created, err := services.CreateApplication(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor,
				services.CreateApplicationParams{OpportunityID: args[0], Message: message})
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), created)
			return nil
		},
	}

	cmd.Flags().String("message", "", "Message to the charity")

	return cmd
}

// UpdateStatusCmd creates the updateStatus command
func UpdateStatusCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updateStatus <application_id> <status>",
		Short: "Set an application's status as a charity or moderator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")

			updated, err := services.UpdateApplicationStatus(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor,
				args[0], model.ApplicationStatus(args[1]), notes)
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Review notes (required when rejecting)")

	return cmd
}

// WithdrawCmd creates the withdraw command
func WithdrawCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw <application_id>",
		Short: "Withdraw the current volunteer's application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")

			updated, err := services.WithdrawApplication(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor, args[0], reason)
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("reason", "", "Reason for withdrawing")

	return cmd
}

// RequestInfoCmd creates the requestInfo command
func RequestInfoCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requestInfo <application_id> <field>...",
		Short: "Ask an applicant for more information",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			updated, err := services.RequestAdditionalInfo(app.Ctx, app.Database, app.Notifier, app.Emailer, app.Logger, app.Actor,
				services.RequestInfoParams{ApplicationID: args[0], Fields: args[1:], Message: message})
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("message", "", "Message to the applicant")

	return cmd
}

// ProvideInfoCmd creates the provideInfo command
func ProvideInfoCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "provideInfo <application_id> <field=value>...",
		Short: "Answer a request for more information",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := parseInfoPairs(args[1:])
			if err != nil {
				return err
			}

			updated, err := services.ProvideAdditionalInfo(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor, args[0], info)
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}
}

// ConfirmCmd creates the confirm command
func ConfirmCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <application_id>",
		Short: "Confirm participation in an approved application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hoursFlag, _ := cmd.Flags().GetString("hours")
			hours, err := optionalInt("hours", hoursFlag)
			if err != nil {
				return err
			}

			updated, err := services.ConfirmParticipation(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor, args[0], hours)
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("hours", "", "Committed hours (1-168)")

	return cmd
}
