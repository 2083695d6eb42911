package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// ViewOpportunityCmd creates the viewOpportunity command
func ViewOpportunityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewOpportunity <opportunity_id> <client_key>",
		Short: "Count a view of an opportunity once per client within the cache window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			counted, err := services.RecordOpportunityView(app.Ctx, app.Database, app.Views, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			if counted {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ View counted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "View already counted for this client")
			}
			return nil
		},
	}
}
