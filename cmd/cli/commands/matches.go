package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// FindMatchesCmd creates the findMatches command
func FindMatchesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findMatches <opportunity_id>",
		Short: "Rank approved volunteers against an opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			minScore, _ := cmd.Flags().GetInt("min-score")
			explain, _ := cmd.Flags().GetBool("explain")
			if limit <= 0 {
				limit = app.Cfg.Matching.DefaultLimit
			}
			if minScore < 0 {
				minScore = app.Cfg.Matching.DefaultMinScore
			}

			app.Logger.Debug("findMatches command",
				zap.String("opportunity_id", args[0]),
				zap.Int("limit", limit),
				zap.Int("min_score", minScore))

			result, err := app.Finder.FindMatches(app.Ctx, args[0], limit, minScore)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s: %d of %d volunteers scored %d or more\n\n",
				result.Opportunity.Title, len(result.Matches), result.PoolSize, minScore)
			for _, m := range result.Matches {
				fmt.Fprintf(out, "  %2d. %-24s %3d  %s\n", m.Rank, m.Volunteer.DisplayName(), m.Score.Value, m.Score.Band)
				if explain {
					for _, f := range m.Score.Factors {
						fmt.Fprintf(out, "        %-12s %5.1f/%-4.0f %s\n", f.Name, f.Points, f.MaxPoints, f.Reason)
					}
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum matches to show (default from config)")
	cmd.Flags().Int("min-score", -1, "Minimum score (default from config)")
	cmd.Flags().Bool("explain", false, "Show the points of each factor")

	return cmd
}

// CreateSystemMatchesCmd creates the createSystemMatches command
func CreateSystemMatchesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createSystemMatches <opportunity_id>",
		Short: "Propose the best volunteers who have not applied yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxMatches, _ := cmd.Flags().GetInt("max")
			minScore, _ := cmd.Flags().GetInt("min-score")
			if maxMatches <= 0 {
				maxMatches = app.Cfg.Matching.MaxSystemMatches
			}
			if minScore <= 0 {
				minScore = app.Cfg.Matching.SystemMatchMinScore
			}

			apps, err := services.CreateSystemMatches(app.Ctx, app.Database, app.Finder, app.Notifier, app.Logger,
				args[0], services.SystemMatchOptions{MaxMatches: maxMatches, MinScore: minScore})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(apps) == 0 {
				fmt.Fprintln(out, "No new volunteers qualify for this opportunity.")
				return nil
			}
			fmt.Fprintf(out, "\n✓ Proposed %d volunteers\n\n", len(apps))
			for i := range apps {
				printApplication(out, &apps[i])
			}
			return nil
		},
	}

	cmd.Flags().Int("max", 0, "Maximum proposals (default from config)")
	cmd.Flags().Int("min-score", 0, "Minimum score, raised to at least 50 (default from config)")

	return cmd
}

// SuggestedMatchesCmd creates the suggestedMatches command
func SuggestedMatchesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestedMatches <charity_id>",
		Short: "List pending suggestions for a charity, best score first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opportunityID, _ := cmd.Flags().GetString("opportunity")

			apps, err := services.GetSuggestedMatchesForReview(app.Ctx, app.Database, app.Logger, app.Actor, args[0], opportunityID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(apps) == 0 {
				fmt.Fprintln(out, "No suggestions awaiting review.")
				return nil
			}
			for i := range apps {
				printApplication(out, &apps[i])
			}
			return nil
		},
	}

	cmd.Flags().String("opportunity", "", "Only show suggestions for this opportunity")

	return cmd
}

// ReviewSuggestionCmd creates the reviewSuggestion command
func ReviewSuggestionCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewSuggestion <application_id> <accept|decline>",
		Short: "Accept or decline a suggested volunteer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			decision := model.Decision(strings.ToLower(args[1]))

			updated, err := services.ReviewSuggestedMatch(app.Ctx, app.Database, app.Notifier, app.Logger, app.Actor, args[0], decision, notes)
			if err != nil {
				return err
			}

			printApplication(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Review notes")

	return cmd
}
