package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/core/matching"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/viewcache"
)

// Migrator applies the database schema
type Migrator interface {
	RunMigrations(ctx context.Context, logger *zap.Logger) error
}

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Migrator Migrator
	Finder   *matching.Finder
	Notifier services.Notifier
	// Emailer is nil when email is disabled
	Emailer services.EmailSender
	Views   *viewcache.Cache
	Actor   model.Actor
	Logger  *zap.Logger
	Ctx     context.Context
}

// All returns every operation command bound to app
func All(app *AppContext) []*cobra.Command {
	return []*cobra.Command{
		MigrateCmd(app),
		FindMatchesCmd(app),
		CreateSystemMatchesCmd(app),
		SuggestedMatchesCmd(app),
		ReviewSuggestionCmd(app),
		ApplyCmd(app),
		UpdateStatusCmd(app),
		WithdrawCmd(app),
		RequestInfoCmd(app),
		ProvideInfoCmd(app),
		VetCmd(app),
		ModerateCmd(app),
		ConfirmCmd(app),
		RecordAttendanceCmd(app),
		RateOpportunityCmd(app),
		RatingsCmd(app),
		ReviewVolunteerCmd(app),
		ViewOpportunityCmd(app),
	}
}
