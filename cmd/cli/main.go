package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jakechorley/volunteer-match/cmd/cli/commands"
	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/clients/gmailclient"
	"github.com/jakechorley/volunteer-match/pkg/core/matching"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/scoring"
	"github.com/jakechorley/volunteer-match/pkg/notify"
	"github.com/jakechorley/volunteer-match/pkg/postgres"
	"github.com/jakechorley/volunteer-match/pkg/utils"
	"github.com/jakechorley/volunteer-match/pkg/utils/logging"
	"github.com/jakechorley/volunteer-match/pkg/viewcache"
)

var (
	env         string
	userID      string
	role        string
	verbose     bool
	metricsAddr string

	database *postgres.DB
)

func main() {
	app := &commands.AppContext{Ctx: context.Background()}

	rootCmd := &cobra.Command{
		Use:           "match",
		Short:         "Volunteer matching - rank volunteers and manage applications",
		Long:          `A CLI for matching volunteers to charity opportunities and moving applications through review, vetting, confirmation and attendance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp(app)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User ID to act as")
	rootCmd.PersistentFlags().StringVarP(&role, "role", "r", "", "Role to act as: volunteer, charity or moderator")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to the console")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during an interactive session")
	_ = rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.All(app)...)
	rootCmd.AddCommand(interactiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", commands.FormatError(err))
		closeApp(app)
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and clients
func initApp(app *commands.AppContext) error {
	var err error

	consoleLevel := zapcore.InfoLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}
	app.Logger, err = logging.InitLogger(env, logging.WithConsoleLevel(consoleLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Starting application", zap.String("environment", env))

	if role != "" && !model.Role(role).IsValid() {
		return fmt.Errorf("unknown role %q", role)
	}
	app.Actor = model.Actor{UserID: userID, Role: model.Role(role)}

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = database
	app.Migrator = database
	app.Logger.Debug("Database connected")

	app.Finder = matching.NewFinder(database, scoring.NewModel(), app.Cfg.Matching.PoolSize, app.Logger)
	app.Notifier = notify.NewDispatcher(database, app.Logger)
	app.Views = viewcache.New(app.Cfg.ViewCache.TTL, app.Cfg.ViewCache.MaxEntries)

	if app.Cfg.Email.Enabled {
		gmailClient, err := initGmail(app)
		if err != nil {
			return err
		}
		app.Emailer = gmailClient
	}

	return nil
}

// initGmail runs the OAuth flow if needed and builds the email sender
func initGmail(app *commands.AppContext) (*gmailclient.Client, error) {
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, err
	}

	token, err := utils.GetTokenWithFlow(app.Ctx, oauthConfig, env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize gmail: %w", err)
	}

	client, err := gmailclient.NewClient(app.Ctx, oauthCfg, token, app.Cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	app.Logger.Debug("Gmail client initialized")
	return client, nil
}

func closeApp(app *commands.AppContext) {
	if database != nil {
		database.Close()
		database = nil
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}
