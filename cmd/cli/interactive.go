package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/cmd/cli/commands"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

func interactiveCmd(app *commands.AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against one connection.
Use 'as <user_id> <role>' to switch the acting user.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr != "" {
				server := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						app.Logger.Warn("Metrics server stopped", zap.Error(err))
					}
				}()
				defer server.Close()
				app.Logger.Info("Serving metrics", zap.String("addr", metricsAddr))
			}

			commandSet := make(map[string]*cobra.Command)
			for _, subCmd := range cmd.Parent().Commands() {
				switch subCmd.Name() {
				case "interactive", "completion", "help":
				default:
					commandSet[subCmd.Name()] = subCmd
				}
			}

			return runSession(app, commandSet, os.Stdin, cmd.OutOrStdout())
		},
	}
}

func runSession(app *commands.AppContext, commandSet map[string]*cobra.Command, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "\nStarting interactive session...")
	fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", promptFor(app.Actor))

		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		name, cmdArgs := parts[0], parts[1:]

		switch name {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "help":
			printInteractiveHelp(out, commandSet)
			continue
		case "as":
			if len(cmdArgs) != 2 || !model.Role(cmdArgs[1]).IsValid() {
				fmt.Fprintln(out, "usage: as <user_id> <volunteer|charity|moderator>")
				continue
			}
			app.Actor = model.Actor{UserID: cmdArgs[0], Role: model.Role(cmdArgs[1])}
			continue
		}

		target, exists := commandSet[name]
		if !exists {
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for available commands)\n\n", name)
			continue
		}

		if err := runCommand(target, cmdArgs, out); err != nil {
			fmt.Fprintf(out, "Error: %s\n\n", commands.FormatError(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// runCommand executes RunE directly so PersistentPreRunE does not reconnect
func runCommand(target *cobra.Command, args []string, out io.Writer) error {
	target.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := target.ParseFlags(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}
	args = target.Flags().Args()

	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			return err
		}
	}

	target.SetOut(out)
	if target.RunE != nil {
		return target.RunE(target, args)
	}
	if target.Run != nil {
		target.Run(target, args)
	}
	return nil
}

func promptFor(actor model.Actor) string {
	if actor.UserID == "" {
		return ""
	}
	return actor.UserID + "@" + string(actor.Role)
}

func printInteractiveHelp(out io.Writer, commandSet map[string]*cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	names := make([]string, 0, len(commandSet))
	for name := range commandSet {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "  %-60s %s\n", commandSet[name].Use, commandSet[name].Short)
	}

	fmt.Fprintf(out, "\n  %-60s %s\n", "as <user_id> <role>", "Act as another user")
	fmt.Fprintf(out, "  %-60s %s\n", "help", "Show this help message")
	fmt.Fprintf(out, "  %-60s %s\n", "exit, quit", "Exit the interactive session")
}
