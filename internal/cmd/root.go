// Package cmd defines the soreli CLI. Every command that touches protected
// data runs through the route guard first; the guard decision picks between
// rendering, a sign-in redirect, and a forbidden view.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soreli/soreli-cli/internal"
	"github.com/soreli/soreli-cli/internal/config"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/view"
)

var (
	configPath string
	app        *internal.App
)

// ErrAccessDenied is returned when a guard blocks a command, so the process
// exits non-zero without printing a second error dump
var ErrAccessDenied = errors.New("access denied")

var rootCmd = &cobra.Command{
	Use:           "soreli",
	Short:         "Terminal client for the Soreli lesson-sharing platform",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsAppSetup(cmd) {
			return nil
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		app, err = internal.NewApp(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app == nil {
			return
		}
		if app.ForcedSignOut() {
			// One visible redirect regardless of how many requests failed.
			fmt.Fprint(cmd.ErrOrStderr(), view.SignInRedirect(guard.Decision{
				State:    guard.StateUnauthenticated,
				Redirect: guard.SignInPath,
				From:     cmd.CommandPath(),
			}))
		}
		app.Close()
	},
}

// skipsAppSetup reports whether cmd runs without config or a backend. The
// shell completion generators are subcommands (completion bash, completion
// zsh, ...), so the parent name must be checked as well.
func skipsAppSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}

// ExecuteContext runs the root command
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion wires the link-time build version into the --version flag
func SetVersion(version string) {
	rootCmd.Version = version
}

func init() {
	defaultConfig := os.Getenv("SORELI_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "soreli.json"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to the client config file")
}

// runGuarded evaluates the route guard and runs fn only on allow
func runGuarded(cmd *cobra.Command, req guard.Requirement, fn func(ctx context.Context) error) error {
	ctx := cmd.Context()
	decision := app.Evaluate(ctx, req, cmd.CommandPath())

	switch decision.State {
	case guard.StatePending:
		fmt.Fprint(cmd.OutOrStdout(), view.Pending())
		return nil
	case guard.StateUnauthenticated:
		fmt.Fprint(cmd.ErrOrStderr(), view.SignInRedirect(decision))
		return ErrAccessDenied
	case guard.StateDeny:
		fmt.Fprint(cmd.ErrOrStderr(), view.Forbidden(decision.Reason))
		return ErrAccessDenied
	}
	return fn(ctx)
}
