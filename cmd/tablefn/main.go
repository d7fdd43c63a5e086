// Command tablefn runs the account, notification, and order handlers
// locally and operates on their tables and change events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/tablefn/internal/bootstrap"
	"github.com/alfredjeanlab/tablefn/internal/config"
	"github.com/alfredjeanlab/tablefn/internal/handlers"
	"github.com/alfredjeanlab/tablefn/internal/ui"
)

var (
	backendFlag string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "tablefn <command>",
	Short:         "Run and operate the tablefn handlers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend (dynamodb, postgres, memory); overrides TABLEFN_BACKEND")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "run", Title: "Run:"},
		&cobra.Group{ID: "data", Title: "Data:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Run
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(invokeCmd)

	// Data
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the process config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	if backendFlag != "" {
		if err := os.Setenv("TABLEFN_BACKEND", backendFlag); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

// newLogger returns the CLI logger on stderr. Text is the default format.
func newLogger(cfg *config.Config) *slog.Logger {
	return bootstrap.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat, "text")
}

// openApp loads config and builds the handlers.
func openApp(ctx context.Context, name string) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, newLogger(cfg), name)
}

// domainArg validates a domain positional argument.
func domainArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	for _, d := range handlers.Domains {
		if args[0] == d {
			return nil
		}
	}
	return fmt.Errorf("unknown domain %q (must be one of %v)", args[0], handlers.Domains)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
