// Package cli implements the noteindex command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"notes-retrieval/internal/app"
	"notes-retrieval/internal/config"
	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/syncer"
)

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	Verbose bool
	Quiet   bool
}

type contextKey struct{}

// CLIContext carries the loaded configuration to subcommands.
type CLIContext struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewRootCmd creates the noteindex root command.
func NewRootCmd() *cobra.Command {
	var flags GlobalFlags

	rootCmd := &cobra.Command{
		Use:   "noteindex",
		Short: "Index and search markdown notes",
		Long: `noteindex splits markdown notes into passages, embeds them and
answers semantic and hybrid queries from a local SQLite index.

Configuration comes from the environment or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if flags.Verbose {
				cfg.LogLevel = slog.LevelDebug
			}
			if flags.Quiet {
				cfg.LogLevel = slog.LevelError
			}
			logger := cfg.NewLogger()
			slog.SetDefault(logger)

			ctx := contextutil.WithLogger(cmd.Context(), logger)
			cmd.SetContext(context.WithValue(ctx, contextKey{}, &CLIContext{Config: cfg, Logger: logger}))
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewServeCmd())

	return rootCmd
}

// GetCLIContext returns the context set up by the root command.
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, ok := ctx.Value(contextKey{}).(*CLIContext)
	if !ok {
		return nil
	}
	return cliCtx
}

// openApp builds the application for one command. The caller closes it.
func openApp(cmd *cobra.Command, confirmer syncer.Confirmer) (*app.App, error) {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return nil, fmt.Errorf("CLI context not initialized")
	}
	return app.New(cmd.Context(), cliCtx.Config, confirmer)
}

func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(context.WithoutCancel(cmd.Context())); err != nil {
		contextutil.LoggerFromContext(cmd.Context()).Warn("failed to close index", "error", err)
	}
}
