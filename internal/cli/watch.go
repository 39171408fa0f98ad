package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/syncer"
	"notes-retrieval/internal/vault"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync whenever notes change",
		Long: `Run a sync, then watch the notes directory and sync again after
changes settle for WATCH_DEBOUNCE. Costs above SYNC_AUTO_CONFIRM_MAX_COST
are declined. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return fmt.Errorf("CLI context not initialized")
	}
	a, err := openApp(cmd, syncer.ThresholdConfirmer{MaxCost: cliCtx.Config.SyncAutoConfirmMaxCost})
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	ctx := cmd.Context()
	logger := contextutil.LoggerFromContext(ctx)
	out := cmd.OutOrStdout()

	syncOnce := func(ctx context.Context) {
		summary, err := a.SyncService.Run(ctx, nil)
		if err != nil {
			logger.Warn("sync failed", "error", err)
			return
		}
		_, _ = fmt.Fprintln(out, summary.String())
	}

	w, err := vault.NewWatcher(a.Source, cliCtx.Config.WatchDebounce, func(ctx context.Context, paths []string) {
		logger.Debug("notes changed", "paths", len(paths))
		a.Orchestrator.InvalidateState()
		syncOnce(ctx)
	})
	if err != nil {
		return err
	}

	syncOnce(ctx)
	_, _ = fmt.Fprintf(out, "Watching %s\n", a.Source.Root)
	return w.Run(ctx)
}
