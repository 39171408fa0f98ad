package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"notes-retrieval/internal/indexer"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index sync state and size",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	status, err := a.SyncService.Status(cmd.Context())
	if err != nil {
		return err
	}

	last := "never"
	if !status.LastSyncTime.IsZero() {
		last = humanize.Time(status.LastSyncTime)
	}
	counts, err := a.Store.TokenCounts(cmd.Context())
	if err != nil {
		return err
	}
	tokens := indexer.ComputeTokenStats(counts)
	meta := a.Provider.Metadata()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "State:      %s\n", status.State)
	_, _ = fmt.Fprintf(out, "Last sync:  %s\n", last)
	_, _ = fmt.Fprintf(out, "Notes:      %s\n", humanize.Comma(int64(status.Stats.Notes)))
	_, _ = fmt.Fprintf(out, "Passages:   %s (%s with vectors)\n",
		humanize.Comma(int64(status.Stats.Passages)), humanize.Comma(int64(status.Stats.VectoredPassages)))
	if len(counts) > 0 {
		_, _ = fmt.Fprintf(out, "Tokens:     min %d, mean %.1f, p95 %d, max %d per passage\n",
			tokens.Min, tokens.Mean, tokens.P95, tokens.Max)
	}
	_, _ = fmt.Fprintf(out, "Model:      %s\n", meta.Model)
	_, _ = fmt.Fprintf(out, "Index:      %s\n", a.Config.DBPath)
	if a.Mirror != nil {
		_, _ = fmt.Fprintf(out, "Qdrant:     %s\n", a.Mirror.Collection())
	}
	return nil
}
