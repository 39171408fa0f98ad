package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"notes-retrieval/internal/syncer"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bring the index up to date with the notes directory",
		Long: `Chunk and embed every note created or updated since the last sync,
and drop passages of deleted notes. An interrupted sync resumes where it stopped.

Paid providers ask for confirmation when the estimated cost exceeds
SYNC_CONFIRM_THRESHOLD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the cost confirmation prompt")

	return cmd
}

func runSync(cmd *cobra.Command, yes bool) error {
	var confirmer syncer.Confirmer = syncer.TerminalConfirmer{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	if yes {
		confirmer = syncer.AutoConfirmer{}
	}

	a, err := openApp(cmd, confirmer)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	out := cmd.OutOrStdout()
	summary, err := a.SyncService.Run(cmd.Context(), func(p syncer.Progress) {
		_, _ = fmt.Fprintf(out, "batch %d/%d: %s of %s notes\n",
			p.Batch, p.Batches, humanize.Comma(int64(p.Processed)), humanize.Comma(int64(p.Total)))
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, summary.String())
	for _, f := range summary.Failures {
		_, _ = fmt.Fprintf(out, "  %s: %v\n", f.NoteID, f.Err)
	}
	return nil
}
