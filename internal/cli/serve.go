package cli

import (
	"github.com/spf13/cobra"

	"notes-retrieval/internal/http"
	"notes-retrieval/internal/syncer"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default API_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, port string) error {
	cliCtx := GetCLIContext(cmd)
	if port == "" {
		port = cliCtx.Config.APIPort
	}

	a, err := openApp(cmd, syncer.ThresholdConfirmer{MaxCost: cliCtx.Config.SyncAutoConfirmMaxCost})
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	ctx := cmd.Context()
	if spec := cliCtx.Config.SyncSchedule; spec != "" {
		stop, err := a.SyncService.Schedule(ctx, spec)
		if err != nil {
			return err
		}
		defer stop()
	}

	router := http.NewRouter(&http.Deps{
		SearchService: a.SearchService,
		SyncService:   a.SyncService,
		Health:        a.HealthHandler(),
	})
	return http.Serve(ctx, ":"+port, router)
}
