package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"notes-retrieval/internal/service"
	"notes-retrieval/internal/storage"
)

const snippetRunes = 160

type searchOptions struct {
	hybrid    bool
	limit     int
	archived  string
	published string
	tasks     string
}

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed passages",
		Long: `Rank passages by vector similarity to the query, or with --hybrid
by reciprocal rank fusion of keyword and vector rankings.

Flag filters take true or false; leave them unset to match either.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.hybrid, "hybrid", false, "combine keyword and vector rankings")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", storage.DefaultLimit, "maximum number of results")
	cmd.Flags().StringVar(&opts.archived, "archived", "", "filter on archived notes (true|false)")
	cmd.Flags().StringVar(&opts.published, "published", "", "filter on published notes (true|false)")
	cmd.Flags().StringVar(&opts.tasks, "tasks", "", "filter on task list notes (true|false)")

	return cmd
}

func (o searchOptions) filters() (storage.Filters, error) {
	var f storage.Filters
	var err error
	if f.Archived, err = parseTriState("archived", o.archived); err != nil {
		return f, err
	}
	if f.Published, err = parseTriState("published", o.published); err != nil {
		return f, err
	}
	if f.TaskListNote, err = parseTriState("tasks", o.tasks); err != nil {
		return f, err
	}
	return f, nil
}

func parseTriState(name, s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("--%s must be true or false, got %q", name, s)
	}
	return &v, nil
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	filters, err := opts.filters()
	if err != nil {
		return err
	}

	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	resp, err := a.SearchService.Search(cmd.Context(), service.SearchRequest{
		Query:   query,
		Hybrid:  opts.hybrid,
		Limit:   opts.limit,
		Filters: filters,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(resp.Results) == 0 {
		_, _ = fmt.Fprintln(out, "No matching passages.")
		return nil
	}
	for _, hit := range resp.Results {
		title := hit.NoteTitle
		if title == "" {
			title = hit.NoteID
		}
		_, _ = fmt.Fprintf(out, "%2d. %s  [%s] score=%.4f\n", hit.Rank, title, hit.PassageID, hit.Score)
		if hit.HeadingAnchor != "" {
			_, _ = fmt.Fprintf(out, "    # %s\n", hit.HeadingAnchor)
		}
		_, _ = fmt.Fprintf(out, "    %s\n", snippet(hit.Content, snippetRunes))
	}
	return nil
}

// snippet flattens whitespace and cuts s to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
