package syncer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// AutoConfirmer approves every estimate.
type AutoConfirmer struct{}

func (AutoConfirmer) ConfirmCost(context.Context, CostEstimate) (bool, error) {
	return true, nil
}

// ThresholdConfirmer approves estimates up to MaxCost and declines the rest.
// Unattended runs use it.
type ThresholdConfirmer struct {
	MaxCost float64
}

func (c ThresholdConfirmer) ConfirmCost(_ context.Context, estimate CostEstimate) (bool, error) {
	return estimate.EstimatedCost <= c.MaxCost, nil
}

// TerminalConfirmer asks a yes/no question on In and writes the prompt to Out.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c TerminalConfirmer) ConfirmCost(ctx context.Context, estimate CostEstimate) (bool, error) {
	_, _ = fmt.Fprintf(c.Out,
		"Embedding about %s tokens from %s notes with %s will cost roughly $%s. Continue? [y/N] ",
		humanize.Comma(int64(estimate.EstimatedTokens)),
		humanize.Comma(int64(estimate.Notes)),
		estimate.Model,
		humanize.FtoaWithDigits(estimate.EstimatedCost, 4),
	)

	answer := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(c.In).ReadString('\n')
		if err != nil && line == "" {
			errCh <- err
			return
		}
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errCh:
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
