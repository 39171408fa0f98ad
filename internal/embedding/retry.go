package embedding

import (
	"context"
	"errors"
	"time"

	"notes-retrieval/internal/contextutil"
)

type embedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// withRetry runs call under policy: one cooldown-and-retry for rate limiting,
// up to MaxShrinkRetries shortened resends for oversized input, and no retry
// for anything else.
func withRetry(ctx context.Context, policy RetryPolicy, texts []string, call embedFunc) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	current := texts
	rateLimited := false
	shrinks := 0
	for {
		vectors, err := call(ctx, current)
		if err == nil {
			return vectors, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch {
		case errors.Is(err, ErrRateLimited) && !rateLimited:
			rateLimited = true
			logger.WarnContext(ctx, "embedding backend rate limited, cooling down",
				"cooldown", policy.RateLimitCooldown, "texts", len(current))
			if err := sleepContext(ctx, policy.RateLimitCooldown); err != nil {
				return nil, err
			}
		case errors.Is(err, ErrInputTooLong) && shrinks < policy.MaxShrinkRetries:
			shrinks++
			current = shrinkTexts(current, policy.ShrinkFactor)
			logger.WarnContext(ctx, "embedding input too long, shortening",
				"attempt", shrinks, "factor", policy.ShrinkFactor)
		default:
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// shrinkTexts keeps the leading factor of every text, measured in runes.
func shrinkTexts(texts []string, factor float64) []string {
	if factor <= 0 || factor >= 1 {
		factor = 0.75
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		runes := []rune(t)
		keep := int(float64(len(runes)) * factor)
		if keep < 1 && len(runes) > 0 {
			keep = 1
		}
		out[i] = string(runes[:keep])
	}
	return out
}
