package fetch

import (
	"context"
	"errors"

	"github.com/qdl-tool/qdl/internal/catalog"
)

// Task describes one leaf download. Album and Track carry pre-fetched
// metadata so the writer does not refetch what the pipeline already
// resolved; Dir is the final, sanitized destination folder.
type Task struct {
	ItemID  string
	Type    catalog.EntityType
	Dir     string
	Quality Tier
	Profile string

	Album *catalog.Album
	Track *catalog.Track
}

// MediaWriter performs one download attempt at one fixed tier.
type MediaWriter interface {
	Fetch(ctx context.Context, task Task, tier Tier) error
}

// Fetcher wraps a MediaWriter with tier fallback: the requested tier is
// tried first and, when the catalog reports that tier unavailable,
// every lower tier is tried in descending fidelity order. Transport
// failures are terminal and never retried across tiers.
type Fetcher struct {
	Writer   MediaWriter
	Fallback bool
}

// Fetch runs the fallback loop and reports the tier actually obtained
// so callers can log a downgrade from the requested tier.
func (f *Fetcher) Fetch(ctx context.Context, task Task) (Tier, error) {
	tiers := FallbackOrder(task.Quality)
	if !f.Fallback {
		tiers = tiers[:1]
	}

	var lastErr error
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err := f.Writer.Fetch(ctx, task, tier)
		if err == nil {
			return tier, nil
		}
		if !errors.Is(err, catalog.ErrUnstreamable) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}
