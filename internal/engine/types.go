package engine

import (
	"context"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/fetch"
)

// CatalogClient is the slice of the catalog API the engine consumes.
type CatalogClient interface {
	Entity(ctx context.Context, t catalog.EntityType, id string) (*catalog.Page, error)
	Album(ctx context.Context, id string) (*catalog.Album, error)
	TrackAlbum(ctx context.Context, id string) (*catalog.Track, *catalog.Album, error)
}

// FetchRunner runs one leaf download with tier fallback and reports the
// tier actually obtained.
type FetchRunner interface {
	Fetch(ctx context.Context, task fetch.Task) (fetch.Tier, error)
}

// Options are the per-run knobs threaded explicitly through the
// pipeline instead of living in process-wide flags.
type Options struct {
	BaseDir string
	Quality fetch.Tier

	// SmartDiscography enables the best-effort near-duplicate release
	// filter on artist expansions.
	SmartDiscography bool

	// AlbumsOnly drops single/EP children when expanding artists and
	// labels.
	AlbumsOnly bool

	// NoPlaylistIndex suppresses the M3U side artifact after playlist
	// expansions.
	NoPlaylistIndex bool

	// Concurrency bounds simultaneous leaf fetches; values below 2 keep
	// the pipeline strictly sequential.
	Concurrency int

	// NamingMode overrides the naming rule file's current mode when set.
	NamingMode string

	// DryRun resolves, expands and names everything but performs no
	// fetches and records nothing in the ledger.
	DryRun bool
}

// Result is the final tally for one orchestration run.
type Result struct {
	References  int
	Total       int
	Attempted   int
	Downloaded  int
	Skipped     int
	Failed      int
	Interrupted bool
}
