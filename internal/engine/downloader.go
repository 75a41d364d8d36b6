package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/fetch"
	"github.com/qdl-tool/qdl/internal/ledger"
	"github.com/qdl-tool/qdl/internal/naming"
	"github.com/qdl-tool/qdl/internal/output"
)

var ErrInterrupted = errors.New("download run interrupted")

// Downloader drives the per-reference pipeline: resolve, expand, check
// the ledger, resolve names, fetch with tier fallback, record. Failures
// stay local to one leaf and never abort sibling items or references.
type Downloader struct {
	Client  CatalogClient
	Fetcher FetchRunner
	Ledger  ledger.Ledger
	Names   *naming.Store
	Emitter output.EventEmitter
	Now     func() time.Time
}

func NewDownloader(client CatalogClient, fetcher FetchRunner, led ledger.Ledger, names *naming.Store, emitter output.EventEmitter) *Downloader {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	if led == nil {
		led = ledger.Disabled{}
	}
	return &Downloader{
		Client:  client,
		Fetcher: fetcher,
		Ledger:  led,
		Names:   names,
		Emitter: emitter,
		Now:     time.Now,
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(output.Event) error { return nil }

// runState carries the tally and the per-run in-flight set that keeps
// concurrent fetches of the same item id from racing the ledger.
type runState struct {
	mu       sync.Mutex
	result   Result
	inFlight map[string]bool
}

func (s *runState) claim(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[itemID] {
		return false
	}
	s.inFlight[itemID] = true
	return true
}

func (s *runState) tally(update func(*Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.result)
}

func (d *Downloader) Run(ctx context.Context, references []string, opts Options) (Result, error) {
	if d.Now == nil {
		d.Now = time.Now
	}

	state := &runState{inFlight: map[string]bool{}}

	refs, fileFailures := ExpandFileReferences(references)
	for _, failure := range fileFailures {
		state.tally(func(r *Result) { r.Failed++ })
		d.emit(output.Event{
			Level:   output.LevelError,
			Event:   output.EventRefFailed,
			Message: failure.Error(),
		})
	}

	state.tally(func(r *Result) { r.References = len(refs) })
	d.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventRunStarted,
		Message: fmt.Sprintf("download run started (%d reference(s))", len(refs)),
		Details: map[string]any{"references": len(refs), "quality": opts.Quality.String()},
	})

	for _, reference := range refs {
		if ctx.Err() != nil {
			state.tally(func(r *Result) { r.Interrupted = true })
			break
		}
		d.processReference(ctx, reference, opts, state)
	}

	result := state.result
	if ctx.Err() != nil {
		result.Interrupted = true
	}

	level := output.LevelInfo
	message := fmt.Sprintf("run finished: attempted=%d downloaded=%d skipped=%d failed=%d",
		result.Attempted, result.Downloaded, result.Skipped, result.Failed)
	if result.Interrupted {
		level = output.LevelError
		message = "run interrupted"
	}
	d.emit(output.Event{
		Level:   level,
		Event:   output.EventRunFinished,
		Message: message,
		Details: map[string]any{
			"references": result.References,
			"total":      result.Total,
			"attempted":  result.Attempted,
			"downloaded": result.Downloaded,
			"skipped":    result.Skipped,
			"failed":     result.Failed,
		},
	})

	if result.Interrupted {
		return result, ErrInterrupted
	}
	return result, nil
}

func (d *Downloader) processReference(ctx context.Context, reference string, opts Options, state *runState) {
	entityType, id, err := catalog.ParseReference(reference)
	if err != nil {
		state.tally(func(r *Result) { r.Failed++ })
		d.emit(output.Event{
			Level:     output.LevelError,
			Event:     output.EventRefFailed,
			Reference: reference,
			Message:   fmt.Sprintf("invalid reference %q: %v", reference, err),
		})
		return
	}

	d.emit(output.Event{
		Level:     output.LevelInfo,
		Event:     output.EventRefResolved,
		Reference: reference,
		Message:   fmt.Sprintf("resolved %s %s", entityType, id),
	})

	expander := &Expander{Client: d.Client}
	node, err := expander.Expand(ctx, entityType, id, opts)
	if err != nil {
		if ctx.Err() != nil {
			state.tally(func(r *Result) { r.Interrupted = true })
			return
		}
		state.tally(func(r *Result) { r.Failed++ })
		d.emit(output.Event{
			Level:     output.LevelError,
			Event:     output.EventRefFailed,
			Reference: reference,
			Message:   fmt.Sprintf("cannot expand %s %s: %v", entityType, id, err),
		})
		return
	}

	profileName, profile, err := d.resolveNaming(entityType, opts)
	if err != nil {
		state.tally(func(r *Result) { r.Failed++ })
		d.emit(output.Event{
			Level:     output.LevelError,
			Event:     output.EventRefFailed,
			Reference: reference,
			Message:   fmt.Sprintf("naming profile resolution failed: %v", err),
		})
		return
	}

	destBase := opts.BaseDir
	if node.Type.IsCollection() {
		if top := naming.RenderTopFolder(profile, collectionVars(node)); top != "" {
			destBase = filepath.Join(destBase, top)
		}
		d.emit(output.Event{
			Level:     output.LevelInfo,
			Event:     output.EventRefExpanded,
			Reference: reference,
			Message:   fmt.Sprintf("downloading all music from %s (%s): %d item(s)", node.DisplayName, node.Type, len(node.Children)),
			Details:   map[string]any{"items": len(node.Children)},
		})
	}

	leaves := node.Children
	if node.IsLeaf() {
		leaves = []catalog.ContentNode{*node}
	}
	state.tally(func(r *Result) { r.Total += len(leaves) })

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	group := &errgroup.Group{}
	group.SetLimit(limit)
	for i := range leaves {
		if ctx.Err() != nil {
			state.tally(func(r *Result) { r.Interrupted = true })
			break
		}
		leaf := leaves[i]
		group.Go(func() error {
			// A leaf failure must never cancel its siblings, so errors
			// stay inside processLeaf and tally instead of returning.
			d.processLeaf(ctx, leaf, node, profileName, profile, destBase, opts, state)
			return nil
		})
	}
	_ = group.Wait()

	if node.Type == catalog.EntityPlaylist && !opts.NoPlaylistIndex && ctx.Err() == nil {
		target, err := WritePlaylistIndex(destBase)
		if err != nil {
			d.emit(output.Event{
				Level:     output.LevelWarn,
				Event:     output.EventRefFailed,
				Reference: reference,
				Message:   fmt.Sprintf("playlist index: %v", err),
			})
		} else if target != "" {
			d.emit(output.Event{
				Level:     output.LevelInfo,
				Event:     output.EventRefExpanded,
				Reference: reference,
				Message:   fmt.Sprintf("wrote playlist index %s", target),
			})
		}
	}
}

func (d *Downloader) processLeaf(ctx context.Context, leaf catalog.ContentNode, parent *catalog.ContentNode, profileName string, profile naming.Profile, destBase string, opts Options, state *runState) {
	if !state.claim(leaf.ID) {
		state.tally(func(r *Result) { r.Skipped++ })
		d.emit(output.Event{
			Level:   output.LevelInfo,
			Event:   output.EventItemSkipped,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("%s %s already queued in this run", leaf.Type, leaf.ID),
		})
		return
	}

	downloaded, err := d.Ledger.Contains(leaf.ID)
	if err != nil {
		// Fail open: a broken ledger must not silently lose items.
		d.emit(output.Event{
			Level:   output.LevelWarn,
			Event:   output.EventItemStarted,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("ledger lookup failed for %s, assuming not downloaded: %v", leaf.ID, err),
		})
	}
	if downloaded {
		state.tally(func(r *Result) { r.Skipped++ })
		d.emit(output.Event{
			Level:   output.LevelInfo,
			Event:   output.EventItemSkipped,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("%s %s already downloaded, skipping", leaf.Type, leaf.ID),
		})
		return
	}

	if ctx.Err() != nil {
		state.tally(func(r *Result) { r.Interrupted = true })
		return
	}

	task, displayName, err := d.buildTask(ctx, leaf, parent, profileName, profile, destBase, opts)
	if err != nil {
		if ctx.Err() != nil {
			state.tally(func(r *Result) { r.Interrupted = true })
			return
		}
		state.tally(func(r *Result) { r.Failed++ })
		d.emit(output.Event{
			Level:   output.LevelError,
			Event:   output.EventItemFailed,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("%s %s: %v", leaf.Type, leaf.ID, err),
		})
		return
	}

	state.tally(func(r *Result) { r.Attempted++ })
	d.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventItemStarted,
		ItemID:  leaf.ID,
		Message: fmt.Sprintf("downloading %s: %s", leaf.Type, displayName),
		Details: map[string]any{"destination": task.Dir},
	})

	if opts.DryRun {
		state.tally(func(r *Result) { r.Downloaded++ })
		d.emit(output.Event{
			Level:   output.LevelInfo,
			Event:   output.EventItemFinished,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("dry-run: would download %s into %s", displayName, task.Dir),
			Details: map[string]any{"dry_run": true, "destination": task.Dir},
		})
		return
	}

	obtained, err := d.Fetcher.Fetch(ctx, task)
	if err != nil {
		if ctx.Err() != nil {
			state.tally(func(r *Result) { r.Interrupted = true })
			return
		}
		state.tally(func(r *Result) { r.Failed++ })
		d.emit(output.Event{
			Level:   output.LevelError,
			Event:   output.EventItemFailed,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("%s %s failed: %v", leaf.Type, leaf.ID, err),
		})
		return
	}

	if err := d.Ledger.Record(leaf.ID); err != nil {
		d.emit(output.Event{
			Level:   output.LevelWarn,
			Event:   output.EventItemFinished,
			ItemID:  leaf.ID,
			Message: fmt.Sprintf("ledger record failed for %s (item will be re-checked next run): %v", leaf.ID, err),
		})
	}

	state.tally(func(r *Result) { r.Downloaded++ })
	details := map[string]any{"quality": obtained.String()}
	message := fmt.Sprintf("completed %s: %s", leaf.Type, displayName)
	if obtained != opts.Quality {
		details["requested"] = opts.Quality.String()
		message = fmt.Sprintf("completed %s: %s (downgraded to %s)", leaf.Type, displayName, obtained)
	}
	d.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventItemFinished,
		ItemID:  leaf.ID,
		Message: message,
		Details: details,
	})
}

// buildTask resolves leaf metadata and the destination folder. Playlist
// tracks land directly in the collection folder; every other leaf gets
// its own rendered release folder.
func (d *Downloader) buildTask(ctx context.Context, leaf catalog.ContentNode, parent *catalog.ContentNode, profileName string, profile naming.Profile, destBase string, opts Options) (fetch.Task, string, error) {
	task := fetch.Task{
		ItemID:  leaf.ID,
		Type:    leaf.Type,
		Quality: opts.Quality,
		Profile: profileName,
	}

	switch leaf.Type {
	case catalog.EntityAlbum:
		album, err := d.Client.Album(ctx, leaf.ID)
		if err != nil {
			return task, "", err
		}
		task.Album = album
		task.Dir = filepath.Join(destBase, naming.RenderFolder(profile, naming.ReleaseVars(album.Release)))
		return task, album.Artist + " - " + album.DisplayTitle(), nil
	case catalog.EntityTrack:
		track, album, err := d.Client.TrackAlbum(ctx, leaf.ID)
		if err != nil {
			return task, "", err
		}
		task.Track = track
		task.Album = album
		if parent != nil && parent.Type == catalog.EntityPlaylist {
			task.Dir = destBase
		} else {
			var release catalog.Release
			if album != nil {
				release = album.Release
			}
			task.Dir = filepath.Join(destBase, naming.RenderFolder(profile, naming.ReleaseVars(release)))
		}
		return task, track.Performer + " - " + track.Title, nil
	default:
		return task, "", fmt.Errorf("unexpected leaf type %q", leaf.Type)
	}
}

// resolveNaming picks the profile for this reference. A missing default
// profile fails the reference closed instead of cycling the chain.
func (d *Downloader) resolveNaming(entityType catalog.EntityType, opts Options) (string, naming.Profile, error) {
	mode := opts.NamingMode
	if mode == "" {
		mode = string(entityType)
	}
	name := d.Names.ResolveProfileName(mode)
	if profile, ok := d.Names.Profile(name); ok {
		return name, profile, nil
	}
	profile, err := d.Names.Default()
	if err != nil {
		return "", naming.Profile{}, err
	}
	return profile.Name, profile, nil
}

func collectionVars(node *catalog.ContentNode) naming.Vars {
	vars := naming.Vars{"album": node.DisplayName, "query": node.DisplayName}
	switch node.Type {
	case catalog.EntityArtist:
		vars["artist"] = node.DisplayName
	case catalog.EntityLabel:
		vars["label"] = node.DisplayName
	case catalog.EntityPlaylist:
		vars["playlist"] = node.DisplayName
	}
	return vars
}

func (d *Downloader) emit(event output.Event) {
	event.Timestamp = d.Now()
	_ = d.Emitter.Emit(event)
}
