package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/fetch"
	"github.com/qdl-tool/qdl/internal/naming"
)

// StreamSource is the slice of the catalog client the writer needs.
type StreamSource interface {
	FileURL(ctx context.Context, trackID string, formatID int) (string, error)
	Download(ctx context.Context, fileURL string) (io.ReadCloser, int64, error)
}

// Writer streams catalog audio onto local disk. Each track lands in a
// hidden temp file first and is renamed only after a complete write, so
// an interrupted leaf never leaves a half-written final file behind.
type Writer struct {
	Source   StreamSource
	Names    *naming.Store
	Progress io.Writer
	NoCover  bool
	OGCover  bool
	Log      zerolog.Logger
}

func (w *Writer) Fetch(ctx context.Context, task fetch.Task, tier fetch.Tier) error {
	profile, err := w.Names.ResolveProfile(task.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(task.Dir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", task.Dir, err)
	}

	switch task.Type {
	case catalog.EntityTrack:
		if task.Track == nil {
			return fmt.Errorf("track task %s has no metadata", task.ItemID)
		}
		var release catalog.Release
		if task.Album != nil {
			release = task.Album.Release
		}
		return w.fetchTrack(ctx, *task.Track, release, profile, task.Dir, tier)
	case catalog.EntityAlbum:
		if task.Album == nil {
			return fmt.Errorf("album task %s has no metadata", task.ItemID)
		}
		return w.fetchAlbum(ctx, task.Album, profile, task.Dir, tier)
	default:
		return fmt.Errorf("cannot fetch entity type %q", task.Type)
	}
}

func (w *Writer) fetchAlbum(ctx context.Context, album *catalog.Album, profile naming.Profile, dir string, tier fetch.Tier) error {
	for _, track := range album.Tracks {
		if !track.Streamable {
			w.Log.Debug().Str("track", track.ID).Msg("skipping non-streamable track")
			continue
		}
		if err := w.fetchTrack(ctx, track, album.Release, profile, dir, tier); err != nil {
			return err
		}
	}

	if !w.NoCover && album.CoverURL != "" {
		if err := w.fetchCover(ctx, album.CoverURL, dir); err != nil {
			// Cover art is decoration; a failed cover never fails the album.
			w.Log.Warn().Str("album", album.ID).Err(err).Msg("cover download failed")
		}
	}
	return nil
}

func (w *Writer) fetchTrack(ctx context.Context, track catalog.Track, release catalog.Release, profile naming.Profile, dir string, tier fetch.Tier) error {
	stem := naming.RenderTrack(profile, naming.TrackVars(track, release))
	name := stem + extensionFor(tier)
	final := filepath.Join(dir, name)

	// A fallback retry can flip the extension, so check both; a track
	// completed earlier at any tier stays put.
	for _, ext := range []string{".flac", ".mp3"} {
		existing := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(existing); err == nil {
			w.Log.Debug().Str("file", existing).Msg("track already present")
			return nil
		}
	}

	fileURL, err := w.Source.FileURL(ctx, track.ID, int(tier))
	if err != nil {
		return err
	}

	body, size, err := w.Source.Download(ctx, fileURL)
	if err != nil {
		return err
	}
	defer body.Close()

	temp := filepath.Join(dir, "."+name+".tmp")
	if err := w.writeFile(ctx, temp, body, size, name); err != nil {
		os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, final); err != nil {
		os.Remove(temp)
		return fmt.Errorf("finalize %s: %w", final, err)
	}

	w.Log.Debug().
		Str("file", final).
		Str("size", humanize.Bytes(uint64(max64(size, 0)))).
		Str("tier", tier.String()).
		Msg("track written")
	return nil
}

func (w *Writer) writeFile(ctx context.Context, path string, body io.Reader, size int64, label string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	var dest io.Writer = file
	if w.Progress != nil {
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(w.Progress),
			progressbar.OptionSetDescription(label),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		dest = io.MultiWriter(file, bar)
	}

	if _, err := io.Copy(dest, readerWithContext(ctx, body)); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return file.Close()
}

func (w *Writer) fetchCover(ctx context.Context, coverURL string, dir string) error {
	target := filepath.Join(dir, "cover.jpg")
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	body, size, err := w.Source.Download(ctx, CoverVariant(coverURL, w.OGCover))
	if err != nil {
		return err
	}
	defer body.Close()

	temp := filepath.Join(dir, ".cover.jpg.tmp")
	if err := w.writeFile(ctx, temp, body, size, "cover.jpg"); err != nil {
		os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, target); err != nil {
		os.Remove(temp)
		return err
	}
	return nil
}

func extensionFor(tier fetch.Tier) string {
	if tier == fetch.TierMP3 {
		return ".mp3"
	}
	return ".flac"
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &contextReader{ctx: ctx, r: r}
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && c.ctx.Err() != nil {
		return n, c.ctx.Err()
	}
	return n, err
}

func max64(v, floor int64) int64 {
	if v < floor {
		return floor
	}
	return v
}
