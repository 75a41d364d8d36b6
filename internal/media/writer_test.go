package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/fetch"
	"github.com/qdl-tool/qdl/internal/naming"
)

// fakeSource serves canned audio bytes per track and counts downloads.
type fakeSource struct {
	unstreamable map[string]bool
	payload      string
	downloads    int
	coverURLs    []string
}

func (s *fakeSource) FileURL(ctx context.Context, trackID string, formatID int) (string, error) {
	if s.unstreamable[trackID] {
		return "", fmt.Errorf("%w: track %s", catalog.ErrUnstreamable, trackID)
	}
	return "stream://" + trackID, nil
}

func (s *fakeSource) Download(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	if strings.HasPrefix(fileURL, "https://") {
		s.coverURLs = append(s.coverURLs, fileURL)
	} else {
		s.downloads++
	}
	return io.NopCloser(bytes.NewReader([]byte(s.payload))), int64(len(s.payload)), nil
}

func testStore(t *testing.T) *naming.Store {
	t.Helper()
	store, err := naming.Parse([]byte(`
default_naming_mode = test

[test]
folder_format = {artist} - {album}
track_format  = {tracknumber}. {tracktitle}
`))
	if err != nil {
		t.Fatalf("parse naming rules: %v", err)
	}
	return store
}

func albumTask(dir string, album *catalog.Album) fetch.Task {
	return fetch.Task{
		ItemID:  album.ID,
		Type:    catalog.EntityAlbum,
		Dir:     dir,
		Quality: fetch.TierCD,
		Profile: "test",
		Album:   album,
	}
}

func TestWriterFetchAlbum(t *testing.T) {
	album := &catalog.Album{
		Release: catalog.Release{
			ID:       "a1",
			Title:    "Horizon",
			Artist:   "Neon Coast",
			CoverURL: "https://static.example/covers/a1_600.jpg",
		},
		Tracks: []catalog.Track{
			{ID: "t1", Title: "Opener", Number: 1, Streamable: true},
			{ID: "t2", Title: "Ghost Town", Number: 2, Streamable: false},
			{ID: "t3", Title: "Closer", Number: 3, Streamable: true},
		},
	}

	source := &fakeSource{payload: "fake flac bytes"}
	writer := &Writer{Source: source, Names: testStore(t), Log: zerolog.Nop()}
	dir := filepath.Join(t.TempDir(), "Neon Coast - Horizon")

	if err := writer.Fetch(context.Background(), albumTask(dir, album), fetch.TierCD); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// Only streamable tracks are written.
	for _, name := range []string{"01. Opener.flac", "03. Closer.flac", "cover.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "02. Ghost Town.flac")); err == nil {
		t.Error("non-streamable track was written")
	}
	if source.downloads != 2 {
		t.Errorf("downloads = %d, want 2", source.downloads)
	}

	// No temp residue after a clean run.
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", entry.Name())
		}
	}

	payload, err := os.ReadFile(filepath.Join(dir, "01. Opener.flac"))
	if err != nil || string(payload) != "fake flac bytes" {
		t.Errorf("track payload = %q, %v", payload, err)
	}
}

func TestWriterSkipsExistingFiles(t *testing.T) {
	album := &catalog.Album{
		Release: catalog.Release{ID: "a1", Title: "Horizon", Artist: "Neon Coast"},
		Tracks:  []catalog.Track{{ID: "t1", Title: "Opener", Number: 1, Streamable: true}},
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "01. Opener.flac"), []byte("earlier run"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	source := &fakeSource{payload: "new bytes"}
	writer := &Writer{Source: source, Names: testStore(t), NoCover: true, Log: zerolog.Nop()}

	if err := writer.Fetch(context.Background(), albumTask(dir, album), fetch.TierCD); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if source.downloads != 0 {
		t.Errorf("downloads = %d, existing files must not be refetched", source.downloads)
	}
	payload, _ := os.ReadFile(filepath.Join(dir, "01. Opener.flac"))
	if string(payload) != "earlier run" {
		t.Errorf("existing file was overwritten: %q", payload)
	}
}

func TestWriterSkipsTracksCompletedAtOtherTier(t *testing.T) {
	album := &catalog.Album{
		Release: catalog.Release{ID: "a1", Title: "Horizon", Artist: "Neon Coast"},
		Tracks:  []catalog.Track{{ID: "t1", Title: "Opener", Number: 1, Streamable: true}},
	}

	// A flac finished before the run fell back to MP3 quality.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "01. Opener.flac"), []byte("hi-res run"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	source := &fakeSource{payload: "mp3 bytes"}
	writer := &Writer{Source: source, Names: testStore(t), NoCover: true, Log: zerolog.Nop()}

	if err := writer.Fetch(context.Background(), albumTask(dir, album), fetch.TierMP3); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if source.downloads != 0 {
		t.Errorf("downloads = %d, completed track must not be refetched at another tier", source.downloads)
	}
	if _, err := os.Stat(filepath.Join(dir, "01. Opener.mp3")); err == nil {
		t.Error("mp3 duplicate written next to the finished flac")
	}
}

func TestWriterBubblesUnstreamable(t *testing.T) {
	album := &catalog.Album{
		Release: catalog.Release{ID: "a1", Title: "Horizon", Artist: "Neon Coast"},
		Tracks:  []catalog.Track{{ID: "t1", Title: "Opener", Number: 1, Streamable: true}},
	}

	source := &fakeSource{payload: "x", unstreamable: map[string]bool{"t1": true}}
	writer := &Writer{Source: source, Names: testStore(t), NoCover: true, Log: zerolog.Nop()}

	err := writer.Fetch(context.Background(), albumTask(t.TempDir(), album), fetch.TierHiRes)
	if !errors.Is(err, catalog.ErrUnstreamable) {
		t.Fatalf("err = %v, want ErrUnstreamable so the tier fallback can step down", err)
	}
}

func TestWriterTrackExtensionFollowsTier(t *testing.T) {
	track := &catalog.Track{ID: "t1", Title: "Opener", Number: 1, Streamable: true}
	album := &catalog.Album{Release: catalog.Release{ID: "a1", Title: "Horizon", Artist: "Neon Coast"}}

	source := &fakeSource{payload: "mp3 bytes"}
	writer := &Writer{Source: source, Names: testStore(t), NoCover: true, Log: zerolog.Nop()}
	dir := t.TempDir()

	task := fetch.Task{
		ItemID:  "t1",
		Type:    catalog.EntityTrack,
		Dir:     dir,
		Quality: fetch.TierMP3,
		Profile: "test",
		Album:   album,
		Track:   track,
	}
	if err := writer.Fetch(context.Background(), task, fetch.TierMP3); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "01. Opener.mp3")); err != nil {
		t.Errorf("missing mp3 file: %v", err)
	}
}

func TestWriterOGCoverVariant(t *testing.T) {
	album := &catalog.Album{
		Release: catalog.Release{
			ID:       "a1",
			Title:    "Horizon",
			Artist:   "Neon Coast",
			CoverURL: "https://static.example/covers/a1_600.jpg",
		},
	}

	source := &fakeSource{payload: "jpg"}
	writer := &Writer{Source: source, Names: testStore(t), OGCover: true, Log: zerolog.Nop()}

	if err := writer.Fetch(context.Background(), albumTask(t.TempDir(), album), fetch.TierCD); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(source.coverURLs) != 1 || source.coverURLs[0] != "https://static.example/covers/a1_org.jpg" {
		t.Errorf("cover URLs = %v, want the _org variant", source.coverURLs)
	}
}
