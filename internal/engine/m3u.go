package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var audioExtensions = map[string]bool{
	".flac": true,
	".mp3":  true,
}

// WritePlaylistIndex writes a plain M3U listing every audio file in dir
// in name order. Playlist tracks carry their source album's track
// number, so name order approximates but does not reproduce the page
// order of the playlist. Returns the index path, or "" when the
// directory holds no audio.
func WritePlaylistIndex(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read playlist directory %s: %w", dir, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)

	var body strings.Builder
	body.WriteString("#EXTM3U\n")
	for _, name := range names {
		body.WriteString(name)
		body.WriteByte('\n')
	}

	target := filepath.Join(dir, filepath.Base(dir)+".m3u")
	if err := os.WriteFile(target, []byte(body.String()), 0o644); err != nil {
		return "", fmt.Errorf("write playlist index %s: %w", target, err)
	}
	return target, nil
}
