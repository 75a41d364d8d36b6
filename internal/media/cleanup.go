package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SweepLeftovers removes hidden .*.tmp files under dir, the residue of
// interrupted downloads. Called after a run regardless of outcome.
func SweepLeftovers(dir string) []string {
	removed := []string{}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, os.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp") {
			if err := os.Remove(path); err == nil {
				removed = append(removed, path)
			}
		}
		return nil
	})
	return removed
}
