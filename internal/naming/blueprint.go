package naming

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed naming.ini
var blueprintNaming []byte

// WriteBlueprint writes the embedded default naming rule file. It never
// overwrites user edits unless force is set.
func WriteBlueprint(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("naming rules already exist at %s", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create naming rules directory: %w", err)
	}
	return os.WriteFile(path, blueprintNaming, 0o644)
}
