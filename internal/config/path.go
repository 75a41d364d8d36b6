package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "qdl", "config.yaml")
}

func ProjectConfigPath(cwd string) string {
	return filepath.Join(cwd, "qdl.yaml")
}

func DefaultNamingRulesPath() string {
	return filepath.Join(xdg.ConfigHome, "qdl", "naming.ini")
}

func DefaultLedgerPath() string {
	return filepath.Join(xdg.DataHome, "qdl", "qdl.db")
}

func ExpandPath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(strings.TrimSpace(raw))
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
	}

	return filepath.Clean(expanded), nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}
