package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{
		WorkingDir: t.TempDir(),
		Env:        map[string]string{},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Quality != 6 {
		t.Errorf("Quality = %d, want 6", cfg.Quality)
	}
	if !cfg.QualityFallback {
		t.Error("QualityFallback = false, want true")
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.Lucky.Type != "album" || cfg.Lucky.Limit != 1 {
		t.Errorf("Lucky = %+v, want album/1", cfg.Lucky)
	}
	if cfg.API.BaseURL == "" {
		t.Error("API.BaseURL is empty")
	}
}

func TestLoadProjectOverridesAndEnv(t *testing.T) {
	projectDir := t.TempDir()
	projectConfig := `version: 1
directory: "/music/project"
quality: 7
smart_discography: true
api:
  app_id: "project-app"
`
	if err := os.WriteFile(filepath.Join(projectDir, "qdl.yaml"), []byte(projectConfig), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, err := Load(LoadOptions{
		WorkingDir: projectDir,
		Env: map[string]string{
			"QDL_QUALITY":    "27",
			"QDL_USER_TOKEN": "env-token",
		},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Directory != "/music/project" {
		t.Errorf("Directory = %q, want /music/project", cfg.Directory)
	}
	if cfg.Quality != 27 {
		t.Errorf("Quality = %d, want 27 (env wins over file)", cfg.Quality)
	}
	if !cfg.SmartDiscography {
		t.Error("SmartDiscography = false, want true")
	}
	if cfg.API.AppID != "project-app" {
		t.Errorf("API.AppID = %q, want project-app", cfg.API.AppID)
	}
	if cfg.API.UserToken != "env-token" {
		t.Errorf("API.UserToken = %q, want env-token", cfg.API.UserToken)
	}
	// Keys the file does not mention keep their defaults.
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want default 1", cfg.Concurrency)
	}
}

func TestLoadExplicitPathReplacesLayering(t *testing.T) {
	tmp := t.TempDir()

	projectConfig := `version: 1
quality: 5
`
	if err := os.WriteFile(filepath.Join(tmp, "qdl.yaml"), []byte(projectConfig), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	explicitPath := filepath.Join(tmp, "other.yaml")
	if err := os.WriteFile(explicitPath, []byte("version: 1\nquality: 7\n"), 0o644); err != nil {
		t.Fatalf("write explicit config: %v", err)
	}

	cfg, err := Load(LoadOptions{
		ExplicitPath: explicitPath,
		WorkingDir:   tmp,
		Env:          map[string]string{},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Quality != 7 {
		t.Errorf("Quality = %d, want 7 from explicit file (project file ignored)", cfg.Quality)
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(LoadOptions{
		ExplicitPath: filepath.Join(t.TempDir(), "nope.yaml"),
		WorkingDir:   t.TempDir(),
		Env:          map[string]string{},
	})
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadRejectsBadEnvNumbers(t *testing.T) {
	_, err := Load(LoadOptions{
		WorkingDir: t.TempDir(),
		Env:        map[string]string{"QDL_QUALITY": "best"},
	})
	if err == nil {
		t.Fatal("expected error for non-numeric QDL_QUALITY")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}

	got, err := ExpandPath("~/Music/qdl")
	if err != nil {
		t.Fatalf("expand path: %v", err)
	}
	if got != filepath.Join(home, "Music", "qdl") {
		t.Errorf("ExpandPath(~/Music/qdl) = %q", got)
	}

	got, err = ExpandPath("  ")
	if err != nil || got != "" {
		t.Errorf("ExpandPath(blank) = %q, %v; want empty, nil", got, err)
	}
}
