package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

// fileConfig mirrors Config with pointer fields so layered files only
// override the keys they actually set.
type fileConfig struct {
	Version *int `yaml:"version"`

	Directory       *string `yaml:"directory"`
	Quality         *int    `yaml:"quality"`
	QualityFallback *bool   `yaml:"quality_fallback"`

	SmartDiscography *bool `yaml:"smart_discography"`
	AlbumsOnly       *bool `yaml:"albums_only"`
	NoPlaylistIndex  *bool `yaml:"no_playlist_index"`
	NoDatabase       *bool `yaml:"no_database"`
	NoCover          *bool `yaml:"no_cover"`
	OGCover          *bool `yaml:"og_cover"`

	Concurrency *int `yaml:"concurrency"`
	SearchLimit *int `yaml:"search_limit"`

	Lucky struct {
		Type  *string `yaml:"type"`
		Limit *int    `yaml:"limit"`
	} `yaml:"lucky"`

	API struct {
		BaseURL           *string  `yaml:"base_url"`
		AppID             *string  `yaml:"app_id"`
		UserToken         *string  `yaml:"user_token"`
		RequestsPerSecond *float64 `yaml:"requests_per_second"`
		TimeoutSeconds    *int     `yaml:"timeout_seconds"`
	} `yaml:"api"`

	NamingRules *string `yaml:"naming_rules"`
	NamingMode  *string `yaml:"naming_mode"`
	LedgerPath  *string `yaml:"ledger_path"`
}

// Load builds the effective config: defaults, then the user config,
// then the project config, then environment overrides. An explicit
// path replaces the user/project layering entirely.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		if err := mergeFile(&cfg, UserConfigPath(), false); err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	if fc.Directory != nil {
		cfg.Directory = strings.TrimSpace(*fc.Directory)
	}
	if fc.Quality != nil {
		cfg.Quality = *fc.Quality
	}
	if fc.QualityFallback != nil {
		cfg.QualityFallback = *fc.QualityFallback
	}
	if fc.SmartDiscography != nil {
		cfg.SmartDiscography = *fc.SmartDiscography
	}
	if fc.AlbumsOnly != nil {
		cfg.AlbumsOnly = *fc.AlbumsOnly
	}
	if fc.NoPlaylistIndex != nil {
		cfg.NoPlaylistIndex = *fc.NoPlaylistIndex
	}
	if fc.NoDatabase != nil {
		cfg.NoDatabase = *fc.NoDatabase
	}
	if fc.NoCover != nil {
		cfg.NoCover = *fc.NoCover
	}
	if fc.OGCover != nil {
		cfg.OGCover = *fc.OGCover
	}
	if fc.Concurrency != nil {
		cfg.Concurrency = *fc.Concurrency
	}
	if fc.SearchLimit != nil {
		cfg.SearchLimit = *fc.SearchLimit
	}
	if fc.Lucky.Type != nil {
		cfg.Lucky.Type = strings.TrimSpace(*fc.Lucky.Type)
	}
	if fc.Lucky.Limit != nil {
		cfg.Lucky.Limit = *fc.Lucky.Limit
	}
	if fc.API.BaseURL != nil {
		cfg.API.BaseURL = strings.TrimSpace(*fc.API.BaseURL)
	}
	if fc.API.AppID != nil {
		cfg.API.AppID = strings.TrimSpace(*fc.API.AppID)
	}
	if fc.API.UserToken != nil {
		cfg.API.UserToken = strings.TrimSpace(*fc.API.UserToken)
	}
	if fc.API.RequestsPerSecond != nil {
		cfg.API.RequestsPerSecond = *fc.API.RequestsPerSecond
	}
	if fc.API.TimeoutSeconds != nil {
		cfg.API.TimeoutSeconds = *fc.API.TimeoutSeconds
	}
	if fc.NamingRules != nil {
		cfg.NamingRules = strings.TrimSpace(*fc.NamingRules)
	}
	if fc.NamingMode != nil {
		cfg.NamingMode = strings.TrimSpace(*fc.NamingMode)
	}
	if fc.LedgerPath != nil {
		cfg.LedgerPath = strings.TrimSpace(*fc.LedgerPath)
	}

	return nil
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if value := strings.TrimSpace(env["QDL_DIRECTORY"]); value != "" {
		cfg.Directory = value
	}
	if value := strings.TrimSpace(env["QDL_QUALITY"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QDL_QUALITY value %q: %w", value, err)
		}
		cfg.Quality = parsed
	}
	if value := strings.TrimSpace(env["QDL_CONCURRENCY"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QDL_CONCURRENCY value %q: %w", value, err)
		}
		cfg.Concurrency = parsed
	}
	if value := strings.TrimSpace(env["QDL_APP_ID"]); value != "" {
		cfg.API.AppID = value
	}
	if value := strings.TrimSpace(env["QDL_USER_TOKEN"]); value != "" {
		cfg.API.UserToken = value
	}
	return nil
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}
