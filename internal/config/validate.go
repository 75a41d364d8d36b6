package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

var validQualities = map[int]bool{5: true, 6: true, 7: true, 27: true}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	directory, err := ExpandPath(cfg.Directory)
	if err != nil || strings.TrimSpace(directory) == "" {
		problems = append(problems, "directory must be a valid path")
	}

	if !validQualities[cfg.Quality] {
		problems = append(problems, fmt.Sprintf("quality must be 5, 6, 7 or 27 (got %d)", cfg.Quality))
	}

	if cfg.Concurrency < 1 {
		problems = append(problems, "concurrency must be >= 1")
	}
	if cfg.SearchLimit < 1 {
		problems = append(problems, "search_limit must be >= 1")
	}
	if cfg.Lucky.Limit < 1 {
		problems = append(problems, "lucky.limit must be >= 1")
	}
	switch cfg.Lucky.Type {
	case "album", "track", "artist", "playlist":
	default:
		problems = append(problems, fmt.Sprintf("lucky.type must be album, track, artist or playlist (got %q)", cfg.Lucky.Type))
	}

	if parsed, err := url.Parse(cfg.API.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("api.base_url must be an absolute URL (got %q)", cfg.API.BaseURL))
	}
	if cfg.API.RequestsPerSecond <= 0 {
		problems = append(problems, "api.requests_per_second must be > 0")
	}
	if cfg.API.TimeoutSeconds < 1 {
		problems = append(problems, "api.timeout_seconds must be >= 1")
	}

	if !cfg.NoDatabase && strings.TrimSpace(cfg.LedgerPath) == "" {
		problems = append(problems, "ledger_path must be set unless no_database is enabled")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
