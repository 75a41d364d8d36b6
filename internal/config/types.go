package config

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Version int `yaml:"version"`

	// Directory is the base destination for every download.
	Directory string `yaml:"directory"`

	// Quality is the requested tier: 5, 6, 7 or 27.
	Quality         int  `yaml:"quality"`
	QualityFallback bool `yaml:"quality_fallback"`

	SmartDiscography bool `yaml:"smart_discography"`
	AlbumsOnly       bool `yaml:"albums_only"`
	NoPlaylistIndex  bool `yaml:"no_playlist_index"`
	NoDatabase       bool `yaml:"no_database"`
	NoCover          bool `yaml:"no_cover"`
	OGCover          bool `yaml:"og_cover"`

	// Concurrency bounds simultaneous leaf fetches; 1 keeps the
	// pipeline strictly sequential.
	Concurrency int `yaml:"concurrency"`

	SearchLimit int   `yaml:"search_limit"`
	Lucky       Lucky `yaml:"lucky"`

	API API `yaml:"api"`

	// NamingRules points at the INI naming rule file; NamingMode, when
	// set, pins one profile for every reference in the run.
	NamingRules string `yaml:"naming_rules"`
	NamingMode  string `yaml:"naming_mode"`

	LedgerPath string `yaml:"ledger_path"`
}

type Lucky struct {
	Type  string `yaml:"type"`
	Limit int    `yaml:"limit"`
}

type API struct {
	BaseURL           string  `yaml:"base_url"`
	AppID             string  `yaml:"app_id"`
	UserToken         string  `yaml:"user_token"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		Version:         1,
		Directory:       "~/Music/qdl",
		Quality:         6,
		QualityFallback: true,
		Concurrency:     1,
		SearchLimit:     20,
		Lucky: Lucky{
			Type:  "album",
			Limit: 1,
		},
		API: API{
			BaseURL:           "https://www.qobuz.com/api.json/0.2",
			RequestsPerSecond: 5,
			TimeoutSeconds:    60,
		},
		NamingRules: DefaultNamingRulesPath(),
		LedgerPath:  DefaultLedgerPath(),
	}
}
