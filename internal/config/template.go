package config

import "fmt"

func DefaultTemplate() string {
	return fmt.Sprintf(`version: 1

# Base destination for downloads.
directory: "~/Music/qdl"

# Requested quality tier: 5 (MP3 320), 6 (CD), 7 (24bit <96kHz), 27 (24bit >96kHz).
quality: 6
quality_fallback: true

# Artist expansion filters.
smart_discography: false
albums_only: false

no_playlist_index: false
no_database: false
no_cover: false
og_cover: false

# Simultaneous downloads. Keep at 1 to be gentle with the catalog.
concurrency: 1

search_limit: 20
lucky:
  type: "album"
  limit: 1

api:
  base_url: "https://www.qobuz.com/api.json/0.2"
  app_id: ""
  user_token: ""
  requests_per_second: 5
  timeout_seconds: 60

naming_rules: %q
ledger_path: %q
`, DefaultNamingRulesPath(), DefaultLedgerPath())
}
