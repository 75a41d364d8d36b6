package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is the persistent set of already-downloaded item ids. Contains
// is consulted before any fetch; Record is called only after a leaf
// download fully succeeds.
type Ledger interface {
	Contains(itemID string) (bool, error)
	Record(itemID string) error
	Close() error
}

// Store persists the set in a sqlite database. Record is durable before
// it returns and a UNIQUE key makes concurrent records for the same id
// harmless.
type Store struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS downloads (id TEXT PRIMARY KEY)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize ledger %s: %w", path, err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Contains(itemID string) (bool, error) {
	var found int
	err := s.db.QueryRow(`SELECT 1 FROM downloads WHERE id = ?`, itemID).Scan(&found)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("ledger lookup %q: %w", itemID, err)
	default:
		return true, nil
	}
}

func (s *Store) Record(itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return errors.New("refusing to record empty item id")
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO downloads (id) VALUES (?)`, itemID); err != nil {
		return fmt.Errorf("ledger record %q: %w", itemID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path reports where the set is persisted, for purge-style tooling.
func (s *Store) Path() string {
	return s.path
}

// Disabled is the no-op ledger used when download tracking is turned
// off: nothing is ever skipped and nothing is recorded.
type Disabled struct{}

func (Disabled) Contains(string) (bool, error) { return false, nil }
func (Disabled) Record(string) error           { return nil }
func (Disabled) Close() error                  { return nil }
