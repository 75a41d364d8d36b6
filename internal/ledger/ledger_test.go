package ledger

import (
	"path/filepath"
	"testing"
)

func TestStoreRecordAndContains(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "qdl.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	got, err := store.Contains("album-1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if got {
		t.Error("empty ledger should not contain album-1")
	}

	if err := store.Record("album-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Recording the same id twice is a no-op, not an error.
	if err := store.Record("album-1"); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	got, err = store.Contains("album-1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !got {
		t.Error("ledger should contain album-1 after Record")
	}

	got, err = store.Contains("album-2")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if got {
		t.Error("ledger should not contain album-2")
	}
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qdl.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Record("track-9"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Contains("track-9")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !got {
		t.Error("record should survive reopen")
	}
}

func TestDisabledLedger(t *testing.T) {
	var led Ledger = Disabled{}

	if err := led.Record("anything"); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := led.Contains("anything")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if got {
		t.Error("disabled ledger never reports downloaded items")
	}
}
