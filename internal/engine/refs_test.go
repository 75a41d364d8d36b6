package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandFileReferences(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "albums.txt")
	payload := `# my want list
https://play.qobuz.com/album/aaa

album/bbb
`
	if err := os.WriteFile(listPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	refs, failures := ExpandFileReferences([]string{
		"https://play.qobuz.com/artist/1",
		listPath,
		"track/2",
	})
	if len(failures) != 0 {
		t.Fatalf("failures: %v", failures)
	}

	want := []string{
		"https://play.qobuz.com/artist/1",
		"https://play.qobuz.com/album/aaa",
		"album/bbb",
		"track/2",
	}
	if len(refs) != len(want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Fatalf("refs = %v, want %v", refs, want)
		}
	}
}

func TestExpandFileReferencesUnreadableFileFailsAlone(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(listPath, []byte("album/aaa\n"), 0o000); err != nil {
		t.Fatalf("write list: %v", err)
	}
	if os.Getuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	refs, failures := ExpandFileReferences([]string{listPath, "album/bbb"})
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", failures)
	}
	if len(refs) != 1 || refs[0] != "album/bbb" {
		t.Fatalf("refs = %v, want the surviving sibling only", refs)
	}
}

func TestExpandFileReferencesSkipsBlankInputs(t *testing.T) {
	refs, failures := ExpandFileReferences([]string{"  ", "album/aaa"})
	if len(failures) != 0 {
		t.Fatalf("failures: %v", failures)
	}
	if len(refs) != 1 || refs[0] != "album/aaa" {
		t.Fatalf("refs = %v", refs)
	}
}
