package naming

import (
	"testing"

	"github.com/qdl-tool/qdl/internal/catalog"
)

var testRelease = catalog.Release{
	Title:        "Blue Train",
	Artist:       "John Coltrane",
	Year:         1958,
	BitDepth:     24,
	SamplingRate: 192,
	Label:        "Blue Note",
}

func TestRender(t *testing.T) {
	vars := ReleaseVars(testRelease)

	got, err := Render("{artist} - ({year}) {album} [{bit_depth}B-{sampling_rate}kHz]", vars)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "John Coltrane - (1958) Blue Train [24B-192kHz]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderUnknownPlaceholderIsEmpty(t *testing.T) {
	got, err := Render("{artist} {mystery} {album}", Vars{"artist": "A", "album": "B"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "A B" {
		t.Errorf("got %q, want %q", got, "A B")
	}
}

func TestRenderMalformedTemplate(t *testing.T) {
	if _, err := Render("{artist - {album}", Vars{}); err == nil {
		t.Error("expected error for nested brace")
	}
	if _, err := Render("{artist", Vars{}); err == nil {
		t.Error("expected error for unclosed brace")
	}
}

func TestRenderFolderFallsBackToMinimal(t *testing.T) {
	profile := Profile{FolderFormat: "{artist - broken"}
	got := RenderFolder(profile, ReleaseVars(testRelease))
	if got != "Blue Train" {
		t.Errorf("got %q, want the bare display title", got)
	}
}

func TestRenderTrackVars(t *testing.T) {
	track := catalog.Track{
		Title:     "Locomotion",
		Version:   "Remastered",
		Number:    4,
		Performer: "Coltrane Quartet",
	}
	vars := TrackVars(track, testRelease)

	profile := Profile{TrackFormat: "{tracknumber}. {artist} - {tracktitle}"}
	got := RenderTrack(profile, vars)
	want := "04. Coltrane Quartet - Locomotion (Remastered)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTopFolder(t *testing.T) {
	vars := ReleaseVars(testRelease)

	flat := Profile{CreateTopFolder: false, TopFolderFormat: "{artist}"}
	if got := RenderTopFolder(flat, vars); got != "" {
		t.Errorf("disabled top folder rendered %q", got)
	}

	wrapped := Profile{CreateTopFolder: true, TopFolderFormat: "{artist}"}
	if got := RenderTopFolder(wrapped, vars); got != "John Coltrane" {
		t.Errorf("got %q, want John Coltrane", got)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AC/DC: Back in Black?", "AC-DC - Back in Black"},
		{`What "Love" Is`, "What 'Love' Is"},
		{"trailing dots...", "trailing dots"},
		{"   ", "_"},
	}
	for _, tc := range tests {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
