package engine

import (
	"regexp"
	"strings"

	"github.com/qdl-tool/qdl/internal/catalog"
)

// Discography deduplication is a size-reduction heuristic, not a
// correctness guarantee: releases that legitimately share a title can
// be misclassified, which is why the filter is opt-in.

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9 ]+`)
	titleSuffix  = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]\s*$`)
	extraMarkers = []string{"deluxe", "live", "collector", "remaster", "anniversary", "edition", "version", "instrumental"}
)

// FilterDiscography removes near-duplicate release variants from an
// artist's expanded album list:
//
//  1. singles/EPs are dropped when a full-length release with an
//     overlapping title exists;
//  2. compilation/live/deluxe re-issues are dropped when a canonical
//     studio release with the same base title exists.
//
// Ties keep the first-seen release; the surviving list preserves the
// catalog's order.
func FilterDiscography(albums []catalog.Release) []catalog.Release {
	groups := map[string][]int{}
	for i, album := range albums {
		key := baseTitle(album.Title)
		groups[key] = append(groups[key], i)
	}

	dropped := map[int]bool{}
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		hasFullLength := false
		for _, idx := range members {
			if !isSingleOrEP(albums[idx]) {
				hasFullLength = true
				break
			}
		}
		if hasFullLength {
			for _, idx := range members {
				if isSingleOrEP(albums[idx]) {
					dropped[idx] = true
				}
			}
		}

		hasCanonical := false
		for _, idx := range members {
			if !dropped[idx] && !isExtra(albums[idx]) {
				hasCanonical = true
				break
			}
		}
		if hasCanonical {
			for _, idx := range members {
				if !dropped[idx] && isExtra(albums[idx]) {
					dropped[idx] = true
				}
			}
		}

		// Identical survivors collapse to the first-seen one.
		seen := map[string]bool{}
		for _, idx := range members {
			if dropped[idx] {
				continue
			}
			key := normalizeTitle(albums[idx].DisplayTitle())
			if seen[key] {
				dropped[idx] = true
				continue
			}
			seen[key] = true
		}
	}

	kept := make([]catalog.Release, 0, len(albums))
	for i, album := range albums {
		if !dropped[i] {
			kept = append(kept, album)
		}
	}
	return kept
}

func dropSinglesAndEPs(albums []catalog.Release) []catalog.Release {
	kept := make([]catalog.Release, 0, len(albums))
	for _, album := range albums {
		if !isSingleOrEP(album) {
			kept = append(kept, album)
		}
	}
	return kept
}

func isSingleOrEP(album catalog.Release) bool {
	switch album.ReleaseType {
	case "single", "ep", "epmini":
		return true
	}
	title := strings.ToLower(album.DisplayTitle())
	if strings.HasSuffix(title, " ep") || strings.Contains(title, "(ep)") || strings.Contains(title, "- single") {
		return true
	}
	// The catalog leaves release_type empty on older entries; a very
	// short tracklist is the remaining signal.
	return album.ReleaseType == "" && album.TrackCount > 0 && album.TrackCount <= 3
}

func isExtra(album catalog.Release) bool {
	switch album.ReleaseType {
	case "compilation", "live", "bestof":
		return true
	}
	haystack := strings.ToLower(album.Title + " " + album.Version)
	for _, marker := range extraMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

func normalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	lowered = nonAlnum.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(lowered), " ")
}

// baseTitle strips trailing parenthesized or bracketed qualifiers so
// "Album (Deluxe Edition)" groups with "Album".
func baseTitle(title string) string {
	stripped := title
	for {
		next := titleSuffix.ReplaceAllString(stripped, "")
		if next == stripped {
			break
		}
		stripped = next
	}
	return normalizeTitle(stripped)
}
