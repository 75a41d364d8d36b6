package catalog

import (
	"fmt"
	"strings"
)

// ParseReference classifies a raw catalog reference into an entity type
// and id. It accepts full web-player URLs as well as bare `{type}/{id}`
// paths; the type segment match is case-sensitive, surrounding
// whitespace is ignored.
func ParseReference(raw string) (EntityType, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	path := trimmed
	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
	}
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		t := EntityType(segment)
		if !t.Valid() {
			continue
		}
		if i+1 >= len(segments) {
			break
		}
		id := lastNonEmpty(segments[i+1:])
		if id == "" {
			break
		}
		return t, id, nil
	}

	return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, raw)
}

// lastNonEmpty picks the trailing id segment; catalog web URLs put a
// human-readable slug between the type segment and the real id.
func lastNonEmpty(segments []string) string {
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			return s
		}
	}
	return ""
}
