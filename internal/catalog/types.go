package catalog

import "strings"

type EntityType string

const (
	EntityTrack    EntityType = "track"
	EntityAlbum    EntityType = "album"
	EntityArtist   EntityType = "artist"
	EntityLabel    EntityType = "label"
	EntityPlaylist EntityType = "playlist"
)

var entityTypes = []EntityType{EntityTrack, EntityAlbum, EntityArtist, EntityLabel, EntityPlaylist}

func (t EntityType) Valid() bool {
	for _, known := range entityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsCollection reports whether expanding this entity requires a catalog
// metadata call; album and track are leaves and never hit the network.
func (t EntityType) IsCollection() bool {
	return t == EntityArtist || t == EntityLabel || t == EntityPlaylist
}

// Release is the album-level metadata shared by album leaves and the
// album children of artist/label pages.
type Release struct {
	ID           string
	Title        string
	Version      string
	Artist       string
	Year         int
	BitDepth     int
	SamplingRate float64
	Label        string
	ReleaseType  string
	TrackCount   int
	CoverURL     string
}

// DisplayTitle joins title and version the way the catalog renders them.
func (r Release) DisplayTitle() string {
	if strings.TrimSpace(r.Version) == "" {
		return r.Title
	}
	return r.Title + " (" + r.Version + ")"
}

type Track struct {
	ID         string
	Title      string
	Version    string
	Number     int
	Performer  string
	Duration   int
	Streamable bool
}

// Album is a fully resolved release including its track list.
type Album struct {
	Release
	Tracks []Track
}

// Page is one collection metadata page: the entity's display name plus
// its child list as returned by the catalog, order preserved.
type Page struct {
	Name   string
	Albums []Release
	Tracks []Track
}

// ContentNode is a resolved entity. Collections carry their expanded
// children; album/track nodes are leaves. Nodes are never mutated after
// the expander builds them.
type ContentNode struct {
	Type        EntityType
	ID          string
	DisplayName string
	Children    []ContentNode

	// Release holds the child metadata when this node was expanded out
	// of a collection page; nil for bare album/track references.
	Release *Release
}

func (n *ContentNode) IsLeaf() bool {
	return n.Type == EntityAlbum || n.Type == EntityTrack
}

type SearchResult struct {
	Type    EntityType
	ID      string
	Display string
	URL     string
}
