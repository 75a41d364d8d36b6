package engine

import (
	"context"
	"fmt"

	"github.com/qdl-tool/qdl/internal/catalog"
)

// Expander turns a resolved (type, id) pair into a ContentNode tree.
// album/track references become leaves without touching the network;
// collections are expanded from one catalog metadata page, children in
// the order the catalog returned them.
type Expander struct {
	Client CatalogClient
}

func (e *Expander) Expand(ctx context.Context, t catalog.EntityType, id string, opts Options) (*catalog.ContentNode, error) {
	if !t.IsCollection() {
		return &catalog.ContentNode{Type: t, ID: id}, nil
	}

	page, err := e.Client.Entity(ctx, t, id)
	if err != nil {
		return nil, err
	}

	node := &catalog.ContentNode{Type: t, ID: id, DisplayName: page.Name}

	switch t {
	case catalog.EntityArtist, catalog.EntityLabel:
		albums := page.Albums
		if opts.AlbumsOnly {
			albums = dropSinglesAndEPs(albums)
		}
		if opts.SmartDiscography && t == catalog.EntityArtist {
			albums = FilterDiscography(albums)
		}
		for i := range albums {
			release := albums[i]
			node.Children = append(node.Children, catalog.ContentNode{
				Type:        catalog.EntityAlbum,
				ID:          release.ID,
				DisplayName: release.DisplayTitle(),
				Release:     &release,
			})
		}
	case catalog.EntityPlaylist:
		for i := range page.Tracks {
			track := page.Tracks[i]
			node.Children = append(node.Children, catalog.ContentNode{
				Type:        catalog.EntityTrack,
				ID:          track.ID,
				DisplayName: track.Title,
			})
		}
	default:
		return nil, fmt.Errorf("unexpected collection type %q", t)
	}

	return node, nil
}
