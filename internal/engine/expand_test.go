package engine

import (
	"context"
	"testing"

	"github.com/qdl-tool/qdl/internal/catalog"
)

// panicClient fails the test if the expander touches the network.
type panicClient struct {
	t *testing.T
}

func (p *panicClient) Entity(ctx context.Context, t catalog.EntityType, id string) (*catalog.Page, error) {
	p.t.Fatalf("leaf expansion called Entity(%s, %s)", t, id)
	return nil, nil
}

func (p *panicClient) Album(ctx context.Context, id string) (*catalog.Album, error) {
	p.t.Fatalf("leaf expansion called Album(%s)", id)
	return nil, nil
}

func (p *panicClient) TrackAlbum(ctx context.Context, id string) (*catalog.Track, *catalog.Album, error) {
	p.t.Fatalf("leaf expansion called TrackAlbum(%s)", id)
	return nil, nil, nil
}

func TestExpandLeafSkipsNetwork(t *testing.T) {
	expander := &Expander{Client: &panicClient{t: t}}

	node, err := expander.Expand(context.Background(), catalog.EntityAlbum, "a1", Options{})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !node.IsLeaf() || node.ID != "a1" || len(node.Children) != 0 {
		t.Errorf("node = %+v, want a bare album leaf", node)
	}
}

func TestExpandArtistPreservesOrder(t *testing.T) {
	client := &fakeClient{
		pages: map[string]*catalog.Page{
			"artist/42": {Name: "Neon Coast", Albums: []catalog.Release{
				release("a3", "Third", "Neon Coast"),
				release("a1", "First", "Neon Coast"),
				release("a2", "Second", "Neon Coast"),
			}},
		},
	}
	expander := &Expander{Client: client}

	node, err := expander.Expand(context.Background(), catalog.EntityArtist, "42", Options{})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if node.DisplayName != "Neon Coast" {
		t.Errorf("DisplayName = %q", node.DisplayName)
	}
	want := []string{"a3", "a1", "a2"}
	if len(node.Children) != len(want) {
		t.Fatalf("children = %d, want %d", len(node.Children), len(want))
	}
	for i, id := range want {
		child := node.Children[i]
		if child.ID != id || child.Type != catalog.EntityAlbum || child.Release == nil {
			t.Errorf("child[%d] = %+v, want album %s with release metadata", i, child, id)
		}
	}
}

func TestExpandAlbumsOnlyDropsSingles(t *testing.T) {
	albums := []catalog.Release{
		release("a1", "Full Length", "Neon Coast"),
		{ID: "s1", Title: "Loose Cut", Artist: "Neon Coast", ReleaseType: "single"},
	}
	client := &fakeClient{
		pages: map[string]*catalog.Page{
			"label/5": {Name: "Tall Grass Records", Albums: albums},
		},
	}
	expander := &Expander{Client: client}

	node, err := expander.Expand(context.Background(), catalog.EntityLabel, "5", Options{AlbumsOnly: true})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(node.Children) != 1 || node.Children[0].ID != "a1" {
		t.Errorf("children = %+v, want only the full-length release", node.Children)
	}
}

func TestExpandPlaylistChildrenAreTracks(t *testing.T) {
	client := &fakeClient{
		pages: map[string]*catalog.Page{
			"playlist/7": {Name: "Road Trip", Tracks: []catalog.Track{
				{ID: "t1", Title: "First"},
				{ID: "t2", Title: "Second"},
			}},
		},
	}
	expander := &Expander{Client: client}

	node, err := expander.Expand(context.Background(), catalog.EntityPlaylist, "7", Options{})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(node.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(node.Children))
	}
	for i, want := range []string{"t1", "t2"} {
		if node.Children[i].Type != catalog.EntityTrack || node.Children[i].ID != want {
			t.Errorf("child[%d] = %+v, want track %s", i, node.Children[i], want)
		}
	}
}
