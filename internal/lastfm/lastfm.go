// Package lastfm scrapes last.fm playlist pages to seed catalog search
// queries. last.fm has no playlist API endpoint, so the chart table on
// the page itself is the only source.
package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	artistSelector = "td.chartlist-artist > a"
	titleSelector  = "td.chartlist-name > a"
)

// Playlist is the scraped page: a title plus "artist title" query
// strings, one per chart row, in page order.
type Playlist struct {
	Title   string
	Queries []string
}

type Scraper struct {
	http *http.Client
}

func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{http: &http.Client{Timeout: timeout}}
}

// IsPlaylistURL reports whether a reference points at last.fm and
// should be scraped instead of parsed as a catalog reference.
func IsPlaylistURL(reference string) bool {
	return strings.Contains(reference, "last.fm")
}

func (s *Scraper) Scrape(ctx context.Context, playlistURL string) (*Playlist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build last.fm request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch last.fm playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("last.fm returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse last.fm page: %w", err)
	}
	return parseDocument(doc)
}

func parseDocument(doc *goquery.Document) (*Playlist, error) {
	artists := doc.Find(artistSelector).Map(func(_ int, sel *goquery.Selection) string {
		return strings.TrimSpace(sel.Text())
	})
	titles := doc.Find(titleSelector).Map(func(_ int, sel *goquery.Selection) string {
		return strings.TrimSpace(sel.Text())
	})

	if len(artists) == 0 || len(artists) != len(titles) {
		return nil, fmt.Errorf("no playable chart rows found (artists=%d titles=%d)", len(artists), len(titles))
	}

	playlist := &Playlist{
		Title:   strings.TrimSpace(doc.Find("h1").First().Text()),
		Queries: make([]string, 0, len(artists)),
	}
	for i := range artists {
		playlist.Queries = append(playlist.Queries, artists[i]+" "+titles[i])
	}
	return playlist, nil
}
