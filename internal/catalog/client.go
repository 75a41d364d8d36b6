package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultPageLimit = 500

type ClientConfig struct {
	BaseURL   string
	AppID     string
	UserToken string
	UserAgent string
	Timeout   time.Duration

	// RequestsPerSecond bounds API calls; the catalog rate-limits
	// aggressive clients. Zero means 5 req/s.
	RequestsPerSecond float64

	Logger zerolog.Logger
}

// Client talks to the catalog's JSON API. Authentication is a single
// app-id/user-token header pair supplied by configuration; obtaining
// those tokens is not this client's concern.
type Client struct {
	http    *http.Client
	base    *url.URL
	appID   string
	token   string
	agent   string
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog base URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	agent := strings.TrimSpace(cfg.UserAgent)
	if agent == "" {
		agent = "qdl"
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		base:    base,
		appID:   cfg.AppID,
		token:   cfg.UserToken,
		agent:   agent,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     cfg.Logger,
	}, nil
}

// wire shapes for the catalog API

type wireArtist struct {
	Name   string `json:"name"`
	Albums struct {
		Items []wireAlbum `json:"items"`
	} `json:"albums"`
}

type wireLabel struct {
	Name   string `json:"name"`
	Albums struct {
		Items []wireAlbum `json:"items"`
	} `json:"albums"`
}

type wirePlaylist struct {
	Name   string `json:"name"`
	Tracks struct {
		Items []wireTrack `json:"items"`
	} `json:"tracks"`
}

type wireAlbum struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Version     string      `json:"version"`
	ReleaseType string      `json:"release_type"`
	TracksCount int         `json:"tracks_count"`
	Artist      struct {
		Name string `json:"name"`
	} `json:"artist"`
	Label struct {
		Name string `json:"name"`
	} `json:"label"`
	Image struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	ReleaseDate         string  `json:"release_date_original"`
	MaximumBitDepth     int     `json:"maximum_bit_depth"`
	MaximumSamplingRate float64 `json:"maximum_sampling_rate"`
	Tracks              *struct {
		Items []wireTrack `json:"items"`
	} `json:"tracks"`
}

type wireTrack struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Version     string      `json:"version"`
	TrackNumber int         `json:"track_number"`
	Duration    int         `json:"duration"`
	Streamable  bool        `json:"streamable"`
	Performer   struct {
		Name string `json:"name"`
	} `json:"performer"`
}

type wireFileURL struct {
	URL          string  `json:"url"`
	FormatID     int     `json:"format_id"`
	BitDepth     int     `json:"bit_depth"`
	SamplingRate float64 `json:"sampling_rate"`
	Sample       bool    `json:"sample"`
	Restrictions []struct {
		Code string `json:"code"`
	} `json:"restrictions"`
}

// Entity fetches one metadata page for a collection entity and its
// first page of children.
func (c *Client) Entity(ctx context.Context, t EntityType, id string) (*Page, error) {
	switch t {
	case EntityArtist:
		var payload wireArtist
		if err := c.get(ctx, "artist/get", url.Values{
			"artist_id": {id},
			"extra":     {"albums"},
			"limit":     {strconv.Itoa(defaultPageLimit)},
		}, &payload); err != nil {
			return nil, err
		}
		return &Page{Name: payload.Name, Albums: mapAlbums(payload.Albums.Items)}, nil
	case EntityLabel:
		var payload wireLabel
		if err := c.get(ctx, "label/get", url.Values{
			"label_id": {id},
			"extra":    {"albums"},
			"limit":    {strconv.Itoa(defaultPageLimit)},
		}, &payload); err != nil {
			return nil, err
		}
		return &Page{Name: payload.Name, Albums: mapAlbums(payload.Albums.Items)}, nil
	case EntityPlaylist:
		var payload wirePlaylist
		if err := c.get(ctx, "playlist/get", url.Values{
			"playlist_id": {id},
			"extra":       {"tracks"},
			"limit":       {strconv.Itoa(defaultPageLimit)},
		}, &payload); err != nil {
			return nil, err
		}
		return &Page{Name: payload.Name, Tracks: mapTracks(payload.Tracks.Items)}, nil
	default:
		return nil, fmt.Errorf("entity type %q is not a collection", t)
	}
}

func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	var payload wireAlbum
	if err := c.get(ctx, "album/get", url.Values{"album_id": {id}}, &payload); err != nil {
		return nil, err
	}
	album := &Album{Release: mapAlbum(payload)}
	if payload.Tracks != nil {
		album.Tracks = mapTracks(payload.Tracks.Items)
	}
	return album, nil
}

// TrackAlbum fetches a track together with its parent album metadata,
// which drives folder naming for bare track references.
func (c *Client) TrackAlbum(ctx context.Context, id string) (*Track, *Album, error) {
	var payload struct {
		wireTrack
		Album *wireAlbum `json:"album"`
	}
	if err := c.get(ctx, "track/get", url.Values{"track_id": {id}}, &payload); err != nil {
		return nil, nil, err
	}
	track := mapTrack(payload.wireTrack)
	var album *Album
	if payload.Album != nil {
		album = &Album{Release: mapAlbum(*payload.Album)}
	}
	return &track, album, nil
}

func (c *Client) Search(ctx context.Context, query string, t EntityType, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	endpoint := string(t) + "/search"

	var payload map[string]json.RawMessage
	if err := c.get(ctx, endpoint, url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}, &payload); err != nil {
		return nil, err
	}

	raw, ok := payload[string(t)+"s"]
	if !ok {
		return nil, fmt.Errorf("search response missing %q section", string(t)+"s")
	}

	results := []SearchResult{}
	switch t {
	case EntityAlbum:
		var section struct {
			Items []wireAlbum `json:"items"`
		}
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, fmt.Errorf("decode album search: %w", err)
		}
		for _, item := range section.Items {
			release := mapAlbum(item)
			results = append(results, SearchResult{
				Type:    EntityAlbum,
				ID:      release.ID,
				Display: release.Artist + " - " + release.DisplayTitle(),
				URL:     c.webURL(EntityAlbum, release.ID),
			})
		}
	case EntityTrack:
		var section struct {
			Items []wireTrack `json:"items"`
		}
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, fmt.Errorf("decode track search: %w", err)
		}
		for _, item := range section.Items {
			track := mapTrack(item)
			results = append(results, SearchResult{
				Type:    EntityTrack,
				ID:      track.ID,
				Display: track.Performer + " - " + track.Title,
				URL:     c.webURL(EntityTrack, track.ID),
			})
		}
	case EntityArtist, EntityPlaylist:
		var section struct {
			Items []struct {
				ID   json.Number `json:"id"`
				Name string      `json:"name"`
			} `json:"items"`
		}
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, fmt.Errorf("decode %s search: %w", t, err)
		}
		for _, item := range section.Items {
			results = append(results, SearchResult{
				Type:    t,
				ID:      item.ID.String(),
				Display: item.Name,
				URL:     c.webURL(t, item.ID.String()),
			})
		}
	default:
		return nil, fmt.Errorf("unsupported search type %q", t)
	}
	return results, nil
}

// FileURL resolves a signed stream URL for a track at the given format
// id. Unavailability at this tier surfaces as ErrUnstreamable; the
// caller decides whether to step down.
func (c *Client) FileURL(ctx context.Context, trackID string, formatID int) (string, error) {
	var payload wireFileURL
	err := c.get(ctx, "track/getFileUrl", url.Values{
		"track_id":  {trackID},
		"format_id": {strconv.Itoa(formatID)},
	}, &payload)
	if err != nil {
		return "", err
	}
	if payload.URL == "" || payload.Sample {
		return "", fmt.Errorf("%w: track %s at format %d", ErrUnstreamable, trackID, formatID)
	}
	for _, restriction := range payload.Restrictions {
		if strings.Contains(restriction.Code, "NotAvailable") {
			return "", fmt.Errorf("%w: track %s at format %d (%s)", ErrUnstreamable, trackID, formatID, restriction.Code)
		}
	}
	return payload.URL, nil
}

// Download streams raw bytes from a previously resolved file URL.
func (c *Client) Download(ctx context.Context, fileURL string) (io.ReadCloser, int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &NetworkError{Op: "download", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, 0, &NetworkError{Op: "download", Err: err}
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Op: "download", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, &NetworkError{Op: "download", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: endpoint, Err: err}
	}

	target := *c.base
	target.Path = strings.TrimSuffix(target.Path, "/") + "/" + endpoint
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return &NetworkError{Op: endpoint, Err: err}
	}
	req.Header.Set("User-Agent", c.agent)
	if c.appID != "" {
		req.Header.Set("X-App-Id", c.appID)
	}
	if c.token != "" {
		req.Header.Set("X-User-Auth-Token", c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("endpoint", endpoint).Err(err).Msg("catalog request failed")
		return &NetworkError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("catalog request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &NetworkError{
			Op:  endpoint,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) webURL(t EntityType, id string) string {
	return fmt.Sprintf("https://%s/%s/%s", strings.TrimPrefix(c.base.Host, "www."), t, id)
}

func mapAlbums(items []wireAlbum) []Release {
	releases := make([]Release, 0, len(items))
	for _, item := range items {
		releases = append(releases, mapAlbum(item))
	}
	return releases
}

func mapAlbum(item wireAlbum) Release {
	return Release{
		ID:           item.ID.String(),
		Title:        item.Title,
		Version:      item.Version,
		Artist:       item.Artist.Name,
		Year:         releaseYear(item.ReleaseDate),
		BitDepth:     item.MaximumBitDepth,
		SamplingRate: item.MaximumSamplingRate,
		Label:        item.Label.Name,
		ReleaseType:  strings.ToLower(strings.TrimSpace(item.ReleaseType)),
		TrackCount:   item.TracksCount,
		CoverURL:     firstNonEmpty(item.Image.Large, item.Image.Small),
	}
}

func mapTracks(items []wireTrack) []Track {
	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, mapTrack(item))
	}
	return tracks
}

func mapTrack(item wireTrack) Track {
	return Track{
		ID:         item.ID.String(),
		Title:      item.Title,
		Version:    item.Version,
		Number:     item.TrackNumber,
		Performer:  item.Performer.Name,
		Duration:   item.Duration,
		Streamable: item.Streamable,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
