package spotify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sv4u/spotigo"

	"github.com/cartape/cartape/pipeline/track"
)

// Config holds configuration for the playlist source client.
type Config struct {
	ClientID     string
	ClientSecret string

	CacheSize int
	CacheTTL  time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// SetDefaults sets default values for Config.
func (c *Config) SetDefaults() {
	if c.CacheSize == 0 {
		c.CacheSize = 100
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.RateLimitRequests == 0 {
		c.RateLimitRequests = 10
	}
	if c.RateLimitWindow == 0 {
		c.RateLimitWindow = time.Second
	}
}

// Playlist holds the playlist attributes the pipeline consumes.
type Playlist struct {
	ID     string
	Name   string
	Tracks []track.Descriptor
}

// Client is a spotigo wrapper that adds proactive rate limiting and
// response caching around playlist reads.
type Client struct {
	client  *spotigo.Client
	cache   *TTLCache
	limiter *RateLimiter
}

// NewClient creates a playlist source client using the client-credentials
// flow.
func NewClient(cfg *Config) (*Client, error) {
	cfg.SetDefaults()

	auth, err := spotigo.NewClientCredentials(cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, &SpotifyError{Message: "Failed to create auth", Original: err}
	}
	spotigoClient, err := spotigo.NewClient(auth)
	if err != nil {
		return nil, &SpotifyError{Message: "Failed to create client", Original: err}
	}

	return &Client{
		client:  spotigoClient,
		cache:   NewTTLCache(cfg.CacheSize, cfg.CacheTTL),
		limiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
	}, nil
}

// FetchPlaylist resolves a playlist ID, URL, or URI to its name and full
// track list, paginating through every page. Local and malformed entries
// are skipped.
func (c *Client) FetchPlaylist(ctx context.Context, playlistIDOrURL string) (*Playlist, error) {
	playlistID, err := spotigo.GetID(playlistIDOrURL, "playlist")
	if err != nil {
		return nil, &SpotifyError{
			Message:  fmt.Sprintf("Invalid playlist ID or URL: %s", playlistIDOrURL),
			Original: err,
		}
	}

	cacheKey := fmt.Sprintf("playlist:%s", playlistID)
	if cached := c.cache.Get(cacheKey); cached != nil {
		if playlist, ok := cached.(*Playlist); ok {
			return playlist, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	meta, err := c.client.Playlist(ctx, playlistIDOrURL, nil)
	if err != nil {
		return nil, c.handleError(err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	paging, err := c.client.PlaylistTracks(ctx, playlistID, nil)
	if err != nil {
		return nil, c.handleError(err)
	}

	playlist := &Playlist{ID: playlistID, Name: meta.Name}
	position := 0
	for {
		for _, item := range paging.Items {
			desc, ok := descriptorFromItem(item)
			if !ok {
				continue
			}
			position++
			desc.Position = position
			if desc.Album == "" {
				desc.Album = meta.Name
			}
			playlist.Tracks = append(playlist.Tracks, desc)
		}

		if paging.GetNext() == nil {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		paging, err = spotigo.NextGeneric[spotigo.PlaylistTrack](c.client, ctx, paging)
		if err != nil {
			return nil, c.handleError(err)
		}
		if paging == nil {
			break
		}
	}

	log.Printf("INFO: playlist_fetched playlist_id=%s name=%s tracks=%d", playlistID, meta.Name, len(playlist.Tracks))
	c.cache.Set(cacheKey, playlist)
	return playlist, nil
}

// descriptorFromItem converts one playlist entry. The item's Track field
// can be a Track or SimplifiedTrack, by value or pointer.
func descriptorFromItem(item spotigo.PlaylistTrack) (track.Descriptor, bool) {
	var desc track.Descriptor
	var isLocal bool

	switch t := item.Track.(type) {
	case *spotigo.Track:
		if t == nil {
			return desc, false
		}
		desc = fullTrackDescriptor(*t)
		isLocal = t.IsLocal
	case spotigo.Track:
		desc = fullTrackDescriptor(t)
		isLocal = t.IsLocal
	case *spotigo.SimplifiedTrack:
		if t == nil {
			return desc, false
		}
		desc = simplifiedTrackDescriptor(*t)
		isLocal = t.IsLocal
	case spotigo.SimplifiedTrack:
		desc = simplifiedTrackDescriptor(t)
		isLocal = t.IsLocal
	default:
		return desc, false
	}

	if isLocal || desc.Title == "" {
		return track.Descriptor{}, false
	}
	return desc, true
}

func fullTrackDescriptor(t spotigo.Track) track.Descriptor {
	desc := track.Descriptor{
		Title:           t.Name,
		DurationSeconds: t.DurationMs / 1000,
	}
	if len(t.Artists) > 0 {
		desc.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		desc.Album = t.Album.Name
	}
	return desc
}

func simplifiedTrackDescriptor(t spotigo.SimplifiedTrack) track.Descriptor {
	desc := track.Descriptor{
		Title:           t.Name,
		DurationSeconds: t.DurationMs / 1000,
	}
	if len(t.Artists) > 0 {
		desc.Artist = t.Artists[0].Name
	}
	return desc
}

// handleError classifies spotigo failures, surfacing rate limiting so the
// caller can back off.
func (c *Client) handleError(err error) error {
	if err == nil {
		return nil
	}
	if isRateLimitError(err) {
		return &RateLimitError{RetryAfter: extractRetryAfter(err), Original: err}
	}
	return &SpotifyError{Message: "Spotify API error", Original: err}
}

func isRateLimitError(err error) bool {
	if httpErr, ok := err.(interface{ StatusCode() int }); ok {
		return httpErr.StatusCode() == http.StatusTooManyRequests
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func extractRetryAfter(err error) int {
	if httpErr, ok := err.(interface{ RetryAfter() int }); ok {
		if retryAfter := httpErr.RetryAfter(); retryAfter > 0 {
			return retryAfter
		}
	}
	return 1
}
