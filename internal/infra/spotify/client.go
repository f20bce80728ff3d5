// Package spotify provides a listing source backed by the Spotify Web API.
package spotify

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

const (
	defaultPageSize = 50
	maxPageSize     = 50 // Album tracks and search cap at 50 per request
)

// Scopes are the OAuth scopes a refresh token needs for reading listings.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopeUserLibraryRead,
}

// Client is a Spotify listing source.
// Continuations have the form "kind:offset:id".
type Client struct {
	client     *spotify.Client
	market     string
	pageSize   int
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
	PageSize     int
	BaseURL      string // API base URL override, must end with "/"
}

// New creates a new Spotify client using a refresh token.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(Scopes...),
	)
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}

	return NewWithHTTPClient(auth.Client(ctx, token), cfg), nil
}

// NewWithHTTPClient creates a client that sends requests through httpClient as is.
func NewWithHTTPClient(httpClient *http.Client, cfg Config) *Client {
	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}

	market := cfg.Market
	if market == "" {
		market = "JP"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return &Client{
		client:     spotify.New(httpClient, opts...),
		market:     market,
		pageSize:   pageSize,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// FetchFirst returns the first page of the listing the seed describes.
func (c *Client) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	zlog.Debug().Msgf("spotify: fetch first: %s", seed)

	switch seed.Kind {
	case listing.SeedPlaylist:
		id := extractPlaylistID(seed.ID)
		if id == "" {
			return listing.Page{}, errors.New("invalid playlist URL")
		}
		var playlist *spotify.FullPlaylist
		err := c.retry(ctx, func() error {
			p, err := c.client.GetPlaylist(ctx, spotify.ID(id), spotify.Fields("name"), spotify.Market(c.market))
			if err != nil {
				return err
			}
			playlist = p
			return nil
		})
		if err != nil {
			return listing.Page{}, errors.Wrap(err, "failed to get playlist")
		}
		page, err := c.playlistPage(ctx, id, 0)
		if err != nil {
			return listing.Page{}, err
		}
		page.Title = playlist.Name
		return page, nil
	case listing.SeedAlbum:
		return c.albumPage(ctx, extractID(seed.ID, "album"), 0, true)
	case listing.SeedSearch:
		page, err := c.searchPage(ctx, seed.ID, 0)
		if err != nil {
			return listing.Page{}, err
		}
		page.Title = seed.ID
		return page, nil
	case listing.SeedArtist:
		return c.artistTopTracks(ctx, extractID(seed.ID, "artist"))
	default:
		return listing.Page{}, errors.Newf("seed kind %q is not supported by spotify", seed.Kind)
	}
}

// FetchNext returns the page at the offset encoded in the continuation.
func (c *Client) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	kind, offset, id, err := parseCursor(continuation)
	if err != nil {
		return listing.Page{}, err
	}

	var page listing.Page
	switch kind {
	case listing.SeedPlaylist:
		page, err = c.playlistPage(ctx, id, offset)
	case listing.SeedAlbum:
		page, err = c.albumPage(ctx, id, offset, false)
	case listing.SeedSearch:
		page, err = c.searchPage(ctx, id, offset)
	}
	if err != nil {
		return listing.Page{}, rejectedCursor(err)
	}
	return page, nil
}

func (c *Client) playlistPage(ctx context.Context, id string, offset int) (listing.Page, error) {
	var page *spotify.PlaylistItemPage
	err := c.retry(ctx, func() error {
		p, err := c.client.GetPlaylistItems(ctx, spotify.ID(id),
			spotify.Limit(c.pageSize),
			spotify.Offset(offset),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to get playlist items")
	}

	items := make([]media.Item, 0, len(page.Items))
	for _, item := range page.Items {
		// Episodes and local files carry no playable track.
		if item.Track.Track != nil && item.Track.Track.ID != "" {
			items = append(items, convertTrack(item.Track.Track))
		}
	}

	next := ""
	if page.Next != "" {
		next = formatCursor(listing.SeedPlaylist, offset+len(page.Items), id)
	}
	return listing.NewPage(items, next), nil
}

func (c *Client) albumPage(ctx context.Context, id string, offset int, first bool) (listing.Page, error) {
	var album *spotify.FullAlbum
	err := c.retry(ctx, func() error {
		a, err := c.client.GetAlbum(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		album = a
		return nil
	})
	if err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to get album")
	}

	var tracks *spotify.SimpleTrackPage
	err = c.retry(ctx, func() error {
		p, err := c.client.GetAlbumTracks(ctx, spotify.ID(id),
			spotify.Limit(c.pageSize),
			spotify.Offset(offset),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		tracks = p
		return nil
	})
	if err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to get album tracks")
	}

	ref := &media.Album{ID: string(album.ID), Title: album.Name}
	thumbnail := largestImage(album.Images)
	items := make([]media.Item, 0, len(tracks.Tracks))
	for _, t := range tracks.Tracks {
		song := convertSimpleTrack(t)
		song.Album = ref
		song.ThumbnailURL = thumbnail
		items = append(items, song)
	}

	next := ""
	if tracks.Next != "" {
		next = formatCursor(listing.SeedAlbum, offset+len(tracks.Tracks), id)
	}
	page := listing.NewPage(items, next)
	if first {
		page.Title = album.Name
	}
	return page, nil
}

func (c *Client) searchPage(ctx context.Context, query string, offset int) (listing.Page, error) {
	if query == "" {
		return listing.Page{}, errors.New("search query is required")
	}

	var result *spotify.SearchResult
	err := c.retry(ctx, func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
			spotify.Limit(c.pageSize),
			spotify.Offset(offset),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to search")
	}
	if result.Tracks == nil {
		return listing.NewPage(nil, ""), nil
	}

	items := make([]media.Item, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		items = append(items, convertTrack(&result.Tracks.Tracks[i]))
	}

	next := ""
	if result.Tracks.Next != "" && len(result.Tracks.Tracks) > 0 {
		next = formatCursor(listing.SeedSearch, offset+len(result.Tracks.Tracks), query)
	}
	return listing.NewPage(items, next), nil
}

func (c *Client) artistTopTracks(ctx context.Context, id string) (listing.Page, error) {
	var tracks []spotify.FullTrack
	err := c.retry(ctx, func() error {
		t, err := c.client.GetArtistsTopTracks(ctx, spotify.ID(id), c.market)
		if err != nil {
			return err
		}
		tracks = t
		return nil
	})
	if err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to get artist top tracks")
	}

	items := make([]media.Item, 0, len(tracks))
	for i := range tracks {
		items = append(items, convertTrack(&tracks[i]))
	}
	page := listing.NewPage(items, "")
	if len(tracks) > 0 {
		for _, a := range tracks[0].Artists {
			if string(a.ID) == id {
				page.Title = a.Name
				break
			}
		}
	}
	return page, nil
}

// convertTrack converts a Spotify FullTrack to a song entry.
func convertTrack(t *spotify.FullTrack) media.SongItem {
	song := convertSimpleTrack(t.SimpleTrack)
	song.Album = &media.Album{ID: string(t.Album.ID), Title: t.Album.Name}
	song.ThumbnailURL = largestImage(t.Album.Images)
	return song
}

func convertSimpleTrack(t spotify.SimpleTrack) media.SongItem {
	artists := make([]media.Artist, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = media.Artist{ID: string(a.ID), Name: a.Name}
	}
	return media.SongItem{
		ID:       string(t.ID),
		Title:    t.Name,
		Artists:  artists,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		Explicit: t.Explicit,
	}
}

// largestImage returns the first image URL; Spotify orders images widest first.
func largestImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func formatCursor(kind listing.SeedKind, offset int, id string) string {
	return string(kind) + ":" + strconv.Itoa(offset) + ":" + id
}

func parseCursor(cursor string) (listing.SeedKind, int, string, error) {
	parts := strings.SplitN(cursor, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", 0, "", errors.Wrapf(listing.ErrInvalidCursor, "malformed cursor %q", cursor)
	}
	kind := listing.SeedKind(parts[0])
	switch kind {
	case listing.SeedPlaylist, listing.SeedAlbum, listing.SeedSearch:
	default:
		return "", 0, "", errors.Wrapf(listing.ErrInvalidCursor, "unknown cursor kind %q", parts[0])
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return "", 0, "", errors.Wrapf(listing.ErrInvalidCursor, "bad offset in cursor %q", cursor)
	}
	return kind, offset, parts[2], nil
}

// rejectedCursor maps "bad request" and "not found" API errors on a continuation to ErrInvalidCursor.
func rejectedCursor(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusNotFound) {
		return errors.Wrapf(listing.ErrInvalidCursor, "%v", apiErr)
	}
	return err
}

// retry retries an operation with a linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractID extracts the ID of a Spotify object of the given type from a URL or URI.
func extractID(input, typ string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:<type>:ID
	if prefix := "spotify:" + typ + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// Handle URL format: https://open.spotify.com/<type>/ID or https://open.spotify.com/intl-XX/<type>/ID
	sep := "/" + typ + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, sep) {
		parts := strings.Split(input, sep)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	// Assume it's already an ID
	return input
}
