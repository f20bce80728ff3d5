// Package youtube provides a listing source backed by the YouTube Data API.
package youtube

import (
	"context"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

const (
	defaultPageSize = 25
	maxPageSize     = 50
	musicCategoryID = "10"
)

// Config represents YouTube Data API client configuration.
type Config struct {
	APIKey   string
	PageSize int
	Endpoint string // API endpoint override
	// HTTPClient replaces the default transport and its authentication.
	HTTPClient *http.Client
}

// Client is a YouTube Data API listing source.
// Continuations have the form "kind:pageToken:id".
type Client struct {
	service  *ytapi.Service
	pageSize int64
}

// New creates a new YouTube Data API client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error creating YouTube client")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return &Client{service: service, pageSize: int64(pageSize)}, nil
}

// FetchFirst returns the first page of the listing the seed describes.
func (c *Client) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	zlog.Debug().Msgf("youtube: fetch first: %s", seed)

	switch seed.Kind {
	case listing.SeedPlaylist:
		title, err := c.playlistTitle(ctx, seed.ID)
		if err != nil {
			return listing.Page{}, err
		}
		page, err := c.playlistPage(ctx, seed.ID, "")
		if err != nil {
			return listing.Page{}, err
		}
		page.Title = title
		return page, nil
	case listing.SeedSearch:
		page, err := c.searchPage(ctx, seed.ID, "")
		if err != nil {
			return listing.Page{}, err
		}
		page.Title = seed.ID
		return page, nil
	default:
		return listing.Page{}, errors.Newf("seed kind %q is not supported by youtube", seed.Kind)
	}
}

// FetchNext returns the page for the token encoded in the continuation.
func (c *Client) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	parts := strings.SplitN(continuation, ":", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "malformed cursor %q", continuation)
	}

	var (
		page listing.Page
		err  error
	)
	switch listing.SeedKind(parts[0]) {
	case listing.SeedPlaylist:
		page, err = c.playlistPage(ctx, parts[2], parts[1])
	case listing.SeedSearch:
		page, err = c.searchPage(ctx, parts[2], parts[1])
	default:
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "unknown cursor kind %q", parts[0])
	}
	if err != nil {
		return listing.Page{}, err
	}
	return page, nil
}

func (c *Client) playlistTitle(ctx context.Context, playlistID string) (string, error) {
	resp, err := c.service.Playlists.List([]string{"snippet"}).Id(playlistID).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "error querying playlist")
	}
	if len(resp.Items) == 0 {
		return "", errors.Newf("playlist %s not found", playlistID)
	}
	return html.UnescapeString(resp.Items[0].Snippet.Title), nil
}

func (c *Client) playlistPage(ctx context.Context, playlistID, token string) (listing.Page, error) {
	call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(c.pageSize)
	if token != "" {
		call = call.PageToken(token)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return listing.Page{}, pageTokenError(errors.Wrap(err, "error querying playlist items"), token)
	}

	songs := make([]media.SongItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" || item.Snippet == nil {
			continue
		}
		songs = append(songs, media.SongItem{
			ID:           item.ContentDetails.VideoId,
			Title:        html.UnescapeString(item.Snippet.Title),
			Artists:      channelArtist(item.Snippet.VideoOwnerChannelId, item.Snippet.VideoOwnerChannelTitle),
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
			PlaylistID:   playlistID,
		})
	}

	if err := c.fillDurations(ctx, songs); err != nil {
		return listing.Page{}, err
	}
	return listing.NewPage(songItems(songs), formatCursor(listing.SeedPlaylist, resp.NextPageToken, playlistID)), nil
}

func (c *Client) searchPage(ctx context.Context, query, token string) (listing.Page, error) {
	if query == "" {
		return listing.Page{}, errors.New("search query is required")
	}

	call := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(musicCategoryID).
		MaxResults(c.pageSize)
	if token != "" {
		call = call.PageToken(token)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return listing.Page{}, pageTokenError(errors.Wrap(err, "error querying YouTube"), token)
	}

	songs := make([]media.SongItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.Kind != "youtube#video" || item.Snippet == nil {
			continue
		}
		songs = append(songs, media.SongItem{
			ID:           item.Id.VideoId,
			Title:        html.UnescapeString(item.Snippet.Title),
			Artists:      channelArtist(item.Snippet.ChannelId, item.Snippet.ChannelTitle),
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
		})
	}

	if err := c.fillDurations(ctx, songs); err != nil {
		return listing.Page{}, err
	}
	return listing.NewPage(songItems(songs), formatCursor(listing.SeedSearch, resp.NextPageToken, query)), nil
}

// fillDurations looks up the durations of all songs in a single batch request.
func (c *Client) fillDurations(ctx context.Context, songs []media.SongItem) error {
	if len(songs) == 0 {
		return nil
	}
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}

	resp, err := c.service.Videos.List([]string{"contentDetails"}).Id(ids...).Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, "error getting video details")
	}

	durations := make(map[string]time.Duration, len(resp.Items))
	for _, v := range resp.Items {
		if v.ContentDetails != nil {
			durations[v.Id] = parseDuration(v.ContentDetails.Duration)
		}
	}
	for i := range songs {
		songs[i].Duration = durations[songs[i].ID]
	}
	return nil
}

func songItems(songs []media.SongItem) []media.Item {
	items := make([]media.Item, len(songs))
	for i, s := range songs {
		items[i] = s
	}
	return items
}

// channelArtist maps the uploading channel to an artist. Auto-generated
// "Artist - Topic" channels are shortened to the artist name.
func channelArtist(id, title string) []media.Artist {
	if title == "" {
		return nil
	}
	return []media.Artist{{ID: id, Name: strings.TrimSuffix(title, " - Topic")}}
}

func thumbnailURL(t *ytapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*ytapi.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func formatCursor(kind listing.SeedKind, token, id string) string {
	if token == "" {
		return ""
	}
	return string(kind) + ":" + token + ":" + id
}

// pageTokenError maps "bad request" and "not found" errors of a list call that
// carried a page token to ErrInvalidCursor. Other calls made for the page, such
// as the duration lookup, keep their errors.
func pageTokenError(err error, token string) error {
	if token == "" {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusNotFound) {
		return errors.Wrapf(listing.ErrInvalidCursor, "%v", apiErr.Message)
	}
	return err
}

// parseDuration parses an ISO 8601 duration such as "PT1H2M3S".
func parseDuration(s string) time.Duration {
	s = strings.TrimPrefix(s, "P")
	days := time.Duration(0)
	if idx := strings.Index(s, "D"); idx != -1 {
		n, err := strconv.Atoi(s[:idx])
		if err != nil {
			return 0
		}
		days = time.Duration(n) * 24 * time.Hour
		s = s[idx+1:]
	}
	s = strings.TrimPrefix(s, "T")

	total := days
	for _, unit := range []struct {
		suffix string
		d      time.Duration
	}{{"H", time.Hour}, {"M", time.Minute}, {"S", time.Second}} {
		idx := strings.Index(s, unit.suffix)
		if idx == -1 {
			continue
		}
		n, err := strconv.Atoi(s[:idx])
		if err != nil {
			return 0
		}
		total += time.Duration(n) * unit.d
		s = s[idx+1:]
	}
	return total
}
