package innertube

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// Endpoints of the internal API. Cursors are prefixed with the endpoint that issued them.
const (
	endpointNext   = "next"
	endpointBrowse = "browse"
	endpointSearch = "search"
)

const (
	stationPlaylistPrefix = "RDAMVM"
	defaultStationParams  = "wAEB"
	searchSongsParams     = "EgWKAQIIAWoMEAMQBBAJEA4QChAF"
)

// FetchFirst returns the first page of the listing the seed describes.
func (c *Client) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	zlog.Debug().Msgf("innertube: fetch first: %s", seed)

	switch seed.Kind {
	case listing.SeedStation:
		return c.station(ctx, seed)
	case listing.SeedPlaylist:
		title, songs, cont, err := c.Playlist(ctx, seed.ID)
		if err != nil {
			return listing.Page{}, err
		}
		page := listing.PlaylistContinuationPage{Songs: songs, Continuation: cont}.Page()
		page.Title = title
		page.Continuation = cursor(endpointBrowse, cont)
		return page, nil
	case listing.SeedAlbum:
		return c.album(ctx, seed.ID)
	case listing.SeedSearch:
		return c.Search(ctx, seed.ID)
	case listing.SeedArtist:
		return c.artist(ctx, seed.ID)
	default:
		return listing.Page{}, errors.Newf("unsupported seed kind %q", seed.Kind)
	}
}

// FetchNext returns the page following a continuation issued by FetchFirst or FetchNext.
func (c *Client) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	endpoint, token, ok := strings.Cut(continuation, ":")
	if !ok || token == "" {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "malformed cursor %q", continuation)
	}

	var (
		page listing.Page
		err  error
	)
	switch endpoint {
	case endpointNext:
		page, err = c.stationContinuation(ctx, token)
	case endpointBrowse:
		var p listing.PlaylistContinuationPage
		p, err = c.PlaylistContinuation(ctx, token)
		page = p.Page()
		page.Continuation = cursor(endpointBrowse, p.Continuation)
	case endpointSearch:
		page, err = c.searchContinuation(ctx, token)
	default:
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "unknown cursor endpoint %q", endpoint)
	}
	if err != nil {
		return listing.Page{}, rejectedCursor(err)
	}
	return page, nil
}

// rejectedCursor maps a client error status on a continuation request to ErrInvalidCursor.
func rejectedCursor(err error) error {
	var serr *StatusError
	if errors.As(err, &serr) && (serr.StatusCode == http.StatusBadRequest || serr.StatusCode == http.StatusNotFound) {
		return errors.Wrapf(listing.ErrInvalidCursor, "%v", serr)
	}
	return err
}

func cursor(endpoint, token string) string {
	if token == "" {
		return ""
	}
	return endpoint + ":" + token
}

func (c *Client) station(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	params := seed.Params
	if params == "" {
		params = defaultStationParams
	}
	body := map[string]any{
		"videoId":                       seed.ID,
		"playlistId":                    stationPlaylistPrefix + seed.ID,
		"params":                        params,
		"isAudioOnly":                   true,
		"enablePersistentPlaylistPanel": true,
		"tunerSettingValue":             "AUTOMIX_SETTING_NORMAL",
	}

	var resp NextResponse
	if err := c.post(ctx, endpointNext, body, &resp); err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to fetch station")
	}
	return panelPage(&resp)
}

func (c *Client) stationContinuation(ctx context.Context, token string) (listing.Page, error) {
	body := map[string]any{
		"continuation":                  token,
		"isAudioOnly":                   true,
		"enablePersistentPlaylistPanel": true,
	}
	var resp NextResponse
	if err := c.post(ctx, endpointNext, body, &resp); err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to fetch station continuation")
	}
	return panelPage(&resp)
}

func panelPage(resp *NextResponse) (listing.Page, error) {
	panel := resp.panel()
	if panel == nil {
		return listing.Page{}, errors.New("response has no playlist panel")
	}
	items := make([]media.Item, 0, len(panel.Contents))
	for _, entry := range panel.Contents {
		if song, ok := parsePanelVideo(entry.PlaylistPanelVideoRenderer); ok {
			items = append(items, song)
		}
	}
	page := listing.NewPage(items, cursor(endpointNext, continuationToken(panel.Continuations)))
	page.Title = panel.Title
	return page, nil
}

func (c *Client) album(ctx context.Context, browseID string) (listing.Page, error) {
	resp, err := c.browse(ctx, browseID, "")
	if err != nil {
		return listing.Page{}, errors.Wrapf(err, "failed to fetch album %s", browseID)
	}

	var items []media.Item
	if sl := resp.sectionList(); sl != nil {
		for _, section := range sl.Contents {
			if section.MusicShelfRenderer != nil {
				items = append(items, parseShelf(section.MusicShelfRenderer.Contents)...)
			}
		}
	}

	// Album rows omit the artist and album, which the header carries.
	title := resp.title()
	for i, it := range items {
		if song, ok := it.(media.SongItem); ok && song.Album == nil {
			song.Album = &media.Album{ID: browseID, Title: title}
			items[i] = song
		}
	}

	page := listing.NewPage(items, "")
	page.Title = title
	return page, nil
}

func (c *Client) artist(ctx context.Context, browseID string) (listing.Page, error) {
	resp, err := c.browse(ctx, browseID, "")
	if err != nil {
		return listing.Page{}, errors.Wrapf(err, "failed to fetch artist %s", browseID)
	}

	var items []media.Item
	if sl := resp.sectionList(); sl != nil {
		for _, section := range sl.Contents {
			if section.MusicShelfRenderer != nil {
				items = parseShelf(section.MusicShelfRenderer.Contents)
				break
			}
		}
	}
	page := listing.NewPage(items, "")
	page.Title = resp.title()
	return page, nil
}

// Search returns the first page of song results for query.
func (c *Client) Search(ctx context.Context, query string) (listing.Page, error) {
	body := map[string]any{
		"query":  query,
		"params": searchSongsParams,
	}
	var resp SearchResponse
	if err := c.post(ctx, endpointSearch, body, &resp); err != nil {
		return listing.Page{}, errors.Wrapf(err, "failed to search %q", query)
	}

	page := listing.NewPage(nil, "")
	page.Title = query
	if resp.Contents == nil {
		return page, nil
	}
	sl := resp.Contents.TabbedSearchResultsRenderer.sectionList()
	if sl == nil {
		return page, nil
	}
	for _, section := range sl.Contents {
		if shelf := section.MusicShelfRenderer; shelf != nil {
			page.Items = parseShelf(shelf.Contents)
			page.Continuation = cursor(endpointSearch, continuationToken(shelf.Continuations))
			break
		}
	}
	return page, nil
}

func (c *Client) searchContinuation(ctx context.Context, token string) (listing.Page, error) {
	var resp SearchResponse
	if err := c.post(ctx, endpointSearch, map[string]any{"continuation": token}, &resp); err != nil {
		return listing.Page{}, errors.Wrap(err, "failed to fetch search continuation")
	}
	if resp.ContinuationContents == nil || resp.ContinuationContents.MusicShelfContinuation == nil {
		return listing.NewPage(nil, ""), nil
	}
	shelf := resp.ContinuationContents.MusicShelfContinuation
	return listing.NewPage(parseShelf(shelf.Contents), cursor(endpointSearch, continuationToken(shelf.Continuations))), nil
}
