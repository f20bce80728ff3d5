package innertube

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// Well-known browse IDs.
const (
	BrowseHome          = "FEmusic_home"
	BrowseMoodsAndGenre = "FEmusic_moods_and_genres_category"
)

func (c *Client) browse(ctx context.Context, browseID, params string) (*BrowseResponse, error) {
	body := map[string]any{"browseId": browseID}
	if params != "" {
		body["params"] = params
	}
	var resp BrowseResponse
	if err := c.post(ctx, endpointBrowse, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Browse returns a sectioned page such as the home feed or a mood/genre listing.
// An empty browseID fetches the home feed. Sections without recognizable entries
// are left out.
func (c *Client) Browse(ctx context.Context, browseID, params string) (listing.BrowseResult, error) {
	if browseID == "" {
		browseID = BrowseHome
	}
	resp, err := c.browse(ctx, browseID, params)
	if err != nil {
		return listing.BrowseResult{}, errors.Wrapf(err, "failed to browse %s", browseID)
	}

	result := listing.BrowseResult{Title: resp.title()}
	sl := resp.sectionList()
	if sl == nil {
		return result, nil
	}
	for _, section := range sl.Contents {
		var s listing.BrowseSection
		switch {
		case section.MusicCarouselShelfRenderer != nil:
			shelf := section.MusicCarouselShelfRenderer
			if shelf.Header != nil && shelf.Header.Basic != nil {
				s.Title = shelf.Header.Basic.Title.String()
			}
			s.Items = parseShelf(shelf.Contents)
		case section.MusicShelfRenderer != nil:
			s.Title = section.MusicShelfRenderer.Title.String()
			s.Items = parseShelf(section.MusicShelfRenderer.Contents)
		default:
			continue
		}
		if len(s.Items) > 0 {
			result.Sections = append(result.Sections, s)
		}
	}
	return result, nil
}

// Playlist returns the title, the first songs and the continuation token of a playlist.
func (c *Client) Playlist(ctx context.Context, playlistID string) (string, []media.SongItem, string, error) {
	browseID := playlistID
	if !strings.HasPrefix(browseID, prefixPlaylist) {
		browseID = prefixPlaylist + playlistID
	}

	resp, err := c.browse(ctx, browseID, "")
	if err != nil {
		return "", nil, "", errors.Wrapf(err, "failed to fetch playlist %s", playlistID)
	}

	sl := resp.sectionList()
	if sl == nil {
		return resp.title(), []media.SongItem{}, "", nil
	}
	for _, section := range sl.Contents {
		shelf := section.MusicPlaylistShelfRenderer
		if shelf == nil {
			shelf = section.MusicShelfRenderer
		}
		if shelf == nil {
			continue
		}
		return resp.title(), songsOf(shelf.Contents), continuationToken(shelf.Continuations), nil
	}
	return resp.title(), []media.SongItem{}, "", nil
}

// PlaylistContinuation returns the playlist songs following token.
func (c *Client) PlaylistContinuation(ctx context.Context, token string) (listing.PlaylistContinuationPage, error) {
	var resp BrowseResponse
	if err := c.post(ctx, endpointBrowse, map[string]any{"continuation": token}, &resp); err != nil {
		return listing.PlaylistContinuationPage{}, errors.Wrap(err, "failed to fetch playlist continuation")
	}

	cc := resp.ContinuationContents
	if cc == nil {
		return listing.PlaylistContinuationPage{Songs: []media.SongItem{}}, nil
	}
	shelf := cc.MusicPlaylistShelfContinuation
	if shelf == nil {
		shelf = cc.MusicShelfContinuation
	}
	if shelf == nil {
		return listing.PlaylistContinuationPage{Songs: []media.SongItem{}}, nil
	}
	return listing.PlaylistContinuationPage{
		Songs:        songsOf(shelf.Contents),
		Continuation: continuationToken(shelf.Continuations),
	}, nil
}

func songsOf(contents []ShelfContent) []media.SongItem {
	songs := make([]media.SongItem, 0, len(contents))
	for _, it := range parseShelf(contents) {
		if s, ok := it.(media.SongItem); ok {
			songs = append(songs, s)
		}
	}
	return songs
}
