package innertube

import (
	"strconv"
	"strings"
	"time"

	"github.com/osa030/innerbeat/internal/domain/media"
)

// Browse ID prefixes identify what a browse endpoint opens.
const (
	prefixAlbum    = "MPRE"
	prefixArtist   = "UC"
	prefixPlaylist = "VL"
)

func parseListItem(r *MusicResponsiveListItemRenderer) (media.Item, bool) {
	if r == nil || len(r.FlexColumns) == 0 {
		return nil, false
	}

	first := r.FlexColumns[0].Renderer.Text
	title := first.String()
	var subtitle *Runs
	if len(r.FlexColumns) > 1 {
		subtitle = &r.FlexColumns[1].Renderer.Text
	}

	videoID := ""
	if r.PlaylistItemData != nil {
		videoID = r.PlaylistItemData.VideoID
	}
	if videoID == "" && len(first.Runs) > 0 {
		if ne := first.Runs[0].NavigationEndpoint; ne != nil && ne.WatchEndpoint != nil {
			videoID = ne.WatchEndpoint.VideoID
		}
	}

	if videoID != "" {
		song := media.SongItem{
			ID:           videoID,
			Title:        title,
			Artists:      artistsFrom(subtitle),
			Album:        albumFrom(subtitle),
			ThumbnailURL: r.Thumbnail.URL(),
			Explicit:     explicit(r.Badges),
		}
		if len(r.FixedColumns) > 0 {
			song.Duration = parseDuration(r.FixedColumns[0].Renderer.Text.String())
		}
		if song.Duration == 0 && subtitle != nil && len(subtitle.Runs) > 0 {
			song.Duration = parseDuration(subtitle.Runs[len(subtitle.Runs)-1].Text)
		}
		return song, true
	}

	if r.NavigationEndpoint == nil || r.NavigationEndpoint.BrowseEndpoint == nil {
		return nil, false
	}
	return browseItem(r.NavigationEndpoint.BrowseEndpoint.BrowseID, title, subtitle, r.Thumbnail.URL(), explicit(r.Badges))
}

func parseTwoRowItem(r *MusicTwoRowItemRenderer) (media.Item, bool) {
	if r == nil || r.NavigationEndpoint == nil {
		return nil, false
	}
	title := r.Title.String()

	if we := r.NavigationEndpoint.WatchEndpoint; we != nil && we.VideoID != "" {
		return media.SongItem{
			ID:           we.VideoID,
			Title:        title,
			Artists:      artistsFrom(r.Subtitle),
			Album:        albumFrom(r.Subtitle),
			ThumbnailURL: r.ThumbnailRenderer.URL(),
			Explicit:     explicit(r.SubtitleBadges),
			PlaylistID:   we.PlaylistID,
			Params:       we.Params,
		}, true
	}
	if be := r.NavigationEndpoint.BrowseEndpoint; be != nil {
		return browseItem(be.BrowseID, title, r.Subtitle, r.ThumbnailRenderer.URL(), explicit(r.SubtitleBadges))
	}
	return nil, false
}

func browseItem(browseID, title string, subtitle *Runs, thumbnail string, isExplicit bool) (media.Item, bool) {
	switch {
	case strings.HasPrefix(browseID, prefixAlbum):
		return media.AlbumItem{
			BrowseID:     browseID,
			Title:        title,
			Artists:      artistsFrom(subtitle),
			Year:         yearFrom(subtitle),
			ThumbnailURL: thumbnail,
			Explicit:     isExplicit,
		}, true
	case strings.HasPrefix(browseID, prefixArtist):
		return media.ArtistItem{
			ID:           browseID,
			Title:        title,
			ThumbnailURL: thumbnail,
		}, true
	case strings.HasPrefix(browseID, prefixPlaylist):
		item := media.PlaylistItem{
			ID:           strings.TrimPrefix(browseID, prefixPlaylist),
			Title:        title,
			ThumbnailURL: thumbnail,
		}
		if artists := artistsFrom(subtitle); len(artists) > 0 {
			item.Author = &artists[0]
		}
		if subtitle != nil && len(subtitle.Runs) > 0 {
			if last := subtitle.Runs[len(subtitle.Runs)-1].Text; strings.Contains(last, "song") {
				item.SongCount = last
			}
		}
		return item, true
	}
	return nil, false
}

func parsePanelVideo(v *PlaylistPanelVideoRenderer) (media.SongItem, bool) {
	if v == nil || v.VideoID == "" {
		return media.SongItem{}, false
	}
	song := media.SongItem{
		ID:           v.VideoID,
		Title:        v.Title.String(),
		Artists:      artistsFrom(&v.LongBylineText),
		Album:        albumFrom(&v.LongBylineText),
		Duration:     parseDuration(v.LengthText.String()),
		ThumbnailURL: v.Thumbnail.Largest(),
		Explicit:     explicit(v.Badges),
	}
	if v.NavigationEndpoint != nil && v.NavigationEndpoint.WatchEndpoint != nil {
		song.PlaylistID = v.NavigationEndpoint.WatchEndpoint.PlaylistID
		song.Params = v.NavigationEndpoint.WatchEndpoint.Params
	}
	return song, true
}

func parseShelf(contents []ShelfContent) []media.Item {
	items := make([]media.Item, 0, len(contents))
	for _, c := range contents {
		var (
			it media.Item
			ok bool
		)
		switch {
		case c.MusicResponsiveListItemRenderer != nil:
			it, ok = parseListItem(c.MusicResponsiveListItemRenderer)
		case c.MusicTwoRowItemRenderer != nil:
			it, ok = parseTwoRowItem(c.MusicTwoRowItemRenderer)
		}
		if ok {
			items = append(items, it)
		}
	}
	return items
}

// artistsFrom collects the runs linking to artist pages. If none link, the first
// run is taken as the artist name.
func artistsFrom(r *Runs) []media.Artist {
	if r == nil {
		return nil
	}
	var artists []media.Artist
	for _, run := range r.Runs {
		if be := browseEndpointOf(run); be != nil && strings.HasPrefix(be.BrowseID, prefixArtist) {
			artists = append(artists, media.Artist{ID: be.BrowseID, Name: run.Text})
		}
	}
	if len(artists) == 0 && len(r.Runs) > 0 && parseDuration(r.Runs[0].Text) == 0 {
		artists = append(artists, media.Artist{Name: r.Runs[0].Text})
	}
	return artists
}

func albumFrom(r *Runs) *media.Album {
	if r == nil {
		return nil
	}
	for _, run := range r.Runs {
		if be := browseEndpointOf(run); be != nil && strings.HasPrefix(be.BrowseID, prefixAlbum) {
			return &media.Album{ID: be.BrowseID, Title: run.Text}
		}
	}
	return nil
}

func yearFrom(r *Runs) int {
	if r == nil {
		return 0
	}
	for i := len(r.Runs) - 1; i >= 0; i-- {
		text := strings.TrimSpace(r.Runs[i].Text)
		if len(text) == 4 {
			if y, err := strconv.Atoi(text); err == nil {
				return y
			}
		}
	}
	return 0
}

func browseEndpointOf(run Run) *BrowseEndpoint {
	if run.NavigationEndpoint == nil {
		return nil
	}
	return run.NavigationEndpoint.BrowseEndpoint
}

// parseDuration parses "m:ss" or "h:mm:ss". Anything else yields 0.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
