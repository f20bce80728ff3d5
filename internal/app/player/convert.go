package player

import (
	"strings"
	"time"

	playerv1 "github.com/osa030/innerbeat/internal/api/playerv1"
	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// TrackMessage converts a playable unit to its API message.
func TrackMessage(m media.Metadata) *playerv1.Track {
	t := &playerv1.Track{
		ID:           m.ID,
		Title:        m.Title,
		ThumbnailURL: m.ThumbnailURL,
		DurationMs:   m.Duration.Milliseconds(),
		Explicit:     m.Explicit,
	}
	for _, a := range m.Artists {
		t.Artists = append(t.Artists, &playerv1.Artist{ID: a.ID, Name: a.Name})
	}
	if m.Album != nil {
		t.AlbumID = m.Album.ID
		t.Album = m.Album.Title
	}
	return t
}

// MetadataFromTrack converts an API track to a playable unit.
func MetadataFromTrack(t *playerv1.Track) media.Metadata {
	if t == nil {
		return media.Metadata{}
	}
	m := media.Metadata{
		ID:           t.ID,
		Title:        t.Title,
		ThumbnailURL: t.ThumbnailURL,
		Duration:     time.Duration(t.DurationMs) * time.Millisecond,
		Explicit:     t.Explicit,
	}
	for _, a := range t.Artists {
		if a != nil {
			m.Artists = append(m.Artists, media.Artist{ID: a.ID, Name: a.Name})
		}
	}
	if t.AlbumID != "" || t.Album != "" {
		m.Album = &media.Album{ID: t.AlbumID, Title: t.Album}
	}
	return m
}

// Message converts the status to its API message.
func (s Status) Message() *playerv1.Status {
	items := make([]*playerv1.Track, len(s.Items))
	for i, it := range s.Items {
		items[i] = TrackMessage(it)
	}
	return &playerv1.Status{
		SessionID:   s.SessionID,
		Generation:  s.Generation,
		Title:       s.Title,
		Seed:        s.Seed,
		Items:       items,
		Index:       int32(s.Index),
		PositionMs:  s.Position.Milliseconds(),
		State:       s.State.String(),
		HasNextPage: s.HasNextPage,
		Loading:     s.Loading,
	}
}

// BrowseMessage converts a browsed page of the named source to its API message.
// Each item carries the seed that plays it.
func BrowseMessage(source string, r listing.BrowseResult) *playerv1.BrowseResponse {
	resp := &playerv1.BrowseResponse{Source: source, Title: r.Title, Sections: []*playerv1.BrowseSection{}}
	for _, sec := range r.Sections {
		msg := &playerv1.BrowseSection{Title: sec.Title, Items: make([]*playerv1.BrowseItem, 0, len(sec.Items))}
		for _, it := range sec.Items {
			item := browseItem(it)
			if seed, ok := listing.SeedFor(source, it); ok {
				item.Seed = seed.String()
			}
			msg.Items = append(msg.Items, item)
		}
		resp.Sections = append(resp.Sections, msg)
	}
	return resp
}

func browseItem(it media.Item) *playerv1.BrowseItem {
	item := &playerv1.BrowseItem{Kind: it.Kind().String(), ID: it.ItemID(), Title: it.ItemTitle()}
	switch v := it.(type) {
	case media.SongItem:
		item.Subtitle = artistNames(v.Artists)
		item.ThumbnailURL = v.ThumbnailURL
	case media.AlbumItem:
		item.Subtitle = artistNames(v.Artists)
		item.ThumbnailURL = v.ThumbnailURL
	case media.ArtistItem:
		item.ThumbnailURL = v.ThumbnailURL
	case media.PlaylistItem:
		parts := make([]string, 0, 2)
		if v.Author != nil && v.Author.Name != "" {
			parts = append(parts, v.Author.Name)
		}
		if v.SongCount != "" {
			parts = append(parts, v.SongCount)
		}
		item.Subtitle = strings.Join(parts, " • ")
		item.ThumbnailURL = v.ThumbnailURL
	}
	return item
}

func artistNames(artists []media.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
