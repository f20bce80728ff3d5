// Package media provides the listing entries and playable units of the music catalog.
package media

import (
	"strings"
	"time"
)

// Artist is a reference to an artist as it appears on a listing entry.
type Artist struct {
	ID   string // Browse ID (empty for artists without a channel)
	Name string
}

// Album is a reference to an album as it appears on a listing entry.
type Album struct {
	ID    string // Browse ID
	Title string
}

// Item is one entry of a remote listing.
// The set of implementations is closed: SongItem, AlbumItem, ArtistItem, PlaylistItem.
type Item interface {
	ItemID() string
	ItemTitle() string
	Kind() Kind
	isItem()
}

// Kind identifies the concrete type of an Item.
type Kind int

const (
	KindSong Kind = iota
	KindAlbum
	KindArtist
	KindPlaylist
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSong:
		return "song"
	case KindAlbum:
		return "album"
	case KindArtist:
		return "artist"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// SongItem is a playable song entry.
type SongItem struct {
	ID           string
	Title        string
	Artists      []Artist
	Album        *Album
	Duration     time.Duration
	ThumbnailURL string
	Explicit     bool
	// PlaylistID and Params describe the watch endpoint that started this song, if any.
	PlaylistID string
	Params     string
}

// AlbumItem is an album entry.
type AlbumItem struct {
	BrowseID     string
	PlaylistID   string
	Title        string
	Artists      []Artist
	Year         int
	ThumbnailURL string
	Explicit     bool
}

// ArtistItem is an artist entry.
type ArtistItem struct {
	ID                string
	Title             string
	ThumbnailURL      string
	ShuffleEndpointID string
	RadioEndpointID   string
}

// PlaylistItem is a playlist entry.
type PlaylistItem struct {
	ID           string
	Title        string
	Author       *Artist
	SongCount    string // As displayed by the service, e.g. "52 songs"
	ThumbnailURL string
}

func (s SongItem) ItemID() string    { return s.ID }
func (s SongItem) ItemTitle() string { return s.Title }
func (SongItem) Kind() Kind          { return KindSong }
func (SongItem) isItem()             {}

func (a AlbumItem) ItemID() string    { return a.BrowseID }
func (a AlbumItem) ItemTitle() string { return a.Title }
func (AlbumItem) Kind() Kind          { return KindAlbum }
func (AlbumItem) isItem()             {}

func (a ArtistItem) ItemID() string    { return a.ID }
func (a ArtistItem) ItemTitle() string { return a.Title }
func (ArtistItem) Kind() Kind          { return KindArtist }
func (ArtistItem) isItem()             {}

func (p PlaylistItem) ItemID() string    { return p.ID }
func (p PlaylistItem) ItemTitle() string { return p.Title }
func (PlaylistItem) Kind() Kind          { return KindPlaylist }
func (PlaylistItem) isItem()             {}

// Metadata is a playable unit: everything the player needs to render and play one song.
type Metadata struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Artists      []Artist      `json:"artists"`
	Album        *Album        `json:"album,omitempty"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Duration     time.Duration `json:"duration"`
	Explicit     bool          `json:"explicit,omitempty"`
}

// Metadata converts the song entry to a playable unit.
func (s SongItem) Metadata() Metadata {
	return Metadata{
		ID:           s.ID,
		Title:        s.Title,
		Artists:      append([]Artist(nil), s.Artists...),
		Album:        s.Album,
		ThumbnailURL: s.ThumbnailURL,
		Duration:     s.Duration,
		Explicit:     s.Explicit,
	}
}

// ArtistNames returns the artist names joined for display.
func (m *Metadata) ArtistNames() string {
	names := make([]string, len(m.Artists))
	for i, a := range m.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// AlbumTitle returns the album title, or an empty string for singles.
func (m *Metadata) AlbumTitle() string {
	if m.Album == nil {
		return ""
	}
	return m.Album.Title
}

// Playable extracts the playable units from listing entries, in order.
// Albums, artists and playlists are skipped.
func Playable(items []Item) []Metadata {
	result := make([]Metadata, 0, len(items))
	for _, it := range items {
		if s, ok := it.(SongItem); ok && s.ID != "" {
			result = append(result, s.Metadata())
		}
	}
	return result
}

// IDs returns the IDs of the given units.
func IDs(units []Metadata) []string {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}

// TotalDuration returns the summed duration of the given units.
func TotalDuration(units []Metadata) time.Duration {
	var total time.Duration
	for _, u := range units {
		total += u.Duration
	}
	return total
}
