package listing

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/innerbeat/internal/domain/media"
)

// SeedKind is the type of remote listing a seed starts.
type SeedKind string

const (
	SeedStation  SeedKind = "station"  // Radio started from a song (watch endpoint)
	SeedPlaylist SeedKind = "playlist" // Songs of a playlist
	SeedAlbum    SeedKind = "album"    // Songs of an album
	SeedSearch   SeedKind = "search"   // Song search results
	SeedArtist   SeedKind = "artist"   // Songs of an artist
)

// ErrInvalidSeed is returned when a seed descriptor cannot be parsed.
var ErrInvalidSeed = errors.New("invalid seed descriptor")

// Seed fully determines a remote listing.
// Its text form is "[source/]kind:id[|params]", e.g. "station:dQw4w9WgXcQ" or
// "spotify/playlist:37i9dQZF1DXcBWIGoYBM5M".
type Seed struct {
	Source string   // Source name; empty selects the default source
	Kind   SeedKind // Listing type
	ID     string   // Video ID, playlist ID, album ID or search query
	Params string   // Opaque source parameters (optional)
}

// ParseSeed parses a seed descriptor.
func ParseSeed(s string) (Seed, error) {
	s = strings.TrimSpace(s)
	var seed Seed

	head, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Seed{}, errors.Wrapf(ErrInvalidSeed, "missing kind in %q", s)
	}
	if src, kind, found := strings.Cut(head, "/"); found {
		if src == "" {
			return Seed{}, errors.Wrapf(ErrInvalidSeed, "empty source in %q", s)
		}
		seed.Source = src
		head = kind
	}
	seed.Kind = SeedKind(strings.ToLower(head))
	if !seed.Kind.Valid() {
		return Seed{}, errors.Wrapf(ErrInvalidSeed, "unknown kind %q", head)
	}

	if id, params, found := strings.Cut(rest, "|"); found {
		seed.ID = id
		seed.Params = params
	} else {
		seed.ID = rest
	}
	seed.ID = strings.TrimSpace(seed.ID)
	if seed.ID == "" {
		return Seed{}, errors.Wrapf(ErrInvalidSeed, "empty id in %q", s)
	}

	return seed, nil
}

// String returns the text form of the seed.
func (s Seed) String() string {
	var b strings.Builder
	if s.Source != "" {
		b.WriteString(s.Source)
		b.WriteByte('/')
	}
	b.WriteString(string(s.Kind))
	b.WriteByte(':')
	b.WriteString(s.ID)
	if s.Params != "" {
		b.WriteByte('|')
		b.WriteString(s.Params)
	}
	return b.String()
}

// Valid reports whether the kind is known.
func (k SeedKind) Valid() bool {
	switch k {
	case SeedStation, SeedPlaylist, SeedAlbum, SeedSearch, SeedArtist:
		return true
	default:
		return false
	}
}

// SeedFor returns the seed that plays a browsed item of the named source:
// a station for a song, the songs of an album, playlist or artist.
// It reports false for items without an ID.
func SeedFor(source string, item media.Item) (Seed, bool) {
	seed := Seed{Source: source}
	switch it := item.(type) {
	case media.SongItem:
		seed.Kind, seed.ID, seed.Params = SeedStation, it.ID, it.Params
	case media.AlbumItem:
		seed.Kind, seed.ID = SeedAlbum, it.BrowseID
		if seed.ID == "" {
			seed.Kind, seed.ID = SeedPlaylist, it.PlaylistID
		}
	case media.PlaylistItem:
		seed.Kind, seed.ID = SeedPlaylist, it.ID
	case media.ArtistItem:
		seed.Kind, seed.ID = SeedArtist, it.ID
	default:
		return Seed{}, false
	}
	return seed, seed.ID != ""
}
