// Package library scans a local music directory and serves it as a listing source.
package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/domain/media"
)

var (
	ErrScanInProgress = errors.New("scan already in progress")
	ErrUnknownArtist  = errors.New("artist not found in library")
)

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".mp3", ".flac", ".m4a", ".mp4", ".ogg", ".oga"}

// Track is a scanned audio file.
type Track struct {
	ID          string // Stable ID derived from the path relative to the root
	Path        string
	Title       string
	Artist      string
	Album       string
	Year        int
	TrackNumber int
	DiscNumber  int
}

// Metadata converts the track to a playable unit.
func (t Track) Metadata() media.Metadata {
	m := media.Metadata{ID: t.ID, Title: t.Title}
	if t.Artist != "" {
		m.Artists = []media.Artist{{Name: t.Artist}}
	}
	if t.Album != "" {
		m.Album = &media.Album{Title: t.Album}
	}
	return m
}

// Config represents library configuration.
type Config struct {
	Root       string
	Extensions []string
	PageSize   int
}

// Library holds the result of the last scan. All methods are safe for concurrent use.
type Library struct {
	root     string
	exts     map[string]bool
	pageSize int

	mu       sync.RWMutex
	tracks   []Track
	byID     map[string]int
	scanning bool
}

// New creates a library over cfg.Root. Call Scan to populate it.
func New(cfg Config) (*Library, error) {
	if cfg.Root == "" {
		return nil, errors.New("library root is required")
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open library root %s", cfg.Root)
	}
	if !info.IsDir() {
		return nil, errors.Newf("library root %s is not a directory", cfg.Root)
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = true
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	return &Library{
		root:     cfg.Root,
		exts:     extSet,
		pageSize: pageSize,
		byID:     make(map[string]int),
	}, nil
}

// IsFormatSupported checks if a file format is supported.
func (l *Library) IsFormatSupported(path string) bool {
	return l.exts[strings.ToLower(filepath.Ext(path))]
}

// Scan walks the root directory and replaces the library contents.
// Files that cannot be read are skipped. It returns the number of tracks found.
func (l *Library) Scan(ctx context.Context) (int, error) {
	l.mu.Lock()
	if l.scanning {
		l.mu.Unlock()
		return 0, ErrScanInProgress
	}
	l.scanning = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.scanning = false
		l.mu.Unlock()
	}()

	var tracks []Track
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Skip files/folders we can't access
			return nil
		}
		if d.IsDir() || !l.IsFormatSupported(path) {
			return nil
		}
		tracks = append(tracks, l.readTrack(path))
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "library scan aborted")
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		if a.DiscNumber != b.DiscNumber {
			return a.DiscNumber < b.DiscNumber
		}
		if a.TrackNumber != b.TrackNumber {
			return a.TrackNumber < b.TrackNumber
		}
		return a.Path < b.Path
	})

	byID := make(map[string]int, len(tracks))
	for i, t := range tracks {
		byID[t.ID] = i
	}

	l.mu.Lock()
	l.tracks = tracks
	l.byID = byID
	l.mu.Unlock()

	zlog.Info().Msgf("library scan complete: root=%s tracks=%d", l.root, len(tracks))
	return len(tracks), nil
}

// readTrack extracts the tags of one file, falling back to the file name.
func (l *Library) readTrack(path string) Track {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		rel = path
	}
	t := Track{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("file:///"+filepath.ToSlash(rel))).String(),
		Path:  path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	file, err := os.Open(path)
	if err != nil {
		zlog.Debug().Msgf("library: cannot open %s: %v", path, err)
		return t
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		return t
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		t.Title = title
	}
	t.Artist = strings.TrimSpace(metadata.Artist())
	if t.Artist == "" {
		t.Artist = strings.TrimSpace(metadata.AlbumArtist())
	}
	t.Album = strings.TrimSpace(metadata.Album())
	t.Year = metadata.Year()
	t.TrackNumber, _ = metadata.Track()
	t.DiscNumber, _ = metadata.Disc()
	return t
}

// Len returns the number of scanned tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Track returns the track with the given ID.
func (l *Library) Track(id string) (Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return Track{}, false
	}
	return l.tracks[i], true
}

// Artists returns the distinct artist names in sorted order.
func (l *Library) Artists() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var artists []string
	for i, t := range l.tracks {
		if t.Artist == "" {
			continue
		}
		if i == 0 || l.tracks[i-1].Artist != t.Artist {
			artists = append(artists, t.Artist)
		}
	}
	return artists
}

// ArtistUnits returns the tracks of an artist in album order. Names match case-insensitively.
func (l *Library) ArtistUnits(artist string) ([]media.Metadata, error) {
	units := l.filter(func(t Track) bool { return strings.EqualFold(t.Artist, artist) })
	if len(units) == 0 {
		return nil, errors.Wrapf(ErrUnknownArtist, "%s", artist)
	}
	return units, nil
}

func (l *Library) filter(match func(Track) bool) []media.Metadata {
	l.mu.RLock()
	defer l.mu.RUnlock()

	units := make([]media.Metadata, 0)
	for _, t := range l.tracks {
		if match(t) {
			units = append(units, t.Metadata())
		}
	}
	return units
}

func songItems(units []media.Metadata) []media.Item {
	items := make([]media.Item, len(units))
	for i, u := range units {
		items[i] = media.SongItem{
			ID:      u.ID,
			Title:   u.Title,
			Artists: u.Artists,
			Album:   u.Album,
		}
	}
	return items
}

func formatCursor(kind string, offset int, id string) string {
	return kind + ":" + strconv.Itoa(offset) + ":" + id
}
