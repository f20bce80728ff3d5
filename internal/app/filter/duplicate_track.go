package filter

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/osa030/innerbeat/internal/domain/media"
)

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-\s*live$`),             // "- Live"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	spaces = regexp.MustCompile(`\s+`)
)

// DuplicateTrackFilter drops songs already surfaced by the same listing.
// Detects:
// - Exact ID matches
// - Remasters (normalized title + same main artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	keys map[string]struct{}
}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{
		ids:  make(map[string]struct{}),
		keys: make(map[string]struct{}),
	}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Drops songs already in the listing, remasters included. Covers by other artists are kept"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

// Check records accepted songs, so a song is only ever accepted once.
func (f *DuplicateTrackFilter) Check(ctx context.Context, song media.SongItem) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ids[song.ID]; ok {
		return Reject("duplicate_track")
	}
	key := songKey(song)
	if key != "" {
		if _, ok := f.keys[key]; ok {
			return Reject("duplicate_track")
		}
		f.keys[key] = struct{}{}
	}
	f.ids[song.ID] = struct{}{}
	return Accept()
}

// Reset forgets every accepted song.
func (f *DuplicateTrackFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = make(map[string]struct{})
	f.keys = make(map[string]struct{})
}

// songKey returns the normalized title and main artist, or "" when the
// song has no artist to compare.
func songKey(song media.SongItem) string {
	if len(song.Artists) == 0 {
		return ""
	}
	return normalizeTrackName(song.Title) + "\x00" + strings.ToLower(strings.TrimSpace(song.Artists[0].Name))
}

// normalizeTrackName removes remaster information and version details.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = spaces.ReplaceAllString(normalized, " ")

	return strings.TrimRight(normalized, " -")
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
