package listing

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/osa030/innerbeat/internal/domain/media"
)

func TestNewPage(t *testing.T) {
	p := NewPage(nil, "")
	assert.NotNil(t, p.Items)
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.HasMore())

	p = NewPage([]media.Item{media.SongItem{ID: "a"}}, "tok1")
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.HasMore())
}

func TestPlaylistContinuationPage_Page(t *testing.T) {
	cp := PlaylistContinuationPage{
		Songs:        []media.SongItem{{ID: "a"}, {ID: "b"}},
		Continuation: "tok2",
	}

	p := cp.Page()

	assert.Equal(t, "tok2", p.Continuation)
	assert.Equal(t, []string{"a", "b"}, media.IDs(media.Playable(p.Items)))
}

func TestBrowseResult_Items(t *testing.T) {
	r := BrowseResult{
		Title: "Chill",
		Sections: []BrowseSection{
			{Title: "Songs", Items: []media.Item{media.SongItem{ID: "a"}}},
			{Title: "Playlists", Items: []media.Item{media.PlaylistItem{ID: "PL1"}, media.SongItem{ID: "b"}}},
		},
	}

	items := r.Items()

	assert.Len(t, items, 3)
	assert.Equal(t, "PL1", items[1].ItemID())
}

func TestNewRemoteListingError(t *testing.T) {
	cause := fmt.Errorf("connection reset")

	err := NewRemoteListingError("innertube", OpFetchNext, cause)

	assert.True(t, IsRemoteListingError(err))
	assert.False(t, IsInvalidCursor(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "innertube fetch_next: connection reset", err.Error())

	// Already-classified errors pass through unchanged
	assert.Same(t, err, NewRemoteListingError("other", OpFetchFirst, err))

	invalid := errors.Wrap(ErrInvalidCursor, "HTTP 400")
	passed := NewRemoteListingError("innertube", OpFetchNext, invalid)
	assert.True(t, IsInvalidCursor(passed))
	assert.False(t, IsRemoteListingError(passed))

	assert.NoError(t, NewRemoteListingError("innertube", OpFetchFirst, nil))
}
