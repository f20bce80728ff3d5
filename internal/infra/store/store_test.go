package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/domain/media"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func item(id string) media.Metadata {
	return media.Metadata{
		ID:       id,
		Title:    "Song " + id,
		Artists:  []media.Artist{{ID: "UC1", Name: "Artist"}},
		Album:    &media.Album{ID: "MPRE1", Title: "Album"},
		Duration: 3 * time.Minute,
	}
}

func TestQueue(t *testing.T) {
	s := openTestStore(t, Options{})

	_, found, err := s.LoadQueue()
	require.NoError(t, err)
	assert.False(t, found)

	saved := SavedQueue{
		Title:    "Radio",
		Items:    []media.Metadata{item("a"), item("b")},
		Index:    1,
		Position: 42 * time.Second,
		Seed:     "station:a",
	}
	require.NoError(t, s.SaveQueue(saved))

	loaded, found, err := s.LoadQueue()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Radio", loaded.Title)
	assert.Equal(t, saved.Items, loaded.Items)
	assert.Equal(t, 1, loaded.Index)
	assert.Equal(t, 42*time.Second, loaded.Position)
	assert.Equal(t, "station:a", loaded.Seed)
	assert.False(t, loaded.SavedAt.IsZero())

	require.NoError(t, s.ClearQueue())
	_, found, err = s.LoadQueue()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueue_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.SaveQueue(SavedQueue{Title: "Kept", Items: []media.Metadata{item("x")}}))
	require.NoError(t, s.Close())

	s, err = Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()

	loaded, found, err := s.LoadQueue()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Kept", loaded.Title)
}

func TestHistory(t *testing.T) {
	s := openTestStore(t, Options{})
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddToHistory(item("song1"), base))
	require.NoError(t, s.AddToHistory(item("song2"), base.Add(time.Second)))
	require.NoError(t, s.AddToHistory(item("song3"), base.Add(2*time.Second)))

	history, err := s.History(10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "song3", history[0].Item.ID)
	assert.Equal(t, "song2", history[1].Item.ID)
	assert.Equal(t, "song1", history[2].Item.ID)

	require.NoError(t, s.AddToHistory(item("song1"), base.Add(3*time.Second)))
	history, err = s.History(10)
	require.NoError(t, err)
	require.Len(t, history, 3, "replayed item is moved, not duplicated")
	assert.Equal(t, "song1", history[0].Item.ID)
	assert.True(t, history[0].PlayedAt.Equal(base.Add(3*time.Second)))

	limited, err := s.History(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	assert.Error(t, s.AddToHistory(media.Metadata{}, base))
}

func TestHistory_Limit(t *testing.T) {
	s := openTestStore(t, Options{HistoryLimit: 2})
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddToHistory(item(id), base.Add(time.Duration(i)*time.Second)))
	}

	history, err := s.History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].Item.ID)
	assert.Equal(t, "b", history[1].Item.ID)
}
