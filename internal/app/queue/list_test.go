package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/domain/media"
)

func units(ids ...string) []media.Metadata {
	result := make([]media.Metadata, len(ids))
	for i, id := range ids {
		result[i] = media.Metadata{ID: id, Title: "Song " + id, Duration: 3 * time.Minute}
	}
	return result
}

func TestEmpty(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, Empty.PreloadItem())
	assert.False(t, Empty.HasNextPage())

	status, err := Empty.InitialStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.Items)
	assert.Equal(t, NoIndex, status.MediaItemIndex)
	assert.NoError(t, status.Validate())

	next, err := Empty.NextPage(ctx)
	require.NoError(t, err)
	assert.NotNil(t, next)
	assert.Empty(t, next)
	assert.False(t, Empty.HasNextPage())
}

func TestList_NoPages(t *testing.T) {
	ctx := context.Background()
	q := NewList("Queen", units("a", "b", "c"))

	assert.False(t, q.HasNextPage(), "list queue has no pages right after construction")

	for i := 0; i < 3; i++ {
		next, err := q.NextPage(ctx)
		require.NoError(t, err)
		assert.NotNil(t, next)
		assert.Empty(t, next)
		assert.False(t, q.HasNextPage())
	}
}

func TestList_InitialStatus(t *testing.T) {
	tests := []struct {
		name          string
		items         []media.Metadata
		opts          []ListOption
		expectedIndex int
		expectedPos   time.Duration
	}{
		{
			name:          "defaults to first item",
			items:         units("a", "b"),
			expectedIndex: 0,
		},
		{
			name:          "start index and position",
			items:         units("a", "b", "c"),
			opts:          []ListOption{WithStartIndex(2), WithPosition(42 * time.Second)},
			expectedIndex: 2,
			expectedPos:   42 * time.Second,
		},
		{
			name:          "start index clamped to last item",
			items:         units("a", "b"),
			opts:          []ListOption{WithStartIndex(10)},
			expectedIndex: 1,
		},
		{
			name:          "negative start index clamped to zero",
			items:         units("a"),
			opts:          []ListOption{WithStartIndex(-3)},
			expectedIndex: 0,
		},
		{
			name:          "no items uses sentinel and drops position",
			items:         nil,
			opts:          []ListOption{WithStartIndex(1), WithPosition(time.Second)},
			expectedIndex: NoIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewList("title", tt.items, tt.opts...)

			status, err := q.InitialStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "title", status.Title)
			assert.Equal(t, tt.expectedIndex, status.MediaItemIndex)
			assert.Equal(t, tt.expectedPos, status.Position)
			assert.Len(t, status.Items, len(tt.items))
			assert.NoError(t, status.Validate())
		})
	}
}

func TestList_CopiesItems(t *testing.T) {
	items := units("a", "b")
	q := NewList("", items)

	items[0].ID = "changed"
	status, err := q.InitialStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, media.IDs(status.Items))

	status.Items[1].ID = "changed"
	again, err := q.InitialStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, media.IDs(again.Items))
}

func TestList_PreloadItem(t *testing.T) {
	q := NewList("", units("a", "b", "c"), WithStartIndex(1))
	require.NotNil(t, q.PreloadItem())
	assert.Equal(t, "b", q.PreloadItem().ID)

	assert.Nil(t, NewList("", nil).PreloadItem())
}

func TestList_Shuffle(t *testing.T) {
	items := units("a", "b", "c", "d", "e", "f", "g", "h")

	q := NewList("Artist", items, WithShuffle(7), WithStartIndex(3))
	status, err := q.InitialStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, status.MediaItemIndex)
	assert.Equal(t, "d", status.Items[0].ID, "start item moves to the front")
	assert.ElementsMatch(t, media.IDs(items), media.IDs(status.Items))

	// Same seed, same order
	again := NewList("Artist", items, WithShuffle(7), WithStartIndex(3))
	againStatus, err := again.InitialStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, media.IDs(status.Items), media.IDs(againStatus.Items))

	// Caller's slice is untouched
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, media.IDs(items))
}

func TestStatus_Validate(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		wantErr bool
	}{
		{name: "empty with sentinel", status: Status{MediaItemIndex: NoIndex}},
		{name: "empty with index", status: Status{MediaItemIndex: 0}, wantErr: true},
		{name: "index in range", status: Status{Items: units("a", "b"), MediaItemIndex: 1}},
		{name: "index out of range", status: Status{Items: units("a"), MediaItemIndex: 1}, wantErr: true},
		{name: "sentinel with items", status: Status{Items: units("a"), MediaItemIndex: NoIndex}, wantErr: true},
		{name: "negative position", status: Status{Items: units("a"), Position: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.status.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
