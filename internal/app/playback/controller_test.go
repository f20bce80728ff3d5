package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/domain/media"
	"github.com/osa030/innerbeat/internal/testutil"
)

// pagedQueue is a queue with scripted pages.
type pagedQueue struct {
	mu      sync.Mutex
	status  queue.Status
	initErr error
	pages   [][]media.Metadata
	nextErr error
	block   chan struct{} // When set, NextPage waits on it
	calls   int
}

func (q *pagedQueue) PreloadItem() *media.Metadata { return nil }

func (q *pagedQueue) InitialStatus(context.Context) (queue.Status, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.initErr != nil {
		return queue.Status{}, q.initErr
	}
	return q.status, nil
}

func (q *pagedQueue) HasNextPage() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pages) > 0
}

func (q *pagedQueue) NextPage(context.Context) ([]media.Metadata, error) {
	if q.block != nil {
		<-q.block
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.nextErr != nil {
		err := q.nextErr
		q.nextErr = nil
		return nil, err
	}
	if len(q.pages) == 0 {
		return []media.Metadata{}, nil
	}
	page := q.pages[0]
	q.pages = q.pages[1:]
	return page, nil
}

func items(d time.Duration, ids ...string) []media.Metadata {
	result := make([]media.Metadata, len(ids))
	for i, id := range ids {
		result[i] = media.Metadata{ID: id, Title: "Song " + id, Duration: d}
	}
	return result
}

func newTestController() *Controller {
	return NewController(Config{
		DepletionThreshold: 0,
		TickInterval:       2 * time.Millisecond,
	})
}

// waitForEvent reads events until one of type want arrives.
func waitForEvent(t *testing.T, c *Controller, want EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-c.Events():
			require.True(t, ok, "event channel closed while waiting for %s", want)
			if e.Type == want {
				return e
			}
		case <-timeout:
			require.FailNow(t, "timed out waiting for event", "want %s", want)
		}
	}
}

func TestController_PlayQueue(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	q := queue.NewList("Queen", items(time.Minute, "a", "b", "c"), queue.WithStartIndex(1), queue.WithPosition(10*time.Second))
	require.NoError(t, c.PlayQueue(context.Background(), q))

	e := waitForEvent(t, c, EventQueueChanged)
	assert.Equal(t, uint64(1), e.Generation)

	e = waitForEvent(t, c, EventTrackStarted)
	require.NotNil(t, e.Item)
	assert.Equal(t, "b", e.Item.ID)
	assert.Equal(t, 1, e.Index)

	snap := c.Snapshot()
	assert.Equal(t, "Queen", snap.Title)
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 1, snap.Index)
	assert.GreaterOrEqual(t, snap.Position, 10*time.Second)
	assert.False(t, snap.HasNextPage)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Current())
	assert.Equal(t, "b", snap.Current().ID)
}

func TestController_PlayQueue_Empty(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	require.NoError(t, c.PlayQueue(context.Background(), queue.Empty))
	waitForEvent(t, c, EventQueueEnded)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, queue.NoIndex, snap.Index)
	assert.Nil(t, snap.Current())
	assert.ErrorIs(t, c.Play(), ErrQueueEmpty)
}

func TestController_PlayQueue_InitialStatusError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	cause := errors.New("network down")
	err := c.PlayQueue(context.Background(), &pagedQueue{initErr: cause})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	snap := c.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.HasNextPage)
}

func TestController_PlaysThroughToEnd(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	q := queue.NewList("", items(20*time.Millisecond, "a", "b"))
	require.NoError(t, c.PlayQueue(context.Background(), q))

	e := waitForEvent(t, c, EventTrackEnded)
	assert.Equal(t, "a", e.Item.ID)
	e = waitForEvent(t, c, EventTrackStarted)
	assert.Equal(t, "b", e.Item.ID)
	waitForEvent(t, c, EventQueueEnded)

	assert.Equal(t, StateIdle, c.GetState())
	assert.Equal(t, []string{"a", "b"}, media.IDs(c.History()))
}

func TestController_DepletionLoadsMore(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewController(Config{
		DepletionThreshold: time.Hour,
		TickInterval:       2 * time.Millisecond,
	})
	defer c.Close()

	q := &pagedQueue{
		status: queue.Status{Items: items(time.Minute, "a", "b"), MediaItemIndex: 0},
		pages:  [][]media.Metadata{items(time.Minute, "c", "d")},
	}
	require.NoError(t, c.PlayQueue(context.Background(), q))
	waitForEvent(t, c, EventQueueDepleting)

	n, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	waitForEvent(t, c, EventItemsAppended)

	snap := c.Snapshot()
	assert.Equal(t, []string{"a", "b", "c", "d"}, media.IDs(snap.Items))
	assert.False(t, snap.HasNextPage)

	// No further pages, no I/O
	n, err = c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, q.calls)
}

func TestController_WaitsForNextPage(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	q := &pagedQueue{
		status: queue.Status{Items: items(15*time.Millisecond, "a"), MediaItemIndex: 0},
		pages:  [][]media.Metadata{items(time.Minute, "b")},
	}
	require.NoError(t, c.PlayQueue(context.Background(), q))

	waitForEvent(t, c, EventTrackEnded)
	e := waitForEvent(t, c, EventQueueDepleting)
	assert.Equal(t, StateWaiting, e.State)
	assert.Equal(t, StateWaiting, c.GetState())

	_, err := c.LoadMore(context.Background())
	require.NoError(t, err)

	e = waitForEvent(t, c, EventTrackStarted)
	assert.Equal(t, "b", e.Item.ID)
	assert.Equal(t, StatePlaying, c.GetState())
}

func TestController_LoadMoreError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	cause := errors.New("flaky")
	q := &pagedQueue{
		status:  queue.Status{Items: items(time.Minute, "a"), MediaItemIndex: 0},
		pages:   [][]media.Metadata{items(time.Minute, "b")},
		nextErr: cause,
	}
	require.NoError(t, c.PlayQueue(context.Background(), q))

	_, err := c.LoadMore(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Len(t, c.Snapshot().Items, 1)

	n, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, c.Snapshot().Items, 2)
}

func TestController_LoadMoreDiscardedAfterReplace(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	slow := &pagedQueue{
		status: queue.Status{Items: items(time.Minute, "a"), MediaItemIndex: 0},
		pages:  [][]media.Metadata{items(time.Minute, "stale")},
		block:  make(chan struct{}),
	}
	require.NoError(t, c.PlayQueue(context.Background(), slow))

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := c.LoadMore(context.Background())
		done <- result{n, err}
	}()

	require.Eventually(t, func() bool { return c.Snapshot().Loading }, time.Second, time.Millisecond)

	_, err := c.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrLoadInProgress)

	require.NoError(t, c.PlayQueue(context.Background(), queue.NewList("fresh", items(time.Minute, "x", "y"))))
	close(slow.block)

	res := <-done
	assert.ErrorIs(t, res.err, ErrQueueReplaced)
	assert.Equal(t, 0, res.n)

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, []string{"x", "y"}, media.IDs(snap.Items))
	assert.False(t, snap.Loading)
}

func TestController_PauseResume(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	assert.ErrorIs(t, c.Pause(), ErrNoTrack)
	assert.ErrorIs(t, c.Resume(), ErrNoTrack)

	require.NoError(t, c.PlayQueue(context.Background(), queue.NewList("", items(time.Minute, "a"))))

	assert.ErrorIs(t, c.Resume(), ErrNotPaused)
	require.NoError(t, c.Pause())
	assert.Equal(t, StatePaused, c.GetState())
	assert.ErrorIs(t, c.Pause(), ErrNotPlaying)

	pos := c.Snapshot().Position
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pos, c.Snapshot().Position, "position does not advance while paused")

	require.NoError(t, c.Play())
	assert.Equal(t, StatePlaying, c.GetState())
}

func TestController_SkipAndPrevious(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	require.NoError(t, c.PlayQueue(context.Background(), queue.NewList("", items(time.Minute, "a", "b", "c"))))

	require.NoError(t, c.Skip())
	cur, ok := c.GetCurrentItem()
	require.True(t, ok)
	assert.Equal(t, "b", cur.ID)

	// Just started, so Previous moves back
	require.NoError(t, c.Previous())
	cur, _ = c.GetCurrentItem()
	assert.Equal(t, "a", cur.ID)

	// At the first item, Previous restarts it
	require.NoError(t, c.Previous())
	cur, _ = c.GetCurrentItem()
	assert.Equal(t, "a", cur.ID)

	require.NoError(t, c.SeekTo(2))
	assert.ErrorIs(t, c.Skip(), ErrQueueEmpty)
	assert.Equal(t, StateIdle, c.GetState())

	assert.ErrorIs(t, c.SeekTo(3), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.SeekTo(-1), ErrIndexOutOfRange)

	// Skipped items are not history
	assert.Empty(t, c.History())
}

func TestController_Stop(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	defer c.Close()

	require.NoError(t, c.PlayQueue(context.Background(), queue.NewList("", items(time.Minute, "a", "b"), queue.WithStartIndex(1))))
	require.NoError(t, c.Stop())

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, time.Duration(0), snap.Position)

	require.NoError(t, c.Play())
	cur, _ := c.GetCurrentItem()
	assert.Equal(t, "b", cur.ID)
}

func TestController_Close(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := newTestController()
	require.NoError(t, c.PlayQueue(context.Background(), queue.NewList("", items(time.Minute, "a"))))
	c.Close()
	c.Close()

	assert.ErrorIs(t, c.PlayQueue(context.Background(), queue.Empty), ErrClosed)
	_, err := c.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	// Channel drains and closes
	for range c.Events() {
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "idle"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{StateWaiting, "waiting"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
		if tt.expected != "unknown" {
			got, ok := ParseState(tt.expected)
			assert.True(t, ok)
			assert.Equal(t, tt.state, got)
		}
	}
}
