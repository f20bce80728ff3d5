package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/innerbeat/internal/api/playerv1"
	"github.com/osa030/innerbeat/internal/testutil"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []playerv1.Notification
	err   error
	block chan struct{}
}

func (s *recordingStream) Send(n *playerv1.Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, *n)
	return s.err
}

func (s *recordingStream) received() []playerv1.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]playerv1.Notification(nil), s.got...)
}

func waitLen(t *testing.T, s *recordingStream, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.received()) == n }, time.Second, 5*time.Millisecond)
}

func TestManager_BroadcastStampsSequence(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := NewManager()
	a, b := &recordingStream{}, &recordingStream{err: errors.New("closed")}
	subA, err := m.Subscribe(a, nil)
	require.NoError(t, err)
	subB, err := m.Subscribe(b, nil)
	require.NoError(t, err)
	defer m.Unsubscribe(subB)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeTrackStarted})
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeTrackEnded})

	waitLen(t, a, 2)
	got := a.received()
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
	waitLen(t, b, 2) // a failing stream still receives later broadcasts

	m.Unsubscribe(subA)
	assert.Nil(t, subA.Err())
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeQueueEnded})
	waitLen(t, b, 3)
	assert.Len(t, a.received(), 2)
	assert.Equal(t, uint64(3), m.Sequence())
}

func TestManager_InitialNotificationComesFirst(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := NewManager()
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStateChanged})

	s := &recordingStream{}
	sub, err := m.Subscribe(s, func() *playerv1.Notification {
		return &playerv1.Notification{Type: playerv1.NotificationTypeInitialState}
	})
	require.NoError(t, err)
	defer m.Unsubscribe(sub)

	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeTrackStarted})

	waitLen(t, s, 2)
	got := s.received()
	assert.Equal(t, playerv1.NotificationTypeInitialState, got[0].Type)
	assert.Equal(t, uint64(1), got[0].SequenceNo, "initial state carries the latest sequence")
	assert.Equal(t, playerv1.NotificationTypeTrackStarted, got[1].Type)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := NewManager()
	slow := &recordingStream{block: make(chan struct{})}
	fast := &recordingStream{}
	subSlow, err := m.Subscribe(slow, nil)
	require.NoError(t, err)
	subFast, err := m.Subscribe(fast, nil)
	require.NoError(t, err)
	defer m.Unsubscribe(subFast)

	start := time.Now()
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStateChanged})
	assert.Less(t, time.Since(start), time.Second)
	waitLen(t, fast, 1)

	close(slow.block)
	waitLen(t, slow, 1)
	m.Unsubscribe(subSlow)
}

func TestManager_DropsLaggingSubscriber(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := NewManager()
	m.bufferSize = 2

	stuck := &recordingStream{block: make(chan struct{})}
	sub, err := m.Subscribe(stuck, nil)
	require.NoError(t, err)

	// One notification is held by the blocked sender, two fill the buffer.
	for i := 0; i < 4; i++ {
		m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeTrackStarted})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, 0, m.SubscriberCount())
	assert.ErrorIs(t, sub.Err(), ErrLagging)

	close(stuck.block)
	<-sub.Done()
	m.Unsubscribe(sub)
}

func TestManager_Close(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := NewManager()
	s := &recordingStream{}
	sub, err := m.Subscribe(s, nil)
	require.NoError(t, err)

	m.Close()
	<-sub.Done()
	assert.ErrorIs(t, sub.Err(), ErrClosed)
	assert.Equal(t, 0, m.SubscriberCount())

	_, err = m.Subscribe(s, nil)
	assert.ErrorIs(t, err, ErrClosed)

	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeQueueEnded})
	assert.Equal(t, uint64(0), m.Sequence())
	m.Unsubscribe(sub)
}
