// Package notification fans player notifications out to Watch subscribers.
package notification

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/innerbeat/internal/api/playerv1"
)

var (
	ErrClosed  = errors.New("notification manager is closed")
	ErrLagging = errors.New("subscriber fell behind")
)

const defaultBufferSize = 64

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*playerv1.Notification) error
}

// Subscription is a registered stream. Its notifications are sent in sequence
// order by a dedicated goroutine, so a slow stream only delays itself.
type Subscription struct {
	id     string
	stream Stream
	outbox chan *playerv1.Notification
	quit   chan struct{}
	done   chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newSubscription(stream Stream, bufferSize int) *Subscription {
	return &Subscription{
		id:     uuid.New().String(),
		stream: stream,
		outbox: make(chan *playerv1.Notification, bufferSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.id
}

// Done is closed once the subscription has stopped sending.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns why the subscription ended: ErrLagging, ErrClosed, or nil after Unsubscribe.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case n := <-s.outbox:
			if err := s.stream.Send(n); err != nil {
				zlog.Debug().Msgf("notification: send failed: id=%s seq=%d err=%v", s.id, n.SequenceNo, err)
			}
		}
	}
}

// stop ends the sender. Only the first reason is kept.
func (s *Subscription) stop(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = reason
		s.mu.Unlock()
		close(s.quit)
	})
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu         sync.Mutex
	subs       map[string]*Subscription
	seq        uint64
	bufferSize int
	closed     bool
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subs:       make(map[string]*Subscription),
		bufferSize: defaultBufferSize,
	}
}

// Subscribe registers stream. If initial is non-nil, its notification is the first
// one delivered. It is built while broadcasts are held off, so the subscriber
// misses no event after the state it describes. It carries the sequence number of
// the latest broadcast.
func (m *Manager) Subscribe(stream Stream, initial func() *playerv1.Notification) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	sub := newSubscription(stream, m.bufferSize)
	if initial != nil {
		if n := initial(); n != nil {
			n.SequenceNo = m.seq
			sub.outbox <- n
		}
	}
	m.subs[sub.id] = sub
	go sub.run()

	zlog.Debug().Msgf("notification: subscribed: id=%s total=%d", sub.id, len(m.subs))
	return sub, nil
}

// Unsubscribe removes a subscription and waits until it has stopped sending.
// Pending notifications are dropped.
func (m *Manager) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	if m.subs[sub.id] == sub {
		delete(m.subs, sub.id)
	}
	m.mu.Unlock()

	sub.stop(nil)
	<-sub.done
}

// Broadcast stamps the notification with the next sequence number and queues it
// for every subscriber. A subscriber whose buffer is full is dropped with
// ErrLagging; it can subscribe again to get a fresh initial state.
func (m *Manager) Broadcast(notification *playerv1.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.seq++
	notification.SequenceNo = m.seq

	for id, sub := range m.subs {
		select {
		case sub.outbox <- notification:
		default:
			zlog.Warn().Msgf("notification: dropping lagging subscriber: id=%s seq=%d", id, m.seq)
			delete(m.subs, id)
			sub.stop(ErrLagging)
		}
	}
}

// Sequence returns the sequence number of the latest broadcast.
func (m *Manager) Sequence() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Close stops every subscription with ErrClosed and rejects new ones.
// It does not wait for senders; their owners do so in Unsubscribe.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for id, sub := range m.subs {
		sub.stop(ErrClosed)
		delete(m.subs, id)
	}
}
