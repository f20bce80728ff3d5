package queue

import (
	"context"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// DefaultPageSize is the number of items a Remote queue surfaces per call.
const DefaultPageSize = 20

// State represents the pagination state of a Remote queue.
type State int

const (
	StateUninitialized State = iota // No page fetched yet
	StatePaginating                 // Items buffered or a continuation held
	StateExhausted                  // Terminal: no further pages
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePaginating:
		return "paginating"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Remote is a queue backed by a paginated remote listing.
// Fetched items beyond the page size are buffered and surfaced before the next fetch.
type Remote struct {
	source   Source
	seed     listing.Seed
	preload  *media.Metadata
	pageSize int

	// opMu serializes InitialStatus and NextPage so at most one fetch is in flight.
	opMu sync.Mutex

	// mu guards the pagination state below. It is never held across a fetch.
	mu           sync.RWMutex
	state        State
	buffer       []media.Metadata
	continuation string
}

// RemoteOption configures a Remote queue.
type RemoteOption func(*Remote)

// WithPreload sets the item shown before the first page arrives.
func WithPreload(m media.Metadata) RemoteOption {
	return func(q *Remote) { q.preload = &m }
}

// WithPageSize sets the number of items surfaced per call. Values below 1 are ignored.
func WithPageSize(n int) RemoteOption {
	return func(q *Remote) {
		if n > 0 {
			q.pageSize = n
		}
	}
}

// NewRemote creates a queue over the listing the seed describes.
func NewRemote(source Source, seed listing.Seed, opts ...RemoteOption) *Remote {
	q := &Remote{
		source:   source,
		seed:     seed,
		pageSize: DefaultPageSize,
		state:    StateUninitialized,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Seed returns the seed descriptor of the queue.
func (q *Remote) Seed() listing.Seed {
	return q.seed
}

// PreloadItem returns the preload hint, if any.
func (q *Remote) PreloadItem() *media.Metadata {
	if q.preload == nil {
		return nil
	}
	m := *q.preload
	return &m
}

// State returns the current pagination state.
func (q *Remote) State() State {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state
}

// Buffered returns the number of fetched items not yet surfaced.
func (q *Remote) Buffered() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.buffer)
}

// HasNextPage reports whether NextPage can return more items.
// Before the first fetch the listing is assumed to have items.
func (q *Remote) HasNextPage() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state == StateUninitialized || q.continuation != "" || len(q.buffer) > 0
}

// InitialStatus fetches the first page and returns up to the page size of its items.
// Every successful call reseeds the pagination state from the first page, unless the
// queue is already exhausted.
//
// If the preload item is among the fetched items, the fetched unit replaces it and its
// index is returned. Otherwise the preload item is placed in front at index 0.
func (q *Remote) InitialStatus(ctx context.Context) (Status, error) {
	q.opMu.Lock()
	defer q.opMu.Unlock()

	page, err := q.source.FetchFirst(ctx, q.seed)
	if err != nil {
		return Status{}, listing.NewRemoteListingError(q.seed.Source, listing.OpFetchFirst, err)
	}

	surfaced, surplus := split(media.Playable(page.Items), q.pageSize)

	q.mu.Lock()
	if q.state != StateExhausted {
		q.commitLocked(surplus, page.Continuation)
	}
	state := q.state
	q.mu.Unlock()

	items, index := q.mergePreload(surfaced)

	zlog.Debug().Msgf("queue: initial status: seed=%s items=%d buffered=%d state=%s",
		q.seed, len(items), len(surplus), state)

	return Status{
		Title:          page.Title,
		Items:          items,
		MediaItemIndex: index,
	}, nil
}

// NextPage returns up to the page size of further items.
// Buffered items are drained first; if they do not fill the page and a continuation is
// held, one more page is fetched and its surplus is buffered.
//
// On a RemoteListingError no state is changed, so the call can be retried.
// A rejected continuation ends the listing: the drained items are returned without error.
func (q *Remote) NextPage(ctx context.Context) ([]media.Metadata, error) {
	q.opMu.Lock()
	defer q.opMu.Unlock()

	q.mu.RLock()
	state := q.state
	buffer := q.buffer
	continuation := q.continuation
	q.mu.RUnlock()

	switch state {
	case StateExhausted:
		return []media.Metadata{}, nil

	case StateUninitialized:
		page, err := q.source.FetchFirst(ctx, q.seed)
		if err != nil {
			return nil, listing.NewRemoteListingError(q.seed.Source, listing.OpFetchFirst, err)
		}
		out, surplus := split(media.Playable(page.Items), q.pageSize)
		q.commit(surplus, page.Continuation)
		return out, nil
	}

	out, rest := split(buffer, q.pageSize)

	if len(out) < q.pageSize && continuation != "" {
		page, err := q.source.FetchNext(ctx, continuation)
		if err != nil {
			if listing.IsInvalidCursor(err) {
				zlog.Warn().Msgf("queue: continuation rejected, ending listing: seed=%s error=%v", q.seed, err)
				q.commit(rest, "")
				return out, nil
			}
			return nil, listing.NewRemoteListingError(q.seed.Source, listing.OpFetchNext, err)
		}

		added, surplus := split(media.Playable(page.Items), q.pageSize-len(out))
		out = append(out, added...)
		rest = append(rest, surplus...)
		continuation = page.Continuation
	}

	q.commit(rest, continuation)

	zlog.Debug().Msgf("queue: next page: seed=%s items=%d buffered=%d has_next=%t",
		q.seed, len(out), len(rest), continuation != "" || len(rest) > 0)

	return out, nil
}

func (q *Remote) commit(buffer []media.Metadata, continuation string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commitLocked(buffer, continuation)
}

// commitLocked stores the pagination state. Must be called with mu held.
func (q *Remote) commitLocked(buffer []media.Metadata, continuation string) {
	q.buffer = buffer
	q.continuation = continuation
	if len(buffer) == 0 && continuation == "" {
		q.state = StateExhausted
	} else {
		q.state = StatePaginating
	}
}

func (q *Remote) mergePreload(items []media.Metadata) ([]media.Metadata, int) {
	if q.preload == nil {
		if len(items) == 0 {
			return items, NoIndex
		}
		return items, 0
	}
	for i, it := range items {
		if it.ID == q.preload.ID {
			return items, i
		}
	}
	return append([]media.Metadata{*q.preload}, items...), 0
}

// split returns copies of the first n units and of the rest.
func split(units []media.Metadata, n int) ([]media.Metadata, []media.Metadata) {
	if n > len(units) {
		n = len(units)
	}
	if n < 0 {
		n = 0
	}
	head := make([]media.Metadata, n)
	copy(head, units[:n])
	tail := make([]media.Metadata, len(units)-n)
	copy(tail, units[n:])
	return head, tail
}
