package queue

import (
	"context"
	"math/rand"
	"time"

	"github.com/osa030/innerbeat/internal/domain/media"
)

// List is a queue over a fixed sequence supplied by the caller.
// It has no pages.
type List struct {
	title      string
	items      []media.Metadata
	startIndex int
	position   time.Duration
}

type listOptions struct {
	startIndex int
	position   time.Duration
	shuffle    *rand.Rand
}

// ListOption configures a List queue.
type ListOption func(*listOptions)

// WithStartIndex sets the index playback starts from.
func WithStartIndex(i int) ListOption {
	return func(o *listOptions) { o.startIndex = i }
}

// WithPosition sets the start offset within the first item.
func WithPosition(d time.Duration) ListOption {
	return func(o *listOptions) { o.position = d }
}

// WithShuffle shuffles the items with the given seed.
// The start item, if any, is moved to the front.
func WithShuffle(seed int64) ListOption {
	return func(o *listOptions) { o.shuffle = rand.New(rand.NewSource(seed)) }
}

// NewList creates a List queue. The items are copied.
func NewList(title string, items []media.Metadata, opts ...ListOption) *List {
	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}

	copied := make([]media.Metadata, len(items))
	copy(copied, items)

	start := o.startIndex
	switch {
	case len(copied) == 0:
		start = NoIndex
	case start < 0:
		start = 0
	case start >= len(copied):
		start = len(copied) - 1
	}

	if o.shuffle != nil && len(copied) > 1 {
		first := copied[start]
		rest := append(copied[:start:start], copied[start+1:]...)
		o.shuffle.Shuffle(len(rest), func(i, j int) {
			rest[i], rest[j] = rest[j], rest[i]
		})
		copied = append([]media.Metadata{first}, rest...)
		start = 0
	}

	position := o.position
	if position < 0 || start == NoIndex {
		position = 0
	}

	return &List{
		title:      title,
		items:      copied,
		startIndex: start,
		position:   position,
	}
}

// PreloadItem returns the item playback starts from.
func (q *List) PreloadItem() *media.Metadata {
	if q.startIndex == NoIndex {
		return nil
	}
	m := q.items[q.startIndex]
	return &m
}

// InitialStatus returns the whole sequence.
func (q *List) InitialStatus(context.Context) (Status, error) {
	items := make([]media.Metadata, len(q.items))
	copy(items, q.items)
	return Status{
		Title:          q.title,
		Items:          items,
		MediaItemIndex: q.startIndex,
		Position:       q.position,
	}, nil
}

// HasNextPage always returns false.
func (q *List) HasNextPage() bool { return false }

// NextPage always returns an empty slice.
func (q *List) NextPage(context.Context) ([]media.Metadata, error) {
	return []media.Metadata{}, nil
}
