// Package queue provides the playback queue abstraction: what plays next and how
// further items are discovered.
package queue

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// NoIndex is the MediaItemIndex of a status without items.
const NoIndex = -1

// Queue is the source of items for one "now playing" session.
// A Queue has a single owner (the playback controller). Once HasNextPage
// returns false it keeps returning false for the lifetime of the instance.
type Queue interface {
	// PreloadItem returns a best-effort hint of the first item to play.
	// It never performs I/O and may be nil.
	PreloadItem() *media.Metadata

	// InitialStatus returns the title, the initial items and the index to start from.
	InitialStatus(ctx context.Context) (Status, error)

	// HasNextPage reports whether NextPage can return more items. It never performs I/O.
	HasNextPage() bool

	// NextPage returns the following items. The slice is empty, never nil, when there are none.
	NextPage(ctx context.Context) ([]media.Metadata, error)
}

// Source is a remote listing the Remote queue paginates over.
type Source interface {
	// FetchFirst returns the first page of the listing the seed describes.
	FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error)

	// FetchNext returns the page following a previously returned continuation.
	// It fails with listing.ErrInvalidCursor when the continuation is rejected.
	FetchNext(ctx context.Context, continuation string) (listing.Page, error)
}

// Status is the initial playback state of a queue.
type Status struct {
	Title          string
	Items          []media.Metadata
	MediaItemIndex int
	Position       time.Duration // Start offset within the item at MediaItemIndex
}

// ErrInvalidStatus is returned by Status.Validate.
var ErrInvalidStatus = errors.New("invalid queue status")

// Validate checks the index against the items.
func (s Status) Validate() error {
	if len(s.Items) == 0 {
		if s.MediaItemIndex != NoIndex {
			return errors.Wrapf(ErrInvalidStatus, "index %d without items", s.MediaItemIndex)
		}
		return nil
	}
	if s.MediaItemIndex < 0 || s.MediaItemIndex >= len(s.Items) {
		return errors.Wrapf(ErrInvalidStatus, "index %d out of range [0,%d)", s.MediaItemIndex, len(s.Items))
	}
	if s.Position < 0 {
		return errors.Wrapf(ErrInvalidStatus, "negative position %s", s.Position)
	}
	return nil
}

// Empty is the queue with no items and no pages.
var Empty Queue = emptyQueue{}

type emptyQueue struct{}

func (emptyQueue) PreloadItem() *media.Metadata { return nil }

func (emptyQueue) InitialStatus(context.Context) (Status, error) {
	return Status{Items: []media.Metadata{}, MediaItemIndex: NoIndex}, nil
}

func (emptyQueue) HasNextPage() bool { return false }

func (emptyQueue) NextPage(context.Context) ([]media.Metadata, error) {
	return []media.Metadata{}, nil
}
