package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// fakeSource serves scripted pages keyed by continuation.
type fakeSource struct {
	mu sync.Mutex

	first    listing.Page
	firstErr error
	pages    map[string]listing.Page
	errs     map[string][]error // Errors returned (in order) before the page is served

	firstCalls int
	nextCalls  []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	gate        chan struct{} // When set, every fetch waits on it
}

func newFakeSource(first listing.Page) *fakeSource {
	return &fakeSource{
		first: first,
		pages: make(map[string]listing.Page),
		errs:  make(map[string][]error),
	}
}

func (f *fakeSource) enter() {
	n := f.inFlight.Add(1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeSource) leave() {
	f.inFlight.Add(-1)
}

func (f *fakeSource) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.firstCalls++
	if f.firstErr != nil {
		return listing.Page{}, f.firstErr
	}
	return f.first, nil
}

func (f *fakeSource) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCalls = append(f.nextCalls, continuation)
	if errs := f.errs[continuation]; len(errs) > 0 {
		f.errs[continuation] = errs[1:]
		return listing.Page{}, errs[0]
	}
	page, ok := f.pages[continuation]
	if !ok {
		return listing.Page{}, fmt.Errorf("unexpected continuation %q", continuation)
	}
	return page, nil
}

func (f *fakeSource) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.nextCalls...)
}

func songs(ids ...string) []media.Item {
	items := make([]media.Item, len(ids))
	for i, id := range ids {
		items[i] = media.SongItem{ID: id, Title: "Song " + id}
	}
	return items
}

func page(continuation string, ids ...string) listing.Page {
	return listing.NewPage(songs(ids...), continuation)
}
