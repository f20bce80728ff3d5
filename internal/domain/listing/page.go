// Package listing provides the paginated remote listing contract: pages, seeds and errors.
package listing

import "github.com/osa030/innerbeat/internal/domain/media"

// Page is one fetched slice of a remote listing.
// An empty Continuation means the source has signaled the end of the listing.
type Page struct {
	Title        string // Display name of the listing, if the source knows it
	Items        []media.Item
	Continuation string
}

// NewPage creates a page. A nil item slice is normalized to an empty one.
func NewPage(items []media.Item, continuation string) Page {
	if items == nil {
		items = []media.Item{}
	}
	return Page{Items: items, Continuation: continuation}
}

// HasMore reports whether the source can return a following page.
func (p Page) HasMore() bool {
	return p.Continuation != ""
}

// Len returns the number of entries on the page.
func (p Page) Len() int {
	return len(p.Items)
}

// BrowseResult is a sectioned listing such as the home feed or a mood/genre page.
type BrowseResult struct {
	Title    string
	Sections []BrowseSection
}

// BrowseSection is one titled shelf of a BrowseResult.
type BrowseSection struct {
	Title string
	Items []media.Item
}

// Items flattens all sections in order.
func (r BrowseResult) Items() []media.Item {
	var items []media.Item
	for _, s := range r.Sections {
		items = append(items, s.Items...)
	}
	return items
}

// PlaylistContinuationPage is a follow-up page of playlist songs.
type PlaylistContinuationPage struct {
	Songs        []media.SongItem
	Continuation string
}

// Page converts the continuation page to a generic listing page.
func (p PlaylistContinuationPage) Page() Page {
	items := make([]media.Item, len(p.Songs))
	for i, s := range p.Songs {
		items[i] = s
	}
	return NewPage(items, p.Continuation)
}
