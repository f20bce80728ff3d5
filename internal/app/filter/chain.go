package filter

import (
	"context"

	"github.com/osa030/innerbeat/internal/domain/media"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the song.
func (c *Chain) Execute(ctx context.Context, song media.SongItem) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, song)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Reset clears the state of every stateful filter in the chain.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		if r, ok := f.(Resetter); ok {
			r.Reset()
		}
	}
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}
