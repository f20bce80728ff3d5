// Package filter provides the filter chain applied to the songs of remote listings.
package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/osa030/innerbeat/internal/domain/media"
	"github.com/osa030/innerbeat/internal/infra/config"
)

// ErrUnknownFilter is returned when a configured filter is not registered.
var ErrUnknownFilter = errors.New("unknown filter")

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duplicate_track", "explicit_content"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for listing filters.
// A Filter instance belongs to one queue and may keep state across pages.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Check performs the filter check.
	Check(ctx context.Context, song media.SongItem) Result
}

// Resetter is implemented by filters that keep state across the pages of a listing.
// Reset is called whenever the listing is walked again from its first page.
type Resetter interface {
	Reset()
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// Registered returns the names of all registered filters, sorted.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates a fresh chain from the configured filters.
func Build(cfgs []config.FilterConfig) (*Chain, error) {
	chain := NewChain()
	for _, fc := range cfgs {
		factory, ok := registry[fc.Name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownFilter, "%q", fc.Name)
		}
		f := factory()
		if err := f.ValidateConfig(fc.Settings); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for filter %q", fc.Name)
		}
		chain.Add(f)
	}
	return chain, nil
}
