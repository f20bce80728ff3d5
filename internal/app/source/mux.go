// Package source routes listing requests to the configured listing sources.
package source

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/domain/listing"
)

// cursorSep separates the source name from the source's own cursor.
const cursorSep = "~"

var (
	ErrUnknownSource   = errors.New("unknown source")
	ErrDuplicateSource = errors.New("duplicate source name")
	ErrNoDefault       = errors.New("no default source")
	ErrNotBrowsable    = errors.New("source does not support browsing")
)

// Browser is implemented by sources that expose sectioned pages, such as a home
// feed, from which seeds can be picked.
type Browser interface {
	Browse(ctx context.Context, browseID, params string) (listing.BrowseResult, error)
}

// Info describes a registered source.
type Info struct {
	Name    string
	Type    string
	Default bool
}

type entry struct {
	typ string
	src queue.Source
}

// Mux is a queue.Source that dispatches each seed to the source it names and
// tags continuations with the source name, so FetchNext returns to the same source.
type Mux struct {
	mu          sync.RWMutex
	sources     map[string]entry
	defaultName string
}

// NewMux creates an empty Mux. defaultName is used for seeds without a source.
func NewMux(defaultName string) *Mux {
	return &Mux{
		sources:     make(map[string]entry),
		defaultName: defaultName,
	}
}

// Register adds a source under name.
func (m *Mux) Register(name, typ string, src queue.Source) error {
	if name == "" || strings.Contains(name, cursorSep) {
		return errors.Newf("invalid source name %q", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[name]; exists {
		return errors.Wrapf(ErrDuplicateSource, "%s", name)
	}
	m.sources[name] = entry{typ: typ, src: src}
	if m.defaultName == "" {
		m.defaultName = name
	}

	zlog.Info().Msgf("registered source: name=%s type=%s", name, typ)
	return nil
}

// Resolve fills in the default source of a seed and checks that its source exists.
func (m *Mux) Resolve(seed listing.Seed) (listing.Seed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if seed.Source == "" {
		if m.defaultName == "" {
			return seed, ErrNoDefault
		}
		seed.Source = m.defaultName
	}
	if _, ok := m.sources[seed.Source]; !ok {
		return seed, errors.Wrapf(ErrUnknownSource, "%s", seed.Source)
	}
	return seed, nil
}

// Sources returns the registered sources sorted by name.
func (m *Mux) Sources() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sources))
	for name, e := range m.sources {
		infos = append(infos, Info{Name: name, Type: e.typ, Default: name == m.defaultName})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Lookup returns the source registered under name.
func (m *Mux) Lookup(name string) (queue.Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sources[name]
	return e.src, ok
}

// Browse fetches a sectioned page from the named source, or from the default
// source when name is empty. It returns the resolved source name with the result.
func (m *Mux) Browse(ctx context.Context, name, browseID, params string) (string, listing.BrowseResult, error) {
	seed, err := m.Resolve(listing.Seed{Source: name})
	if err != nil {
		return "", listing.BrowseResult{}, err
	}
	src, _ := m.Lookup(seed.Source)
	b, ok := src.(Browser)
	if !ok {
		return "", listing.BrowseResult{}, errors.Wrapf(ErrNotBrowsable, "%s", seed.Source)
	}

	result, err := b.Browse(ctx, browseID, params)
	if err != nil {
		return "", listing.BrowseResult{}, listing.NewRemoteListingError(seed.Source, listing.OpBrowse, err)
	}
	return seed.Source, result, nil
}

// FetchFirst implements queue.Source.
func (m *Mux) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	seed, err := m.Resolve(seed)
	if err != nil {
		return listing.Page{}, err
	}
	src, _ := m.Lookup(seed.Source)

	page, err := src.FetchFirst(ctx, seed)
	if err != nil {
		return listing.Page{}, listing.NewRemoteListingError(seed.Source, listing.OpFetchFirst, err)
	}
	page.Continuation = tagCursor(seed.Source, page.Continuation)
	return page, nil
}

// FetchNext implements queue.Source. Cursors not produced by this Mux are rejected
// with listing.ErrInvalidCursor.
func (m *Mux) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	name, cursor, ok := splitCursor(continuation)
	if !ok {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "untagged cursor %q", continuation)
	}
	src, ok := m.Lookup(name)
	if !ok {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "cursor for unknown source %q", name)
	}

	page, err := src.FetchNext(ctx, cursor)
	if err != nil {
		return listing.Page{}, listing.NewRemoteListingError(name, listing.OpFetchNext, err)
	}
	page.Continuation = tagCursor(name, page.Continuation)
	return page, nil
}

func tagCursor(name, cursor string) string {
	if cursor == "" {
		return ""
	}
	return name + cursorSep + cursor
}

func splitCursor(tagged string) (name, cursor string, ok bool) {
	name, cursor, ok = strings.Cut(tagged, cursorSep)
	if !ok || name == "" || cursor == "" {
		return "", "", false
	}
	return name, cursor, true
}
