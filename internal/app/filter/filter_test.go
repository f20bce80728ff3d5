package filter

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
	"github.com/osa030/innerbeat/internal/infra/config"
)

type pagedSource struct {
	first listing.Page
	next  map[string]listing.Page
	err   error
}

func (s *pagedSource) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	if s.err != nil {
		return listing.Page{}, s.err
	}
	return s.first, nil
}

func (s *pagedSource) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	if s.err != nil {
		return listing.Page{}, s.err
	}
	p, ok := s.next[continuation]
	if !ok {
		return listing.Page{}, listing.ErrInvalidCursor
	}
	return p, nil
}

func itemIDs(items []media.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ItemID()
	}
	return ids
}

func TestBuild(t *testing.T) {
	chain, err := Build([]config.FilterConfig{
		{Name: "duplicate_track_filter"},
		{Name: "duration_limit_filter", Settings: map[string]any{"max_minutes": 10}},
		{Name: "explicit_filter"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, chain.Len())
	assert.Equal(t, "duplicate_track_filter", chain.Filters()[0].Name())

	_, err = Build([]config.FilterConfig{{Name: "nope"}})
	assert.True(t, errors.Is(err, ErrUnknownFilter))

	_, err = Build([]config.FilterConfig{
		{Name: "duration_limit_filter", Settings: map[string]any{"min_minutes": 5, "max_minutes": 1}},
	})
	assert.Error(t, err)

	empty, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestBuild_ChainsAreIndependent(t *testing.T) {
	cfgs := []config.FilterConfig{{Name: "duplicate_track_filter"}}
	a, err := Build(cfgs)
	require.NoError(t, err)
	b, err := Build(cfgs)
	require.NoError(t, err)

	ctx := context.Background()
	s := song("x", "Song", "Artist")
	assert.True(t, a.Execute(ctx, s).Accepted)
	assert.False(t, a.Execute(ctx, s).Accepted)
	assert.True(t, b.Execute(ctx, s).Accepted)
}

func TestRegistered(t *testing.T) {
	assert.Equal(t, []string{"duplicate_track_filter", "duration_limit_filter", "explicit_filter"}, Registered())
}

func TestChain_StopsAtFirstRejection(t *testing.T) {
	chain := NewChain()
	chain.Add(&ExplicitFilter{})
	dup := NewDuplicateTrackFilter()
	chain.Add(dup)

	ctx := context.Background()
	explicit := song("e", "Song", "Artist")
	explicit.Explicit = true

	result := chain.Execute(ctx, explicit)
	assert.False(t, result.Accepted)
	assert.Equal(t, "explicit_content", result.Code)

	// The duplicate filter never saw the rejected song.
	assert.True(t, dup.Check(ctx, explicit).Accepted)
}

func TestWrap(t *testing.T) {
	long := song("long", "Long", "A")
	long.Duration = 20 * time.Minute
	album := media.AlbumItem{BrowseID: "alb", Title: "Album"}

	src := &pagedSource{
		first: listing.NewPage([]media.Item{song("a", "A", "A"), long, album, song("b", "B", "B")}, "tok"),
		next: map[string]listing.Page{
			"tok": listing.NewPage([]media.Item{song("a", "A", "A"), song("c", "C", "C")}, ""),
		},
	}
	chain, err := Build([]config.FilterConfig{
		{Name: "duplicate_track_filter"},
		{Name: "duration_limit_filter", Settings: map[string]any{"max_minutes": 10}},
	})
	require.NoError(t, err)

	wrapped := Wrap(src, chain)
	ctx := context.Background()

	first, err := wrapped.FetchFirst(ctx, listing.Seed{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "alb", "b"}, itemIDs(first.Items))
	assert.Equal(t, "tok", first.Continuation)

	next, err := wrapped.FetchNext(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, itemIDs(next.Items))
	assert.Empty(t, next.Continuation)

	_, err = wrapped.FetchNext(ctx, "missing")
	assert.True(t, listing.IsInvalidCursor(err))
}

func TestWrap_EmptyChainReturnsSource(t *testing.T) {
	src := &pagedSource{}
	assert.Same(t, src, Wrap(src, NewChain()))
	assert.Same(t, src, Wrap(src, nil))
}

func TestWrap_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	wrapped := Wrap(&pagedSource{err: boom}, func() *Chain {
		c := NewChain()
		c.Add(&ExplicitFilter{})
		return c
	}())

	_, err := wrapped.FetchFirst(context.Background(), listing.Seed{})
	assert.True(t, errors.Is(err, boom))
}

func TestWrap_RepeatInitialStatusIsDeterministic(t *testing.T) {
	src := &pagedSource{
		first: listing.NewPage([]media.Item{song("a", "A", "A"), song("b", "B", "B"), song("c", "C", "C")}, "tok1"),
		next: map[string]listing.Page{
			"tok1": listing.NewPage([]media.Item{song("b", "B", "B"), song("d", "D", "D")}, ""),
		},
	}
	chain, err := Build([]config.FilterConfig{{Name: "duplicate_track_filter"}})
	require.NoError(t, err)

	q := queue.NewRemote(Wrap(src, chain), listing.Seed{Kind: listing.SeedStation, ID: "X"}, queue.WithPageSize(2))
	ctx := context.Background()

	first, err := q.InitialStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, media.IDs(first.Items))

	again, err := q.InitialStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, media.IDs(first.Items), media.IDs(again.Items))
	assert.Equal(t, first.MediaItemIndex, again.MediaItemIndex)
	assert.True(t, q.HasNextPage())

	// The buffered surplus survives and duplicates are still dropped across pages.
	next, err := q.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, media.IDs(next))
	assert.False(t, q.HasNextPage())
}
