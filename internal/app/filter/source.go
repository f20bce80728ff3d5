package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
	"github.com/osa030/innerbeat/internal/infra/logger"
)

// Source applies a chain to the songs of every page of a listing.
// Entries other than songs pass through unchanged.
type Source struct {
	source queue.Source
	chain  *Chain
	log    zerolog.Logger
}

var _ queue.Source = (*Source)(nil)

// Wrap returns source filtered through chain. An empty chain returns source as is.
func Wrap(source queue.Source, chain *Chain) queue.Source {
	if chain == nil || chain.Len() == 0 {
		return source
	}
	return &Source{source: source, chain: chain, log: logger.Component("filter")}
}

// FetchFirst fetches and filters the first page. It starts a new walk of the
// listing, so stateful filters are reset first.
func (s *Source) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	s.chain.Reset()
	page, err := s.source.FetchFirst(ctx, seed)
	if err != nil {
		return page, err
	}
	return s.apply(ctx, page), nil
}

// FetchNext fetches and filters a following page.
func (s *Source) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	page, err := s.source.FetchNext(ctx, continuation)
	if err != nil {
		return page, err
	}
	return s.apply(ctx, page), nil
}

func (s *Source) apply(ctx context.Context, page listing.Page) listing.Page {
	kept := make([]media.Item, 0, len(page.Items))
	for _, it := range page.Items {
		song, ok := it.(media.SongItem)
		if !ok {
			kept = append(kept, it)
			continue
		}
		if result := s.chain.Execute(ctx, song); !result.Accepted {
			s.log.Debug().Msgf("dropped song: id=%s title=%s code=%s", song.ID, song.Title, result.Code)
			continue
		}
		kept = append(kept, it)
	}
	page.Items = kept
	return page
}
