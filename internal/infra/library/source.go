package library

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// FetchFirst returns the first page of library tracks matching the seed.
// Artist and album seeds match by name, search seeds match title, artist or album.
func (l *Library) FetchFirst(ctx context.Context, seed listing.Seed) (listing.Page, error) {
	if _, err := l.matcher(seed.Kind, seed.ID); err != nil {
		return listing.Page{}, err
	}
	page, err := l.page(seed.Kind, seed.ID, 0)
	if err != nil {
		return listing.Page{}, err
	}
	page.Title = seed.ID
	return page, nil
}

// FetchNext returns the page at the offset encoded in the continuation.
// Continuations refer to the scan they were issued from; a rescan may shift them.
func (l *Library) FetchNext(ctx context.Context, continuation string) (listing.Page, error) {
	parts := strings.SplitN(continuation, ":", 3)
	if len(parts) != 3 {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "malformed cursor %q", continuation)
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "bad offset in cursor %q", continuation)
	}
	kind := listing.SeedKind(parts[0])
	if _, err := l.matcher(kind, parts[2]); err != nil {
		return listing.Page{}, errors.Wrapf(listing.ErrInvalidCursor, "%v", err)
	}
	return l.page(kind, parts[2], offset)
}

func (l *Library) matcher(kind listing.SeedKind, id string) (func(Track) bool, error) {
	switch kind {
	case listing.SeedArtist:
		return func(t Track) bool { return strings.EqualFold(t.Artist, id) }, nil
	case listing.SeedAlbum:
		return func(t Track) bool { return strings.EqualFold(t.Album, id) }, nil
	case listing.SeedSearch:
		q := strings.ToLower(id)
		return func(t Track) bool {
			return strings.Contains(strings.ToLower(t.Title), q) ||
				strings.Contains(strings.ToLower(t.Artist), q) ||
				strings.Contains(strings.ToLower(t.Album), q)
		}, nil
	default:
		return nil, errors.Newf("seed kind %q is not supported by the library", kind)
	}
}

func (l *Library) page(kind listing.SeedKind, id string, offset int) (listing.Page, error) {
	match, err := l.matcher(kind, id)
	if err != nil {
		return listing.Page{}, err
	}
	units := l.filter(match)

	if offset >= len(units) {
		return listing.NewPage(nil, ""), nil
	}
	end := offset + l.pageSize
	next := ""
	if end < len(units) {
		next = formatCursor(string(kind), end, id)
	} else {
		end = len(units)
	}
	return listing.NewPage(songItems(units[offset:end]), next), nil
}

// Units returns all tracks as playable units in library order.
func (l *Library) Units() []media.Metadata {
	return l.filter(func(Track) bool { return true })
}
