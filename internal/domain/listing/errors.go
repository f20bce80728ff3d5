package listing

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInvalidCursor is returned by a source that rejects a stale or unknown continuation.
// Queues treat it as the end of the listing.
var ErrInvalidCursor = errors.New("continuation cursor rejected")

// RemoteListingError is a network or parse failure reported by a listing source.
type RemoteListingError struct {
	Source string // Source name, e.g. "innertube"
	Op     string // "fetch_first", "fetch_next" or "browse"
	Err    error
}

// Error implements error.
func (e *RemoteListingError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RemoteListingError) Unwrap() error {
	return e.Err
}

const (
	OpFetchFirst = "fetch_first"
	OpFetchNext  = "fetch_next"
	OpBrowse     = "browse"
)

// NewRemoteListingError wraps err as a RemoteListingError.
// ErrInvalidCursor and errors that already are RemoteListingErrors are returned unchanged.
func NewRemoteListingError(source, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidCursor) {
		return err
	}
	var rle *RemoteListingError
	if errors.As(err, &rle) {
		return err
	}
	return &RemoteListingError{Source: source, Op: op, Err: err}
}

// IsInvalidCursor reports whether err signals a rejected continuation.
func IsInvalidCursor(err error) bool {
	return errors.Is(err, ErrInvalidCursor)
}

// IsRemoteListingError reports whether err is (or wraps) a RemoteListingError.
func IsRemoteListingError(err error) bool {
	var rle *RemoteListingError
	return errors.As(err, &rle)
}
