// Package report sends listing failures to Sentry.
package report

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	sentry "github.com/getsentry/sentry-go"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/domain/listing"
)

// Config represents error reporting configuration. An empty DSN disables reporting.
type Config struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
}

// Reporter captures errors on its own hub. A nil or disabled Reporter drops everything.
type Reporter struct {
	hub *sentry.Hub
}

// New creates a reporter.
func New(cfg Config) (*Reporter, error) {
	return newReporter(cfg, nil)
}

func newReporter(cfg Config, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) (*Reporter, error) {
	if cfg.DSN == "" {
		zlog.Debug().Msg("error reporting disabled")
		return &Reporter{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sentry init failed")
	}

	zlog.Info().Msgf("error reporting enabled: environment=%s", cfg.Environment)
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Enabled reports whether errors are sent anywhere.
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// ListingError reports a failed page fetch. Rejected cursors end a listing
// normally and are not reported.
func (r *Reporter) ListingError(ctx context.Context, err error, seed string) {
	if !r.Enabled() || err == nil || listing.IsInvalidCursor(err) || errors.Is(err, context.Canceled) {
		return
	}

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "listing")
		if seed != "" {
			scope.SetTag("seed", seed)
		}
		var rle *listing.RemoteListingError
		if errors.As(err, &rle) {
			scope.SetTag("source", rle.Source)
			scope.SetTag("op", rle.Op)
		}
		r.hub.CaptureException(err)
	})
}

// Error reports any other unexpected error with a component tag.
func (r *Reporter) Error(err error, component string) {
	if !r.Enabled() || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		r.hub.CaptureException(err)
	})
}

// Flush waits for queued events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}
