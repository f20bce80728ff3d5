package source

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/infra/config"
	"github.com/osa030/innerbeat/internal/infra/innertube"
	"github.com/osa030/innerbeat/internal/infra/library"
	"github.com/osa030/innerbeat/internal/infra/spotify"
	"github.com/osa030/innerbeat/internal/infra/youtube"
)

var _ Browser = (*innertube.Client)(nil)

// InnertubeSettings configures an innertube source.
type InnertubeSettings struct {
	BaseURL       string `mapstructure:"base_url"`
	WebURL        string `mapstructure:"web_url" default:"https://music.youtube.com"`
	ClientVersion string `mapstructure:"client_version"`
	HL            string `mapstructure:"hl" default:"en"`
	GL            string `mapstructure:"gl" default:"US" validate:"len=2"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec" default:"10" validate:"gte=1,lte=120"`
}

// YouTubeSettings configures a YouTube Data API source.
type YouTubeSettings struct {
	APIKey   string `mapstructure:"api_key" validate:"required"`
	PageSize int    `mapstructure:"page_size" default:"25" validate:"gte=1,lte=50"`
	Endpoint string `mapstructure:"endpoint"`
}

// SpotifySettings configures a Spotify source.
type SpotifySettings struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	RefreshToken string `mapstructure:"refresh_token" validate:"required"`
	Market       string `mapstructure:"market" default:"JP" validate:"omitempty,len=2"`
	PageSize     int    `mapstructure:"page_size" default:"50" validate:"gte=1,lte=50"`
}

// decodeSettings decodes a settings map into out, applies defaults and validates it.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// NewMuxFromConfig creates one source per configured entry and registers the
// library, when given, under config.SourceLibrary.
func NewMuxFromConfig(ctx context.Context, cfg *config.Config, lib *library.Library) (*Mux, error) {
	mux := NewMux(cfg.Playback.DefaultSource)

	for i, scfg := range cfg.Sources {
		zlog.Debug().Msgf("creating source: index=%d name=%s type=%s", i+1, scfg.Name, scfg.Type)

		src, err := newSource(ctx, scfg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, name %s, type %s)", i, scfg.Name, scfg.Type)
		}
		if err := mux.Register(scfg.Name, scfg.Type, src); err != nil {
			return nil, err
		}
	}

	if lib != nil {
		if err := mux.Register(config.SourceLibrary, config.SourceLibrary, lib); err != nil {
			return nil, err
		}
	}

	if len(mux.Sources()) == 0 {
		return nil, errors.New("no sources configured")
	}
	if _, err := mux.Resolve(listing.Seed{}); err != nil {
		return nil, errors.Wrap(err, "default source")
	}
	return mux, nil
}

func newSource(ctx context.Context, scfg config.SourceConfig) (queue.Source, error) {
	switch scfg.Type {
	case config.SourceInnertube:
		var s InnertubeSettings
		if err := decodeSettings(scfg.Settings, &s); err != nil {
			return nil, err
		}
		return innertube.New(innertube.Config{
			BaseURL:       s.BaseURL,
			WebURL:        s.WebURL,
			ClientVersion: s.ClientVersion,
			HL:            s.HL,
			GL:            s.GL,
			APIKey:        s.APIKey,
			Timeout:       time.Duration(s.TimeoutSec) * time.Second,
		}), nil

	case config.SourceYouTube:
		var s YouTubeSettings
		if err := decodeSettings(scfg.Settings, &s); err != nil {
			return nil, err
		}
		client, err := youtube.New(ctx, youtube.Config{
			APIKey:   s.APIKey,
			PageSize: s.PageSize,
			Endpoint: s.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	case config.SourceSpotify:
		var s SpotifySettings
		if err := decodeSettings(scfg.Settings, &s); err != nil {
			return nil, err
		}
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			RefreshToken: s.RefreshToken,
			Market:       s.Market,
			PageSize:     s.PageSize,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, errors.Newf("unsupported source type: %s", scfg.Type)
	}
}
