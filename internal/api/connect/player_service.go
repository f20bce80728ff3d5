package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/innerbeat/internal/api/playerv1"
	"github.com/osa030/innerbeat/internal/api/playerv1/playerv1connect"
	"github.com/osa030/innerbeat/internal/app/notification"
	"github.com/osa030/innerbeat/internal/app/playback"
	"github.com/osa030/innerbeat/internal/app/player"
	"github.com/osa030/innerbeat/internal/app/source"
	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
	"github.com/osa030/innerbeat/internal/infra/library"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player *player.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(p *player.Manager) *PlayerService {
	return &PlayerService{player: p}
}

// Ensure PlayerService implements the interface.
var _ playerv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// PlaySeed starts a queue from a remote listing seed.
func (s *PlayerService) PlaySeed(
	ctx context.Context,
	req *connect.Request[playerv1.PlaySeedRequest],
) (*connect.Response[playerv1.PlaySeedResponse], error) {
	seed, err := listing.ParseSeed(req.Msg.Seed)
	if err != nil {
		return nil, connectError(err)
	}

	var preload *media.Metadata
	if req.Msg.Preload != nil && req.Msg.Preload.ID != "" {
		m := player.MetadataFromTrack(req.Msg.Preload)
		preload = &m
	}

	if err := s.player.PlaySeed(ctx, seed, preload); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&playerv1.PlaySeedResponse{
		Status: s.player.GetStatus().Message(),
	}), nil
}

// PlayList starts a queue from a fixed list of tracks.
func (s *PlayerService) PlayList(
	ctx context.Context,
	req *connect.Request[playerv1.PlayListRequest],
) (*connect.Response[playerv1.PlayListResponse], error) {
	if len(req.Msg.Items) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("items are required"))
	}

	items := make([]media.Metadata, 0, len(req.Msg.Items))
	for _, t := range req.Msg.Items {
		if t == nil || t.ID == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("every item needs an id"))
		}
		items = append(items, player.MetadataFromTrack(t))
	}

	if err := s.player.PlayList(ctx, req.Msg.Title, items, int(req.Msg.StartIndex), req.Msg.Shuffle); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&playerv1.PlayListResponse{
		Status: s.player.GetStatus().Message(),
	}), nil
}

// PlayArtist plays or shuffles the songs of a library artist.
func (s *PlayerService) PlayArtist(
	ctx context.Context,
	req *connect.Request[playerv1.PlayArtistRequest],
) (*connect.Response[playerv1.PlayArtistResponse], error) {
	if err := s.player.PlayArtist(ctx, req.Msg.Artist, req.Msg.Shuffle); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&playerv1.PlayArtistResponse{
		Status: s.player.GetStatus().Message(),
	}), nil
}

// GetStatus returns the current player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[playerv1.GetStatusRequest],
) (*connect.Response[playerv1.GetStatusResponse], error) {
	return connect.NewResponse(&playerv1.GetStatusResponse{
		Status: s.player.GetStatus().Message(),
	}), nil
}

// LoadMore appends the next page of the active queue.
func (s *PlayerService) LoadMore(
	ctx context.Context,
	req *connect.Request[playerv1.LoadMoreRequest],
) (*connect.Response[playerv1.LoadMoreResponse], error) {
	n, hasNext, err := s.player.LoadMore(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&playerv1.LoadMoreResponse{
		Appended:    int32(n),
		HasNextPage: hasNext,
	}), nil
}

// Pause pauses playback.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return s.control(s.player.Pause(), "Playback paused")
}

// Resume resumes playback.
func (s *PlayerService) Resume(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return s.control(s.player.Resume(), "Playback resumed")
}

// Skip skips the current track.
func (s *PlayerService) Skip(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return s.control(s.player.Skip(), "Track skipped")
}

// Previous restarts the current track or goes back one.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return s.control(s.player.Previous(), "Moved to previous track")
}

// Stop stops playback.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[playerv1.ControlRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return s.control(s.player.Stop(), "Playback stopped")
}

// Seek plays the loaded track at an index.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[playerv1.SeekRequest],
) (*connect.Response[playerv1.ControlResponse], error) {
	return s.control(s.player.SeekTo(int(req.Msg.Index)), "Seeked")
}

func (s *PlayerService) control(err error, message string) (*connect.Response[playerv1.ControlResponse], error) {
	if err != nil {
		return connect.NewResponse(&playerv1.ControlResponse{
			Success: false,
			Message: err.Error(),
		}), nil
	}
	return connect.NewResponse(&playerv1.ControlResponse{
		Success: true,
		Message: message,
		Status:  s.player.GetStatus().Message(),
	}), nil
}

// ListSources lists the configured listing sources.
func (s *PlayerService) ListSources(
	ctx context.Context,
	req *connect.Request[playerv1.ListSourcesRequest],
) (*connect.Response[playerv1.ListSourcesResponse], error) {
	sources := s.player.Sources()
	infos := make([]*playerv1.SourceInfo, len(sources))
	for i, src := range sources {
		infos[i] = &playerv1.SourceInfo{Name: src.Name, Type: src.Type, Default: src.Default}
	}
	return connect.NewResponse(&playerv1.ListSourcesResponse{Sources: infos}), nil
}

// ListArtists lists the artists of the local library.
func (s *PlayerService) ListArtists(
	ctx context.Context,
	req *connect.Request[playerv1.ListArtistsRequest],
) (*connect.Response[playerv1.ListArtistsResponse], error) {
	artists, err := s.player.Artists()
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&playerv1.ListArtistsResponse{Artists: artists}), nil
}

// GetHistory returns recently played tracks, most recent first.
func (s *PlayerService) GetHistory(
	ctx context.Context,
	req *connect.Request[playerv1.GetHistoryRequest],
) (*connect.Response[playerv1.GetHistoryResponse], error) {
	history, err := s.player.History(int(req.Msg.Limit))
	if err != nil {
		return nil, connectError(err)
	}
	entries := make([]*playerv1.HistoryEntry, len(history))
	for i, h := range history {
		entries[i] = &playerv1.HistoryEntry{
			Track:    player.TrackMessage(h.Item),
			PlayedAt: h.PlayedAt,
		}
	}
	return connect.NewResponse(&playerv1.GetHistoryResponse{Entries: entries}), nil
}

// Browse returns a sectioned page of a listing source. Every item carries the
// seed that plays it.
func (s *PlayerService) Browse(
	ctx context.Context,
	req *connect.Request[playerv1.BrowseRequest],
) (*connect.Response[playerv1.BrowseResponse], error) {
	name, result, err := s.player.Browse(ctx, req.Msg.Source, req.Msg.BrowseID, req.Msg.Params)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(player.BrowseMessage(name, result)), nil
}

// Watch streams player notifications, starting with the current state.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[playerv1.WatchRequest],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	sub, err := s.player.Watch(&notificationStreamAdapter{stream: stream})
	if err != nil {
		return connectError(err)
	}
	defer s.player.Unwatch(sub)

	zlog.Debug().Msgf("watch started: subscription_id=%s", sub.ID())

	select {
	case <-ctx.Done():
		return nil
	case <-sub.Done():
	}
	if errors.Is(sub.Err(), notification.ErrLagging) {
		return connect.NewError(connect.CodeResourceExhausted, sub.Err())
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[playerv1.Notification]
}

func (a *notificationStreamAdapter) Send(notification *playerv1.Notification) error {
	return a.stream.Send(notification)
}

// connectError maps player errors to Connect error codes.
func connectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, listing.ErrInvalidSeed),
		errors.Is(err, source.ErrUnknownSource),
		errors.Is(err, playback.ErrIndexOutOfRange):
		code = connect.CodeInvalidArgument
	case errors.Is(err, library.ErrUnknownArtist):
		code = connect.CodeNotFound
	case errors.Is(err, source.ErrNotBrowsable):
		code = connect.CodeUnimplemented
	case errors.Is(err, player.ErrNoLibrary),
		errors.Is(err, source.ErrNoDefault),
		errors.Is(err, playback.ErrNoTrack),
		errors.Is(err, playback.ErrQueueEmpty):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, playback.ErrLoadInProgress),
		errors.Is(err, playback.ErrQueueReplaced):
		code = connect.CodeAborted
	case errors.Is(err, playback.ErrClosed),
		errors.Is(err, player.ErrClosed),
		listing.IsRemoteListingError(err):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}
