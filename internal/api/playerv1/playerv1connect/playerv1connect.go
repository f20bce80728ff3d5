// Package playerv1connect provides the Connect client and handler of
// innerbeat.v1.PlayerService.
package playerv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	v1 "github.com/osa030/innerbeat/internal/api/playerv1"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "innerbeat.v1.PlayerService"

// Procedure paths of PlayerService.
const (
	PlayerServicePlaySeedProcedure    = "/innerbeat.v1.PlayerService/PlaySeed"
	PlayerServicePlayListProcedure    = "/innerbeat.v1.PlayerService/PlayList"
	PlayerServicePlayArtistProcedure  = "/innerbeat.v1.PlayerService/PlayArtist"
	PlayerServiceGetStatusProcedure   = "/innerbeat.v1.PlayerService/GetStatus"
	PlayerServiceLoadMoreProcedure    = "/innerbeat.v1.PlayerService/LoadMore"
	PlayerServicePauseProcedure       = "/innerbeat.v1.PlayerService/Pause"
	PlayerServiceResumeProcedure      = "/innerbeat.v1.PlayerService/Resume"
	PlayerServiceSkipProcedure        = "/innerbeat.v1.PlayerService/Skip"
	PlayerServicePreviousProcedure    = "/innerbeat.v1.PlayerService/Previous"
	PlayerServiceStopProcedure        = "/innerbeat.v1.PlayerService/Stop"
	PlayerServiceSeekProcedure        = "/innerbeat.v1.PlayerService/Seek"
	PlayerServiceListSourcesProcedure = "/innerbeat.v1.PlayerService/ListSources"
	PlayerServiceListArtistsProcedure = "/innerbeat.v1.PlayerService/ListArtists"
	PlayerServiceGetHistoryProcedure  = "/innerbeat.v1.PlayerService/GetHistory"
	PlayerServiceBrowseProcedure      = "/innerbeat.v1.PlayerService/Browse"
	PlayerServiceWatchProcedure       = "/innerbeat.v1.PlayerService/Watch"
)

// PlayerServiceClient is a client for the innerbeat.v1.PlayerService service.
type PlayerServiceClient interface {
	PlaySeed(context.Context, *connect.Request[v1.PlaySeedRequest]) (*connect.Response[v1.PlaySeedResponse], error)
	PlayList(context.Context, *connect.Request[v1.PlayListRequest]) (*connect.Response[v1.PlayListResponse], error)
	PlayArtist(context.Context, *connect.Request[v1.PlayArtistRequest]) (*connect.Response[v1.PlayArtistResponse], error)
	GetStatus(context.Context, *connect.Request[v1.GetStatusRequest]) (*connect.Response[v1.GetStatusResponse], error)
	LoadMore(context.Context, *connect.Request[v1.LoadMoreRequest]) (*connect.Response[v1.LoadMoreResponse], error)
	Pause(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Resume(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Skip(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Previous(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Stop(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Seek(context.Context, *connect.Request[v1.SeekRequest]) (*connect.Response[v1.ControlResponse], error)
	ListSources(context.Context, *connect.Request[v1.ListSourcesRequest]) (*connect.Response[v1.ListSourcesResponse], error)
	ListArtists(context.Context, *connect.Request[v1.ListArtistsRequest]) (*connect.Response[v1.ListArtistsResponse], error)
	GetHistory(context.Context, *connect.Request[v1.GetHistoryRequest]) (*connect.Response[v1.GetHistoryResponse], error)
	Browse(context.Context, *connect.Request[v1.BrowseRequest]) (*connect.Response[v1.BrowseResponse], error)
	Watch(context.Context, *connect.Request[v1.WatchRequest]) (*connect.ServerStreamForClient[v1.Notification], error)
}

// NewPlayerServiceClient constructs a client for the innerbeat.v1.PlayerService
// service. Messages are sent as JSON.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(v1.Codec{})}, opts...)
	o := connect.WithClientOptions(opts...)
	return &playerServiceClient{
		playSeed:    connect.NewClient[v1.PlaySeedRequest, v1.PlaySeedResponse](httpClient, baseURL+PlayerServicePlaySeedProcedure, o),
		playList:    connect.NewClient[v1.PlayListRequest, v1.PlayListResponse](httpClient, baseURL+PlayerServicePlayListProcedure, o),
		playArtist:  connect.NewClient[v1.PlayArtistRequest, v1.PlayArtistResponse](httpClient, baseURL+PlayerServicePlayArtistProcedure, o),
		getStatus:   connect.NewClient[v1.GetStatusRequest, v1.GetStatusResponse](httpClient, baseURL+PlayerServiceGetStatusProcedure, o),
		loadMore:    connect.NewClient[v1.LoadMoreRequest, v1.LoadMoreResponse](httpClient, baseURL+PlayerServiceLoadMoreProcedure, o),
		pause:       connect.NewClient[v1.ControlRequest, v1.ControlResponse](httpClient, baseURL+PlayerServicePauseProcedure, o),
		resume:      connect.NewClient[v1.ControlRequest, v1.ControlResponse](httpClient, baseURL+PlayerServiceResumeProcedure, o),
		skip:        connect.NewClient[v1.ControlRequest, v1.ControlResponse](httpClient, baseURL+PlayerServiceSkipProcedure, o),
		previous:    connect.NewClient[v1.ControlRequest, v1.ControlResponse](httpClient, baseURL+PlayerServicePreviousProcedure, o),
		stop:        connect.NewClient[v1.ControlRequest, v1.ControlResponse](httpClient, baseURL+PlayerServiceStopProcedure, o),
		seek:        connect.NewClient[v1.SeekRequest, v1.ControlResponse](httpClient, baseURL+PlayerServiceSeekProcedure, o),
		listSources: connect.NewClient[v1.ListSourcesRequest, v1.ListSourcesResponse](httpClient, baseURL+PlayerServiceListSourcesProcedure, o),
		listArtists: connect.NewClient[v1.ListArtistsRequest, v1.ListArtistsResponse](httpClient, baseURL+PlayerServiceListArtistsProcedure, o),
		getHistory:  connect.NewClient[v1.GetHistoryRequest, v1.GetHistoryResponse](httpClient, baseURL+PlayerServiceGetHistoryProcedure, o),
		browse:      connect.NewClient[v1.BrowseRequest, v1.BrowseResponse](httpClient, baseURL+PlayerServiceBrowseProcedure, o),
		watch:       connect.NewClient[v1.WatchRequest, v1.Notification](httpClient, baseURL+PlayerServiceWatchProcedure, o),
	}
}

type playerServiceClient struct {
	playSeed    *connect.Client[v1.PlaySeedRequest, v1.PlaySeedResponse]
	playList    *connect.Client[v1.PlayListRequest, v1.PlayListResponse]
	playArtist  *connect.Client[v1.PlayArtistRequest, v1.PlayArtistResponse]
	getStatus   *connect.Client[v1.GetStatusRequest, v1.GetStatusResponse]
	loadMore    *connect.Client[v1.LoadMoreRequest, v1.LoadMoreResponse]
	pause       *connect.Client[v1.ControlRequest, v1.ControlResponse]
	resume      *connect.Client[v1.ControlRequest, v1.ControlResponse]
	skip        *connect.Client[v1.ControlRequest, v1.ControlResponse]
	previous    *connect.Client[v1.ControlRequest, v1.ControlResponse]
	stop        *connect.Client[v1.ControlRequest, v1.ControlResponse]
	seek        *connect.Client[v1.SeekRequest, v1.ControlResponse]
	listSources *connect.Client[v1.ListSourcesRequest, v1.ListSourcesResponse]
	listArtists *connect.Client[v1.ListArtistsRequest, v1.ListArtistsResponse]
	getHistory  *connect.Client[v1.GetHistoryRequest, v1.GetHistoryResponse]
	browse      *connect.Client[v1.BrowseRequest, v1.BrowseResponse]
	watch       *connect.Client[v1.WatchRequest, v1.Notification]
}

func (c *playerServiceClient) PlaySeed(ctx context.Context, req *connect.Request[v1.PlaySeedRequest]) (*connect.Response[v1.PlaySeedResponse], error) {
	return c.playSeed.CallUnary(ctx, req)
}

func (c *playerServiceClient) PlayList(ctx context.Context, req *connect.Request[v1.PlayListRequest]) (*connect.Response[v1.PlayListResponse], error) {
	return c.playList.CallUnary(ctx, req)
}

func (c *playerServiceClient) PlayArtist(ctx context.Context, req *connect.Request[v1.PlayArtistRequest]) (*connect.Response[v1.PlayArtistResponse], error) {
	return c.playArtist.CallUnary(ctx, req)
}

func (c *playerServiceClient) GetStatus(ctx context.Context, req *connect.Request[v1.GetStatusRequest]) (*connect.Response[v1.GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

func (c *playerServiceClient) LoadMore(ctx context.Context, req *connect.Request[v1.LoadMoreRequest]) (*connect.Response[v1.LoadMoreResponse], error) {
	return c.loadMore.CallUnary(ctx, req)
}

func (c *playerServiceClient) Pause(ctx context.Context, req *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error) {
	return c.pause.CallUnary(ctx, req)
}

func (c *playerServiceClient) Resume(ctx context.Context, req *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error) {
	return c.resume.CallUnary(ctx, req)
}

func (c *playerServiceClient) Skip(ctx context.Context, req *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error) {
	return c.skip.CallUnary(ctx, req)
}

func (c *playerServiceClient) Previous(ctx context.Context, req *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error) {
	return c.previous.CallUnary(ctx, req)
}

func (c *playerServiceClient) Stop(ctx context.Context, req *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error) {
	return c.stop.CallUnary(ctx, req)
}

func (c *playerServiceClient) Seek(ctx context.Context, req *connect.Request[v1.SeekRequest]) (*connect.Response[v1.ControlResponse], error) {
	return c.seek.CallUnary(ctx, req)
}

func (c *playerServiceClient) ListSources(ctx context.Context, req *connect.Request[v1.ListSourcesRequest]) (*connect.Response[v1.ListSourcesResponse], error) {
	return c.listSources.CallUnary(ctx, req)
}

func (c *playerServiceClient) ListArtists(ctx context.Context, req *connect.Request[v1.ListArtistsRequest]) (*connect.Response[v1.ListArtistsResponse], error) {
	return c.listArtists.CallUnary(ctx, req)
}

func (c *playerServiceClient) GetHistory(ctx context.Context, req *connect.Request[v1.GetHistoryRequest]) (*connect.Response[v1.GetHistoryResponse], error) {
	return c.getHistory.CallUnary(ctx, req)
}

func (c *playerServiceClient) Browse(ctx context.Context, req *connect.Request[v1.BrowseRequest]) (*connect.Response[v1.BrowseResponse], error) {
	return c.browse.CallUnary(ctx, req)
}

func (c *playerServiceClient) Watch(ctx context.Context, req *connect.Request[v1.WatchRequest]) (*connect.ServerStreamForClient[v1.Notification], error) {
	return c.watch.CallServerStream(ctx, req)
}

// PlayerServiceHandler is an implementation of the innerbeat.v1.PlayerService service.
type PlayerServiceHandler interface {
	PlaySeed(context.Context, *connect.Request[v1.PlaySeedRequest]) (*connect.Response[v1.PlaySeedResponse], error)
	PlayList(context.Context, *connect.Request[v1.PlayListRequest]) (*connect.Response[v1.PlayListResponse], error)
	PlayArtist(context.Context, *connect.Request[v1.PlayArtistRequest]) (*connect.Response[v1.PlayArtistResponse], error)
	GetStatus(context.Context, *connect.Request[v1.GetStatusRequest]) (*connect.Response[v1.GetStatusResponse], error)
	LoadMore(context.Context, *connect.Request[v1.LoadMoreRequest]) (*connect.Response[v1.LoadMoreResponse], error)
	Pause(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Resume(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Skip(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Previous(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Stop(context.Context, *connect.Request[v1.ControlRequest]) (*connect.Response[v1.ControlResponse], error)
	Seek(context.Context, *connect.Request[v1.SeekRequest]) (*connect.Response[v1.ControlResponse], error)
	ListSources(context.Context, *connect.Request[v1.ListSourcesRequest]) (*connect.Response[v1.ListSourcesResponse], error)
	ListArtists(context.Context, *connect.Request[v1.ListArtistsRequest]) (*connect.Response[v1.ListArtistsResponse], error)
	GetHistory(context.Context, *connect.Request[v1.GetHistoryRequest]) (*connect.Response[v1.GetHistoryResponse], error)
	Browse(context.Context, *connect.Request[v1.BrowseRequest]) (*connect.Response[v1.BrowseResponse], error)
	Watch(context.Context, *connect.Request[v1.WatchRequest], *connect.ServerStream[v1.Notification]) error
}

// NewPlayerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(v1.Codec{})}, opts...)
	o := connect.WithHandlerOptions(opts...)

	handlers := map[string]http.Handler{
		PlayerServicePlaySeedProcedure:    connect.NewUnaryHandler(PlayerServicePlaySeedProcedure, svc.PlaySeed, o),
		PlayerServicePlayListProcedure:    connect.NewUnaryHandler(PlayerServicePlayListProcedure, svc.PlayList, o),
		PlayerServicePlayArtistProcedure:  connect.NewUnaryHandler(PlayerServicePlayArtistProcedure, svc.PlayArtist, o),
		PlayerServiceGetStatusProcedure:   connect.NewUnaryHandler(PlayerServiceGetStatusProcedure, svc.GetStatus, o),
		PlayerServiceLoadMoreProcedure:    connect.NewUnaryHandler(PlayerServiceLoadMoreProcedure, svc.LoadMore, o),
		PlayerServicePauseProcedure:       connect.NewUnaryHandler(PlayerServicePauseProcedure, svc.Pause, o),
		PlayerServiceResumeProcedure:      connect.NewUnaryHandler(PlayerServiceResumeProcedure, svc.Resume, o),
		PlayerServiceSkipProcedure:        connect.NewUnaryHandler(PlayerServiceSkipProcedure, svc.Skip, o),
		PlayerServicePreviousProcedure:    connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, o),
		PlayerServiceStopProcedure:        connect.NewUnaryHandler(PlayerServiceStopProcedure, svc.Stop, o),
		PlayerServiceSeekProcedure:        connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, o),
		PlayerServiceListSourcesProcedure: connect.NewUnaryHandler(PlayerServiceListSourcesProcedure, svc.ListSources, o),
		PlayerServiceListArtistsProcedure: connect.NewUnaryHandler(PlayerServiceListArtistsProcedure, svc.ListArtists, o),
		PlayerServiceGetHistoryProcedure:  connect.NewUnaryHandler(PlayerServiceGetHistoryProcedure, svc.GetHistory, o),
		PlayerServiceBrowseProcedure:      connect.NewUnaryHandler(PlayerServiceBrowseProcedure, svc.Browse, o),
		PlayerServiceWatchProcedure:       connect.NewServerStreamHandler(PlayerServiceWatchProcedure, svc.Watch, o),
	}

	return "/" + PlayerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
