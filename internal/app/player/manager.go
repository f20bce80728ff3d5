// Package player provides the player manager.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/innerbeat/internal/api/playerv1"
	"github.com/osa030/innerbeat/internal/app/filter"
	"github.com/osa030/innerbeat/internal/app/notification"
	"github.com/osa030/innerbeat/internal/app/playback"
	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/app/source"
	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
	"github.com/osa030/innerbeat/internal/infra/config"
	"github.com/osa030/innerbeat/internal/infra/library"
	"github.com/osa030/innerbeat/internal/infra/report"
	"github.com/osa030/innerbeat/internal/infra/store"
)

var (
	ErrNoLibrary = errors.New("no local library configured")
	ErrClosed    = errors.New("player is closed")
)

const (
	defaultHistoryEntries = 20
	flushTimeout          = 2 * time.Second
)

// Options holds the optional collaborators of a Manager.
type Options struct {
	Library  *library.Library
	Store    *store.Store
	Reporter *report.Reporter

	// TickInterval overrides the playback timer resolution.
	TickInterval time.Duration
	// ShuffleSeed returns the seed of shuffled lists. Defaults to the current time.
	ShuffleSeed func() int64
}

// Status is the player state.
type Status struct {
	playback.Snapshot
	SessionID string
	Seed      string // Seed of the active remote queue; empty for lists
}

// Manager owns the playback controller and drives it: it starts queues, loads
// further pages when the queue runs low, persists the queue and broadcasts
// playback events.
type Manager struct {
	config       *config.Config
	sessionID    string
	sources      *source.Mux
	playback     *playback.Controller
	notification *notification.Manager
	library      *library.Library
	store        *store.Store
	reporter     *report.Reporter
	shuffleSeed  func() int64

	mu      sync.Mutex
	started bool
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new player manager. Start must be called to process
// playback events.
func NewManager(cfg *config.Config, sources *source.Mux, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	shuffleSeed := opts.ShuffleSeed
	if shuffleSeed == nil {
		shuffleSeed = func() int64 { return time.Now().UnixNano() }
	}

	return &Manager{
		config:    cfg,
		sessionID: uuid.New().String(),
		sources:   sources,
		playback: playback.NewController(playback.Config{
			DepletionThreshold:  cfg.Playback.DepletionThreshold(),
			DefaultItemDuration: cfg.Playback.DefaultItemDuration(),
			HistoryLimit:        cfg.Playback.HistoryLimit,
			TickInterval:        opts.TickInterval,
		}),
		notification: notification.NewManager(),
		library:      opts.Library,
		store:        opts.Store,
		reporter:     opts.Reporter,
		shuffleSeed:  shuffleSeed,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start starts the event loop and restores the saved queue if configured.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.wg.Add(1)
	go m.playbackLoop()
	m.mu.Unlock()

	zlog.Info().Msgf("player started: session_id=%s", m.sessionID)

	if m.config.Playback.RestoreOnStart && m.store != nil {
		if err := m.restore(ctx); err != nil {
			zlog.Warn().Msgf("failed to restore saved queue: %v", err)
		}
	}
	return nil
}

// restore plays the saved queue as a list at its saved position.
func (m *Manager) restore(ctx context.Context) error {
	saved, ok, err := m.store.LoadQueue()
	if err != nil {
		return err
	}
	if !ok || len(saved.Items) == 0 {
		return nil
	}

	zlog.Info().Msgf("restoring queue: title=%q items=%d index=%d position=%v seed=%s saved_at=%v",
		saved.Title, len(saved.Items), saved.Index, saved.Position, saved.Seed, saved.SavedAt)

	q := queue.NewList(saved.Title, saved.Items,
		queue.WithStartIndex(saved.Index),
		queue.WithPosition(saved.Position),
	)
	return m.playback.PlayQueue(ctx, q)
}

// PlaySeed replaces the active queue with the remote listing the seed describes.
// preload, if given, is shown until the first page arrives.
func (m *Manager) PlaySeed(ctx context.Context, seed listing.Seed, preload *media.Metadata) error {
	seed, err := m.sources.Resolve(seed)
	if err != nil {
		return err
	}

	chain, err := filter.Build(m.config.Playback.Filters)
	if err != nil {
		return err
	}

	opts := []queue.RemoteOption{queue.WithPageSize(m.config.Playback.PageSize)}
	if preload != nil {
		opts = append(opts, queue.WithPreload(*preload))
	}

	zlog.Info().Msgf("playing seed: %s", seed)
	if err := m.playback.PlayQueue(ctx, queue.NewRemote(filter.Wrap(m.sources, chain), seed, opts...)); err != nil {
		if !errors.Is(err, playback.ErrQueueReplaced) {
			m.reporter.ListingError(ctx, err, seed.String())
		}
		return err
	}
	return nil
}

// PlayList replaces the active queue with a fixed list of items.
func (m *Manager) PlayList(ctx context.Context, title string, items []media.Metadata, startIndex int, shuffle bool) error {
	opts := []queue.ListOption{queue.WithStartIndex(startIndex)}
	if shuffle {
		opts = append(opts, queue.WithShuffle(m.shuffleSeed()))
	}

	zlog.Info().Msgf("playing list: title=%q items=%d start=%d shuffle=%t", title, len(items), startIndex, shuffle)
	return m.playback.PlayQueue(ctx, queue.NewList(title, items, opts...))
}

// PlayArtist plays the songs of an artist from the local library.
func (m *Manager) PlayArtist(ctx context.Context, artist string, shuffle bool) error {
	if m.library == nil {
		return ErrNoLibrary
	}
	units, err := m.library.ArtistUnits(artist)
	if err != nil {
		return err
	}
	return m.PlayList(ctx, artist, units, 0, shuffle)
}

// LoadMore appends the next page of the active queue. It returns the number of
// appended items and whether further pages remain.
func (m *Manager) LoadMore(ctx context.Context) (int, bool, error) {
	n, err := m.loadMore(ctx)
	return n, m.playback.Queue().HasNextPage(), err
}

func (m *Manager) loadMore(ctx context.Context) (int, error) {
	n, err := m.playback.LoadMore(ctx)
	if err != nil && listing.IsRemoteListingError(err) {
		m.reporter.ListingError(ctx, err, m.currentSeed())
	}
	return n, err
}

// loadMoreAsync loads the next page without blocking the event loop.
func (m *Manager) loadMoreAsync() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		n, err := m.loadMore(m.ctx)
		switch {
		case err == nil:
			zlog.Debug().Msgf("auto load: appended=%d", n)
		case errors.Is(err, playback.ErrLoadInProgress),
			errors.Is(err, playback.ErrQueueReplaced),
			errors.Is(err, playback.ErrClosed):
			zlog.Debug().Msgf("auto load skipped: %v", err)
		default:
			zlog.Warn().Msgf("auto load failed: %v", err)
		}
	}()
}

// Pause pauses playback.
func (m *Manager) Pause() error {
	return m.playback.Pause()
}

// Resume resumes paused playback.
func (m *Manager) Resume() error {
	return m.playback.Resume()
}

// Skip skips the current item.
func (m *Manager) Skip() error {
	return m.playback.Skip()
}

// Previous restarts the current item or goes back one.
func (m *Manager) Previous() error {
	return m.playback.Previous()
}

// Stop stops playback, keeping the queue.
func (m *Manager) Stop() error {
	return m.playback.Stop()
}

// SeekTo plays the loaded item at index.
func (m *Manager) SeekTo(index int) error {
	return m.playback.SeekTo(index)
}

// GetStatus returns the current player status.
func (m *Manager) GetStatus() Status {
	return Status{
		Snapshot:  m.playback.Snapshot(),
		SessionID: m.sessionID,
		Seed:      m.currentSeed(),
	}
}

// History returns up to limit played items, most recent first.
func (m *Manager) History(limit int) ([]store.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryEntries
	}
	if m.store != nil {
		return m.store.History(limit)
	}

	played := m.playback.History()
	entries := make([]store.HistoryEntry, 0, limit)
	for i := len(played) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, store.HistoryEntry{Item: played[i]})
	}
	return entries, nil
}

// Sources returns the configured listing sources.
func (m *Manager) Sources() []source.Info {
	return m.sources.Sources()
}

// Browse fetches a sectioned page, such as the home feed, from a listing source.
// An empty sourceName selects the default source. The returned name is the
// source that served the page, for building seeds from its items.
func (m *Manager) Browse(ctx context.Context, sourceName, browseID, params string) (string, listing.BrowseResult, error) {
	name, result, err := m.sources.Browse(ctx, sourceName, browseID, params)
	if err != nil {
		if listing.IsRemoteListingError(err) {
			m.reporter.ListingError(ctx, err, "browse:"+browseID)
		}
		return "", listing.BrowseResult{}, err
	}
	return name, result, nil
}

// Artists returns the artists of the local library.
func (m *Manager) Artists() ([]string, error) {
	if m.library == nil {
		return nil, ErrNoLibrary
	}
	return m.library.Artists(), nil
}

// Watch subscribes stream to player notifications. The first notification is
// the current state.
func (m *Manager) Watch(stream notification.Stream) (*notification.Subscription, error) {
	sub, err := m.notification.Subscribe(stream, m.InitialNotification)
	if err != nil {
		return nil, ErrClosed
	}
	return sub, nil
}

// Unwatch ends a subscription created by Watch.
func (m *Manager) Unwatch(sub *notification.Subscription) {
	m.notification.Unsubscribe(sub)
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Done returns a channel that is closed when the player is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close saves the queue, stops playback and waits for background work.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	started := m.started
	m.mu.Unlock()

	if started {
		m.persist()
	}
	m.cancel()
	m.playback.Close()
	m.wg.Wait()
	m.notification.Close()
	m.reporter.Flush(flushTimeout)
	close(m.done)

	zlog.Info().Msgf("player closed: session_id=%s", m.sessionID)
}

func (m *Manager) currentSeed() string {
	if r, ok := m.playback.Queue().(*queue.Remote); ok {
		return r.Seed().String()
	}
	return ""
}

// playbackLoop handles playback events until the controller is closed.
func (m *Manager) playbackLoop() {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback loop panicked: %v", r)
			m.reporter.Error(errors.Newf("playback loop panic: %v", r), "player")
			m.wg.Add(1)
			go m.playbackLoop()
		}
	}()

	for event := range m.playback.Events() {
		m.handlePlaybackEvent(event)
	}
}

// handlePlaybackEvent handles playback events.
func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Debug().Msgf("playback event: type=%s index=%d state=%s generation=%d",
		event.Type, event.Index, event.State, event.Generation)

	switch event.Type {
	case playback.EventQueueDepleting:
		if m.config.Playback.AutoLoadMore {
			m.loadMoreAsync()
		}
	case playback.EventTrackEnded:
		m.recordHistory(event.Item)
	}

	m.notification.Broadcast(m.notificationFor(event))

	switch event.Type {
	case playback.EventQueueChanged,
		playback.EventItemsAppended,
		playback.EventTrackStarted,
		playback.EventStateChanged,
		playback.EventQueueEnded:
		m.persist()
	}
}

func (m *Manager) notificationFor(event playback.Event) *playerv1.Notification {
	n := &playerv1.Notification{
		Type:       playerv1.NotificationType(event.Type.String()),
		Generation: event.Generation,
		Index:      int32(event.Index),
		State:      event.State.String(),
	}
	if event.Item != nil {
		n.Track = TrackMessage(*event.Item)
	}
	switch event.Type {
	case playback.EventQueueChanged, playback.EventItemsAppended:
		n.Status = m.GetStatus().Message()
	}
	return n
}

// InitialNotification returns the notification a new Watch subscriber starts with.
// Its sequence number is set on subscription.
func (m *Manager) InitialNotification() *playerv1.Notification {
	status := m.GetStatus()
	n := &playerv1.Notification{
		Type:       playerv1.NotificationTypeInitialState,
		Generation: status.Generation,
		Index:      int32(status.Index),
		State:      status.State.String(),
		Status:     status.Message(),
	}
	if cur := status.Current(); cur != nil {
		n.Track = TrackMessage(*cur)
	}
	return n
}

func (m *Manager) recordHistory(item *media.Metadata) {
	if m.store == nil || item == nil {
		return
	}
	if err := m.store.AddToHistory(*item, time.Now()); err != nil {
		zlog.Warn().Msgf("failed to record history: id=%s err=%v", item.ID, err)
	}
}

// persist saves the active queue, or clears the saved one when nothing is loaded.
func (m *Manager) persist() {
	if m.store == nil {
		return
	}

	status := m.GetStatus()
	if len(status.Items) == 0 {
		if err := m.store.ClearQueue(); err != nil {
			zlog.Warn().Msgf("failed to clear saved queue: %v", err)
		}
		return
	}

	err := m.store.SaveQueue(store.SavedQueue{
		Title:    status.Title,
		Items:    status.Items,
		Index:    status.Index,
		Position: status.Position,
		Seed:     status.Seed,
		SavedAt:  time.Now(),
	})
	if err != nil {
		zlog.Warn().Msgf("failed to save queue: %v", err)
	}
}
