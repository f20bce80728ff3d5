package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/innerbeat/internal/app/queue"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// Errors
var (
	ErrNoTrack         = errors.New("no track playing")
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrNotPlaying      = errors.New("not playing")
	ErrNotPaused       = errors.New("not paused")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrQueueReplaced   = errors.New("queue was replaced")
	ErrLoadInProgress  = errors.New("page load already in progress")
	ErrClosed          = errors.New("controller closed")
)

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultItemDuration = 3 * time.Minute
	defaultHistoryLimit = 100

	// Previous restarts the current item instead of going back once past this point.
	restartThreshold = 3 * time.Second
)

// Config holds controller configuration.
type Config struct {
	DepletionThreshold  time.Duration // Remaining time below which the next page is requested
	DefaultItemDuration time.Duration // Duration assumed for items that report none
	HistoryLimit        int           // Number of played items kept
	TickInterval        time.Duration // Resolution of the wall clock timers
}

// Snapshot is a consistent view of the controller state.
type Snapshot struct {
	Generation  uint64
	Title       string
	Items       []media.Metadata
	Index       int
	Position    time.Duration
	State       State
	HasNextPage bool
	Loading     bool // A page load is in flight
}

// Current returns the item at Index, or nil.
func (s Snapshot) Current() *media.Metadata {
	if s.Index < 0 || s.Index >= len(s.Items) {
		return nil
	}
	m := s.Items[s.Index]
	return &m
}

// Controller plays through the items of a single active queue.
type Controller struct {
	mu sync.RWMutex

	// Queue management
	q          queue.Queue
	generation uint64
	title      string
	items      []media.Metadata // Items loaded so far
	index      int              // Current item, or queue.NoIndex
	played     []media.Metadata // History, most recent last

	// Current item state
	state         State
	startTime     time.Time
	startOffset   time.Duration // Position the current item started from
	pausedAt      *time.Time
	pausedElapsed time.Duration
	playSeq       uint64 // Incremented on every item start; stale timers compare against it

	// Page loading
	loading    bool
	loadingGen uint64

	// Timers
	timerCancel          func()
	depletionTimerCancel func()
	depletionNotified    bool

	config Config

	eventCh chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

// NewController creates a new playback controller with no queue.
func NewController(config Config) *Controller {
	if config.DefaultItemDuration <= 0 {
		config.DefaultItemDuration = defaultItemDuration
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = defaultHistoryLimit
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaultTickInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		q:       queue.Empty,
		items:   make([]media.Metadata, 0),
		index:   queue.NoIndex,
		played:  make([]media.Metadata, 0),
		state:   StateIdle,
		config:  config,
		eventCh: make(chan Event, 64),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// PlayQueue replaces the active queue and starts playing from its initial status.
// While the initial status loads, the queue's preload item is shown as the only item.
// If another PlayQueue call replaces the queue meanwhile, ErrQueueReplaced is returned.
func (c *Controller) PlayQueue(ctx context.Context, q queue.Queue) error {
	if q == nil {
		q = queue.Empty
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	gen := c.generation
	c.stopTimersLocked()
	c.resetClockLocked()
	c.q = q
	c.title = ""
	c.items = make([]media.Metadata, 0, 1)
	c.index = queue.NoIndex
	if preload := q.PreloadItem(); preload != nil {
		c.items = append(c.items, *preload)
		c.index = 0
	}
	c.state = StateIdle
	c.depletionNotified = false
	c.loading = true
	c.loadingGen = gen
	c.mu.Unlock()

	status, err := q.InitialStatus(ctx)
	if err == nil {
		err = status.Validate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadingGen == gen {
		c.loading = false
	}
	if gen != c.generation || c.closed {
		return ErrQueueReplaced
	}

	if err != nil {
		c.q = queue.Empty
		c.items = make([]media.Metadata, 0)
		c.index = queue.NoIndex
		c.sendEventLocked(Event{Type: EventQueueChanged, Index: c.index, State: c.state, Generation: gen})
		return errors.Wrap(err, "failed to load initial status")
	}

	c.title = status.Title
	c.items = append(make([]media.Metadata, 0, len(status.Items)), status.Items...)
	c.index = status.MediaItemIndex

	zlog.Debug().Msgf("playback: queue changed: generation=%d title=%q items=%d index=%d position=%v",
		gen, c.title, len(c.items), c.index, status.Position)

	c.sendEventLocked(Event{Type: EventQueueChanged, Index: c.index, State: c.state, Generation: gen})

	if len(c.items) == 0 {
		c.onItemsExhaustedLocked()
		return nil
	}
	c.startItemLocked(c.index, status.Position)
	return nil
}

// LoadMore appends the next page of the active queue to the loaded items.
// It returns the number of items appended. When the queue has no further pages it
// returns 0 without I/O. The result is discarded with ErrQueueReplaced if the queue
// was replaced while the page was loading.
func (c *Controller) LoadMore(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	if c.loading {
		c.mu.Unlock()
		return 0, ErrLoadInProgress
	}
	q := c.q
	gen := c.generation
	if !q.HasNextPage() {
		c.mu.Unlock()
		return 0, nil
	}
	c.loading = true
	c.loadingGen = gen
	c.mu.Unlock()

	units, err := q.NextPage(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadingGen == gen {
		c.loading = false
	}
	if gen != c.generation || c.closed {
		zlog.Debug().Msgf("playback: discarding page for replaced queue: generation=%d current=%d", gen, c.generation)
		return 0, ErrQueueReplaced
	}
	if err != nil {
		c.depletionNotified = false
		return 0, errors.Wrap(err, "failed to load next page")
	}

	if len(units) > 0 {
		c.items = append(c.items, units...)
		c.sendEventLocked(Event{
			Type:       EventItemsAppended,
			Index:      c.index,
			State:      c.state,
			Generation: gen,
		})
	}
	c.depletionNotified = false

	zlog.Debug().Msgf("playback: page loaded: generation=%d appended=%d total=%d has_next=%t",
		gen, len(units), len(c.items), q.HasNextPage())

	if c.state == StateWaiting {
		c.advanceLocked()
	} else {
		c.checkDepletionLocked()
	}
	return len(units), nil
}

// Play starts playback. A paused item resumes; an idle controller restarts the
// current item.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying, StateWaiting:
		return nil
	case StatePaused:
		return c.resumeLocked()
	}

	if len(c.items) == 0 {
		return ErrQueueEmpty
	}
	index := c.index
	if index < 0 || index >= len(c.items) {
		index = 0
	}
	c.startItemLocked(index, c.startOffset)
	return nil
}

// Pause pauses the current playback.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasCurrentLocked() {
		return ErrNoTrack
	}
	if c.state != StatePlaying {
		return ErrNotPlaying
	}

	c.stopTimersLocked()

	now := toWallTime(time.Now())
	c.pausedAt = &now
	c.state = StatePaused

	c.sendEventLocked(c.itemEventLocked(EventStateChanged))
	return nil
}

// Resume resumes paused playback.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resumeLocked()
}

func (c *Controller) resumeLocked() error {
	if !c.hasCurrentLocked() {
		return ErrNoTrack
	}
	if c.state != StatePaused {
		return ErrNotPaused
	}

	if c.pausedAt != nil {
		c.pausedElapsed += toWallTime(time.Now()).Sub(*c.pausedAt)
	}
	c.pausedAt = nil
	c.state = StatePlaying

	remaining := c.durationOf(c.items[c.index]) - c.positionLocked()
	if remaining <= 0 {
		c.onTrackEndLocked()
		return nil
	}

	c.startTrackTimerLocked(remaining)
	c.checkDepletionLocked()
	c.sendEventLocked(c.itemEventLocked(EventStateChanged))
	return nil
}

// Skip skips the current item and plays the next one.
// If the loaded items are used up, it waits for the next page, or returns
// ErrQueueEmpty when the queue has none.
func (c *Controller) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasCurrentLocked() || (c.state != StatePlaying && c.state != StatePaused) {
		return ErrNoTrack
	}

	c.sendEventLocked(c.itemEventLocked(EventTrackSkipped))
	c.advanceLocked()

	if c.state == StateIdle {
		return ErrQueueEmpty
	}
	return nil
}

// Previous restarts the current item, or moves to the previous one when the
// current item has just started.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasCurrentLocked() {
		return ErrNoTrack
	}

	index := c.index
	active := c.state == StatePlaying || c.state == StatePaused
	if active && index > 0 && c.positionLocked() <= restartThreshold {
		index--
	}
	c.startItemLocked(index, 0)
	return nil
}

// SeekTo starts playing the loaded item at index.
func (c *Controller) SeekTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.items) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d", index, len(c.items))
	}
	c.startItemLocked(index, 0)
	return nil
}

// Stop stops playback. The loaded items and the current index are kept.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimersLocked()
	c.resetClockLocked()
	if c.state != StateIdle {
		c.state = StateIdle
		c.sendEventLocked(c.itemEventLocked(EventStateChanged))
	}
	return nil
}

// GetState returns the current playback state.
func (c *Controller) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// GetCurrentItem returns the current item.
func (c *Controller) GetCurrentItem() (*media.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.hasCurrentLocked() {
		return nil, false
	}
	m := c.items[c.index]
	return &m, true
}

// GetRemainingDuration returns the remaining time of the current and following loaded items.
func (c *Controller) GetRemainingDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remainingLocked()
}

// Generation returns the number of queues played so far.
func (c *Controller) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Queue returns the active queue.
func (c *Controller) Queue() queue.Queue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.q
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]media.Metadata, len(c.items))
	copy(items, c.items)
	return Snapshot{
		Generation:  c.generation,
		Title:       c.title,
		Items:       items,
		Index:       c.index,
		Position:    c.positionLocked(),
		State:       c.state,
		HasNextPage: c.q.HasNextPage(),
		Loading:     c.loading,
	}
}

// History returns a copy of the played items, most recent last.
func (c *Controller) History() []media.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]media.Metadata, len(c.played))
	copy(result, c.played)
	return result
}

// Close stops playback and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.stopTimersLocked()
	c.state = StateIdle
	c.mu.Unlock()

	close(c.eventCh)
}

// startItemLocked starts the item at index from offset.
// Must be called with lock held.
func (c *Controller) startItemLocked(index int, offset time.Duration) {
	c.stopTimersLocked()

	item := c.items[index]
	duration := c.durationOf(item)
	if offset < 0 || offset >= duration {
		offset = 0
	}

	c.index = index
	c.playSeq++
	c.state = StatePlaying
	c.startTime = toWallTime(time.Now())
	c.startOffset = offset
	c.pausedAt = nil
	c.pausedElapsed = 0

	zlog.Debug().Msgf("playback: starting item: index=%d id=%s title=%q offset=%v duration=%v",
		index, item.ID, item.Title, offset, duration)

	c.startTrackTimerLocked(duration - offset)
	c.sendEventLocked(c.itemEventLocked(EventTrackStarted))
	c.checkDepletionLocked()
}

// onTrackEndLocked records the finished item and moves on.
// Must be called with lock held.
func (c *Controller) onTrackEndLocked() {
	if !c.hasCurrentLocked() {
		return
	}

	ended := c.items[c.index]
	if !c.startTime.IsZero() {
		elapsed := toWallTime(time.Now()).Sub(c.startTime)
		zlog.Debug().Msgf("playback: item ended: id=%s expected_duration=%v actual_elapsed=%v",
			ended.ID, c.durationOf(ended)-c.startOffset, elapsed)
	}

	c.played = append(c.played, ended)
	if over := len(c.played) - c.config.HistoryLimit; over > 0 {
		c.played = append(make([]media.Metadata, 0, c.config.HistoryLimit), c.played[over:]...)
	}

	c.sendEventLocked(c.itemEventLocked(EventTrackEnded))
	c.advanceLocked()
}

// advanceLocked plays the item after the current one, if loaded.
// Must be called with lock held.
func (c *Controller) advanceLocked() {
	next := c.index + 1
	if c.index < 0 {
		next = 0
	}
	if next < len(c.items) {
		c.startItemLocked(next, 0)
		return
	}
	c.onItemsExhaustedLocked()
}

// onItemsExhaustedLocked handles running out of loaded items: wait for the next
// page if the queue has one, otherwise end.
// Must be called with lock held.
func (c *Controller) onItemsExhaustedLocked() {
	c.stopTimersLocked()
	c.resetClockLocked()

	if c.q.HasNextPage() {
		c.state = StateWaiting
		c.depletionNotified = true
		c.sendEventLocked(Event{
			Type:       EventQueueDepleting,
			Index:      c.index,
			State:      c.state,
			Generation: c.generation,
		})
		return
	}

	c.state = StateIdle
	c.sendEventLocked(Event{
		Type:       EventQueueEnded,
		Index:      c.index,
		State:      c.state,
		Generation: c.generation,
	})
}

// checkDepletionLocked emits EventQueueDepleting once the remaining time drops
// below the threshold, scheduling a timer if it is still above.
// Must be called with lock held.
func (c *Controller) checkDepletionLocked() {
	if c.depletionNotified || !c.q.HasNextPage() {
		return
	}

	if c.depletionTimerCancel != nil {
		c.depletionTimerCancel()
		c.depletionTimerCancel = nil
	}

	totalRemaining := c.remainingLocked()
	threshold := c.config.DepletionThreshold

	if totalRemaining <= threshold {
		c.depletionNotified = true
		c.sendEventLocked(Event{
			Type:       EventQueueDepleting,
			Index:      c.index,
			State:      c.state,
			Generation: c.generation,
		})
		return
	}

	if c.state == StatePlaying {
		gen := c.generation
		c.depletionTimerCancel = c.startWallClockTimer(totalRemaining-threshold, func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			if c.closed || c.generation != gen {
				return
			}
			c.checkDepletionLocked()
		})
	}
}

// remainingLocked returns the remaining time of the current item plus the items after it.
// Must be called with lock held.
func (c *Controller) remainingLocked() time.Duration {
	if !c.hasCurrentLocked() || c.state == StateWaiting {
		return 0
	}

	total := c.durationOf(c.items[c.index]) - c.positionLocked()
	for _, it := range c.items[c.index+1:] {
		total += c.durationOf(it)
	}
	if total < 0 {
		return 0
	}
	return total
}

// positionLocked returns the playback position within the current item.
// Must be called with lock held.
func (c *Controller) positionLocked() time.Duration {
	if !c.hasCurrentLocked() || c.startTime.IsZero() {
		return c.startOffset
	}

	now := toWallTime(time.Now())
	elapsed := now.Sub(c.startTime) - c.pausedElapsed
	if c.pausedAt != nil {
		elapsed -= now.Sub(*c.pausedAt)
	}

	pos := c.startOffset + elapsed
	if pos < 0 {
		return 0
	}
	if d := c.durationOf(c.items[c.index]); pos > d {
		return d
	}
	return pos
}

func (c *Controller) hasCurrentLocked() bool {
	return c.index >= 0 && c.index < len(c.items)
}

func (c *Controller) durationOf(m media.Metadata) time.Duration {
	if m.Duration <= 0 {
		return c.config.DefaultItemDuration
	}
	return m.Duration
}

func (c *Controller) itemEventLocked(t EventType) Event {
	e := Event{Type: t, Index: c.index, State: c.state, Generation: c.generation}
	if c.hasCurrentLocked() {
		m := c.items[c.index]
		e.Item = &m
	}
	return e
}

func (c *Controller) resetClockLocked() {
	c.startTime = time.Time{}
	c.startOffset = 0
	c.pausedAt = nil
	c.pausedElapsed = 0
}

func (c *Controller) stopTimersLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
	if c.depletionTimerCancel != nil {
		c.depletionTimerCancel()
		c.depletionTimerCancel = nil
	}
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping event: type=%s", e.Type)
	}
}

// startTrackTimerLocked starts the end-of-item timer for the current play sequence.
func (c *Controller) startTrackTimerLocked(duration time.Duration) {
	if c.timerCancel != nil {
		c.timerCancel()
	}
	seq := c.playSeq
	c.timerCancel = c.startWallClockTimer(duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.playSeq != seq || c.state != StatePlaying {
			return
		}
		c.onTrackEndLocked()
	})
}

// startWallClockTimer starts a timer that triggers callback after duration, using wall clock.
// Returns a cancel function. All timers stop when the controller is closed.
func (c *Controller) startWallClockTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(c.ctx)

	go func() {
		endTime := toWallTime(time.Now()).Add(duration)
		ticker := time.NewTicker(c.config.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !toWallTime(time.Now()).Before(endTime) {
					callback()
					return
				}
			}
		}
	}()

	return cancel
}

// toWallTime returns the time with monotonic clock stripped, so differences
// follow the wall clock.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
