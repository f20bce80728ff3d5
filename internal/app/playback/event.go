package playback

import "github.com/osa030/innerbeat/internal/domain/media"

// EventType represents a playback event type.
type EventType int

const (
	EventQueueChanged   EventType = iota // A new queue replaced the active one
	EventItemsAppended                   // A page was appended to the loaded items
	EventTrackStarted                    // Item started playing
	EventTrackEnded                      // Item finished playing
	EventTrackSkipped                    // Item was skipped
	EventStateChanged                    // Playback state changed (pause/resume/stop)
	EventQueueDepleting                  // Remaining time below threshold and more pages exist
	EventQueueEnded                      // Items ran out and the queue has no further pages
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventQueueChanged:
		return "queue_changed"
	case EventItemsAppended:
		return "items_appended"
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackSkipped:
		return "track_skipped"
	case EventStateChanged:
		return "state_changed"
	case EventQueueDepleting:
		return "queue_depleting"
	case EventQueueEnded:
		return "queue_ended"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type       EventType
	Item       *media.Metadata // Item the event refers to (nil for queue-level events)
	Index      int             // Index of Item within the loaded items, or queue.NoIndex
	State      State           // Playback state after the event
	Generation uint64          // Queue generation the event belongs to
}
