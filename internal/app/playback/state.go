// Package playback drives a queue: it simulates progress through the loaded
// items and extends them from the queue when they run low.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // Nothing playing (no queue, stopped, or queue ended)
	StatePlaying              // Current item is playing
	StatePaused               // Current item is paused
	StateWaiting              // Loaded items ran out and the next page is pending
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// ParseState converts a string produced by State.String back to a State.
func ParseState(s string) (State, bool) {
	for _, st := range []State{StateIdle, StatePlaying, StatePaused, StateWaiting} {
		if st.String() == s {
			return st, true
		}
	}
	return StateIdle, false
}
