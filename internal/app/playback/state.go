// Package playback runs the event loop that keeps the audio engine fed.
package playback

// State represents the playback state reported by the engine.
type State int

const (
	StateIdle    State = iota // Nothing started yet
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
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
	default:
		return "unknown"
	}
}
