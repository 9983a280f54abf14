// Package queue provides the play queue and the set of played track IDs.
package queue

// State represents the lifecycle of a queue entry.
type State int

const (
	StatePending  State = iota // No audio URL yet
	StateResolved              // Audio URL fetched, not yet sent to the driver
	StatePlaying               // Sent to the driver
	StateEnded                 // Finished, skipped or dropped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
