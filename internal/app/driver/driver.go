// Package driver defines the messages exchanged with the audio playback engine.
package driver

import "fmt"

// Command is sent to the playback engine.
type Command interface {
	command()
}

// EnqueueAudio appends a stream URL to the engine's playlist and starts
// playback when idle.
type EnqueueAudio struct {
	URL string
}

// PlayNext skips to the next playlist item.
type PlayNext struct{}

// PlayPrevious returns to the previous playlist item.
type PlayPrevious struct{}

// TogglePause flips the pause state.
type TogglePause struct{}

// SetVolume sets the output volume (0-100).
type SetVolume struct {
	Level int
}

// RemoveQueuedItem removes the playlist item at Index.
type RemoveQueuedItem struct {
	Index int
}

// Shutdown stops the engine.
type Shutdown struct{}

func (EnqueueAudio) command()     {}
func (PlayNext) command()         {}
func (PlayPrevious) command()     {}
func (TogglePause) command()      {}
func (SetVolume) command()        {}
func (RemoveQueuedItem) command() {}
func (Shutdown) command()         {}

// EndReason tells why a track stopped.
type EndReason int

const (
	EndEOF   EndReason = iota // Reached the end of the stream
	EndStop                   // Stopped by a playlist change
	EndQuit                   // Engine is quitting
	EndError                  // Playback failed
)

// String returns the string representation of the reason.
func (r EndReason) String() string {
	switch r {
	case EndEOF:
		return "eof"
	case EndStop:
		return "stop"
	case EndQuit:
		return "quit"
	case EndError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is emitted by the playback engine.
type Notification interface {
	notification()
}

// TrackStarted reports that the next playlist item began loading.
type TrackStarted struct{}

// TrackEnded reports that the current item stopped.
type TrackEnded struct {
	Reason EndReason
}

// PlaybackReady reports that audio output (re)started, a good moment to
// prepare the following item.
type PlaybackReady struct{}

// PauseStateChanged reports a pause state change.
type PauseStateChanged struct {
	Paused bool
}

// LoadFailed reports that an item could not be opened.
type LoadFailed struct {
	Err error
}

// DriverShutdown reports that the engine stopped.
type DriverShutdown struct{}

func (TrackStarted) notification()      {}
func (TrackEnded) notification()        {}
func (PlaybackReady) notification()     {}
func (PauseStateChanged) notification() {}
func (LoadFailed) notification()        {}
func (DriverShutdown) notification()    {}

// Describe returns a short log form of a command.
func Describe(c Command) string {
	switch c := c.(type) {
	case EnqueueAudio:
		return "enqueue_audio"
	case PlayNext:
		return "play_next"
	case PlayPrevious:
		return "play_previous"
	case TogglePause:
		return "toggle_pause"
	case SetVolume:
		return fmt.Sprintf("set_volume(%d)", c.Level)
	case RemoveQueuedItem:
		return fmt.Sprintf("remove_queued_item(%d)", c.Index)
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
