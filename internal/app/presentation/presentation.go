// Package presentation defines the messages sent to the user-facing display.
package presentation

// ViewMode selects the visible screen.
type ViewMode int

const (
	ViewPlayer  ViewMode = iota // Now playing with progress
	ViewHistory                 // Tracks started during the run
	ViewHelp                    // Key bindings
)

// String returns the string representation of the view mode.
func (m ViewMode) String() string {
	switch m {
	case ViewPlayer:
		return "player"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Command is sent to the presentation layer.
type Command interface {
	command()
}

// SetNowPlayingText replaces the now playing text and restarts the
// progress display.
type SetNowPlayingText struct {
	Text string
}

// SetDuration sets the length of the current track.
type SetDuration struct {
	Seconds int64
}

// SetViewMode switches the visible screen.
type SetViewMode struct {
	Mode ViewMode
}

// SetVolumeDisplay updates the shown volume.
type SetVolumeDisplay struct {
	Level int
}

// SetPaused updates the shown pause state.
type SetPaused struct {
	Paused bool
}

// SetStatus shows a transient status line.
type SetStatus struct {
	Text string
}

// Quit closes the presentation layer.
type Quit struct{}

func (SetNowPlayingText) command() {}
func (SetDuration) command()       {}
func (SetViewMode) command()       {}
func (SetVolumeDisplay) command()  {}
func (SetPaused) command()         {}
func (SetStatus) command()         {}
func (Quit) command()              {}
