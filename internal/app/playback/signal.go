package playback

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/relaytune/internal/app/driver"
	"github.com/osa030/relaytune/internal/app/osmedia"
	"github.com/osa030/relaytune/internal/app/presentation"
	"github.com/osa030/relaytune/internal/infra/mailbox"
)

// Signal is an input to the orchestrator's event loop.
type Signal interface {
	signal()
}

// TrackEnded reports that the engine finished or stopped the current track.
type TrackEnded struct {
	Reason driver.EndReason
}

// PrepareNextFile asks the orchestrator to keep one track ahead.
type PrepareNextFile struct{}

// PlayPrevious asks to return to the previous track.
type PlayPrevious struct{}

// BrokenURL reports that the engine could not open the last handed stream.
type BrokenURL struct{}

// Quit stops the event loop. A non-nil Err is returned from Run.
type Quit struct {
	Err error
}

// TrackStarted reports that the engine began the next track.
type TrackStarted struct{}

// PauseChanged reports the engine's pause state.
type PauseChanged struct {
	Paused bool
}

// Skip asks to play the next track now.
type Skip struct{}

// TogglePause flips the pause state.
type TogglePause struct{}

// SetPause requests an explicit pause state.
type SetPause struct {
	Paused bool
}

// ChangeVolume adjusts the volume by Delta.
type ChangeVolume struct {
	Delta int
}

// SwitchView changes the visible screen.
type SwitchView struct {
	Mode presentation.ViewMode
}

func (TrackEnded) signal()      {}
func (PrepareNextFile) signal() {}
func (PlayPrevious) signal()    {}
func (BrokenURL) signal()       {}
func (Quit) signal()            {}
func (TrackStarted) signal()    {}
func (PauseChanged) signal()    {}
func (Skip) signal()            {}
func (TogglePause) signal()     {}
func (SetPause) signal()        {}
func (ChangeVolume) signal()    {}
func (SwitchView) signal()      {}

// FromNotification maps an engine notification to a signal.
func FromNotification(n driver.Notification) (Signal, bool) {
	switch n := n.(type) {
	case driver.TrackStarted:
		return TrackStarted{}, true
	case driver.TrackEnded:
		return TrackEnded{Reason: n.Reason}, true
	case driver.PlaybackReady:
		return PrepareNextFile{}, true
	case driver.PauseStateChanged:
		return PauseChanged{Paused: n.Paused}, true
	case driver.LoadFailed:
		return BrokenURL{}, true
	case driver.DriverShutdown:
		return Quit{}, true
	default:
		return nil, false
	}
}

// FromIntent maps an OS transport intent to a signal.
func FromIntent(i osmedia.Intent) (Signal, bool) {
	switch i {
	case osmedia.IntentPlay:
		return SetPause{Paused: false}, true
	case osmedia.IntentPause:
		return SetPause{Paused: true}, true
	case osmedia.IntentToggle:
		return TogglePause{}, true
	case osmedia.IntentNext:
		return Skip{}, true
	case osmedia.IntentPrevious:
		return PlayPrevious{}, true
	default:
		return nil, false
	}
}

// BridgeDriver forwards engine notifications as signals until the engine
// shuts down, the channel closes or ctx is canceled.
func BridgeDriver(ctx context.Context, notifications <-chan driver.Notification, signals mailbox.Sender[Signal]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			if le, isLoad := n.(driver.LoadFailed); isLoad {
				zlog.Warn().Msgf("stream failed to load: error=%v", le.Err)
			}
			sig, ok := FromNotification(n)
			if !ok {
				continue
			}
			signals.Send(sig)
			if _, done := n.(driver.DriverShutdown); done {
				return nil
			}
		}
	}
}
