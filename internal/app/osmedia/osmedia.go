// Package osmedia provides the operating system now-playing integration.
package osmedia

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrUnknownIntent = errors.New("unknown transport intent")
)

// Command is sent to the now-playing integration.
type Command interface {
	command()
}

// SetMetadataTitle publishes the current track title.
type SetMetadataTitle struct {
	Text string
}

// SetPlaybackStatus publishes the pause state.
type SetPlaybackStatus struct {
	Paused bool
}

// Shutdown stops the integration.
type Shutdown struct{}

func (SetMetadataTitle) command()  {}
func (SetPlaybackStatus) command() {}
func (Shutdown) command()          {}

// Intent is a transport control request coming from the OS.
type Intent int

const (
	IntentPlay Intent = iota
	IntentPause
	IntentToggle
	IntentNext
	IntentPrevious
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentPlay:
		return "play"
	case IntentPause:
		return "pause"
	case IntentToggle:
		return "toggle"
	case IntentNext:
		return "next"
	case IntentPrevious:
		return "previous"
	default:
		return "unknown"
	}
}

// ParseIntent converts a control name into an intent.
func ParseIntent(name string) (Intent, error) {
	for _, i := range []Intent{IntentPlay, IntentPause, IntentToggle, IntentNext, IntentPrevious} {
		if i.String() == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownIntent, "name=%s", name)
}

// NowPlaying is the published playback metadata.
type NowPlaying struct {
	Title     string    `json:"title"`
	Paused    bool      `json:"paused"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service records published metadata and forwards transport intents.
type Service struct {
	mu       sync.RWMutex
	state    NowPlaying
	onIntent func(Intent)
}

// NewService creates a service. onIntent receives every dispatched intent.
func NewService(onIntent func(Intent)) *Service {
	return &Service{
		state:    NowPlaying{Active: true},
		onIntent: onIntent,
	}
}

// Run applies commands until Shutdown, a closed channel or ctx cancellation.
func (s *Service) Run(ctx context.Context, commands <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			s.deactivate()
			return nil
		case cmd, ok := <-commands:
			if !ok {
				s.deactivate()
				return nil
			}
			if done := s.apply(cmd); done {
				zlog.Debug().Msg("now playing integration stopped")
				return nil
			}
		}
	}
}

func (s *Service) apply(cmd Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c := cmd.(type) {
	case SetMetadataTitle:
		s.state.Title = c.Text
	case SetPlaybackStatus:
		s.state.Paused = c.Paused
	case Shutdown:
		s.state.Active = false
		s.state.UpdatedAt = time.Now()
		return true
	}
	s.state.UpdatedAt = time.Now()
	return false
}

func (s *Service) deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Active = false
}

// NowPlaying returns a copy of the published metadata.
func (s *Service) NowPlaying() NowPlaying {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch forwards a transport intent while the service is active.
func (s *Service) Dispatch(intent Intent) error {
	if intent < IntentPlay || intent > IntentPrevious {
		return errors.Wrapf(ErrUnknownIntent, "intent=%d", intent)
	}
	if !s.NowPlaying().Active {
		return errors.New("now playing integration is not active")
	}
	zlog.Debug().Msgf("transport intent: intent=%s", intent)
	if s.onIntent != nil {
		s.onIntent(intent)
	}
	return nil
}
