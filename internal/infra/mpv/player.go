// Package mpv implements the playback driver on top of libmpv.
package mpv

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/wildeyedskies/go-mpv/mpv"

	"github.com/osa030/relaytune/internal/app/driver"
	"github.com/osa030/relaytune/internal/infra/mailbox"
)

const (
	pauseObserverID  = 1
	eventWaitSeconds = 0.5
)

var defaultOptions = map[string]string{
	"video":             "no",
	"audio-display":     "no",
	"terminal":          "no",
	"ytdl":              "no",
	"idle":              "yes",
	"prefetch-playlist": "yes",
}

// Config holds player configuration.
type Config struct {
	Options map[string]string // Extra mpv options applied before initialisation
}

// Player drives a libmpv instance.
type Player struct {
	m             *mpv.Mpv
	notifications *mailbox.Mailbox[driver.Notification]

	loaded   bool // owned by the event loop
	skipping atomic.Bool
}

// New creates and initialises an mpv instance.
func New(cfg Config) (*Player, error) {
	m := mpv.Create()
	for name, value := range defaultOptions {
		if err := m.SetOptionString(name, value); err != nil {
			m.TerminateDestroy()
			return nil, errors.Wrapf(err, "failed to set mpv option: name=%s", name)
		}
	}
	for name, value := range cfg.Options {
		if err := m.SetOptionString(name, value); err != nil {
			m.TerminateDestroy()
			return nil, errors.Wrapf(err, "failed to set mpv option: name=%s", name)
		}
	}
	if err := m.Initialize(); err != nil {
		m.TerminateDestroy()
		return nil, errors.Wrap(err, "failed to initialize mpv")
	}
	if err := m.ObserveProperty(pauseObserverID, "pause", mpv.FORMAT_FLAG); err != nil {
		m.TerminateDestroy()
		return nil, errors.Wrap(err, "failed to observe pause property")
	}

	return &Player{
		m:             m,
		notifications: mailbox.New[driver.Notification](),
	}, nil
}

// Notifications returns the engine notification channel.
func (p *Player) Notifications() <-chan driver.Notification {
	return p.notifications.C()
}

// Run executes commands and forwards engine events until Shutdown or ctx
// cancellation. The mpv instance is destroyed on return.
func (p *Player) Run(ctx context.Context, commands <-chan driver.Command) error {
	events := make(chan struct{})
	go func() {
		defer close(events)
		p.eventLoop()
	}()

	defer func() {
		<-events
		p.m.TerminateDestroy()
		p.notifications.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			p.quit()
			return nil
		case cmd, ok := <-commands:
			if !ok {
				p.quit()
				return nil
			}
			if _, done := cmd.(driver.Shutdown); done {
				p.quit()
				return nil
			}
			if err := p.execute(cmd); err != nil {
				// A failed command never stops playback already queued.
				zlog.Warn().Msgf("mpv command failed: command=%s, error=%v", driver.Describe(cmd), err)
			}
		}
	}
}

func (p *Player) execute(cmd driver.Command) error {
	if _, ok := cmd.(driver.PlayNext); ok {
		p.skipping.Store(true)
	}
	args, ok := commandArgs(cmd)
	if !ok {
		return errors.Newf("unsupported command: %T", cmd)
	}
	zlog.Debug().Msgf("mpv command: command=%s", driver.Describe(cmd))
	return p.m.Command(args)
}

func (p *Player) quit() {
	if err := p.m.Command([]string{"quit"}); err != nil {
		zlog.Warn().Msgf("failed to quit mpv: error=%v", err)
	}
}

func (p *Player) eventLoop() {
	for {
		ev := p.m.WaitEvent(eventWaitSeconds)
		if ev == nil {
			continue
		}
		switch ev.Event_Id {
		case mpv.EVENT_NONE:
			continue
		case mpv.EVENT_START_FILE:
			p.loaded = false
			p.notifications.Send(driver.TrackStarted{})
		case mpv.EVENT_FILE_LOADED:
			p.loaded = true
		case mpv.EVENT_PLAYBACK_RESTART:
			p.notifications.Send(driver.PlaybackReady{})
		case mpv.EVENT_END_FILE:
			p.notifications.Send(p.endFile(ev.Error))
		case mpv.EVENT_PROPERTY_CHANGE:
			if ev.Reply_Userdata == pauseObserverID {
				p.pauseChanged()
			}
		case mpv.EVENT_SHUTDOWN:
			p.notifications.Send(driver.DriverShutdown{})
			return
		}
	}
}

// endFile classifies an end-of-file event. A file that ends before it
// loaded failed to open, unless a skip stopped it.
func (p *Player) endFile(evErr error) driver.Notification {
	skipping := p.skipping.Swap(false)

	switch {
	case evErr != nil:
		return driver.LoadFailed{Err: evErr}
	case !p.loaded && !skipping:
		return driver.LoadFailed{Err: errors.New("stream ended before loading")}
	case skipping:
		return driver.TrackEnded{Reason: driver.EndStop}
	default:
		return driver.TrackEnded{Reason: driver.EndEOF}
	}
}

func (p *Player) pauseChanged() {
	v, err := p.m.GetProperty("pause", mpv.FORMAT_FLAG)
	if err != nil {
		zlog.Warn().Msgf("failed to read pause property: error=%v", err)
		return
	}
	if paused, ok := v.(bool); ok {
		p.notifications.Send(driver.PauseStateChanged{Paused: paused})
	}
}

func commandArgs(cmd driver.Command) ([]string, bool) {
	switch c := cmd.(type) {
	case driver.EnqueueAudio:
		return []string{"loadfile", c.URL, "append-play"}, true
	case driver.PlayNext:
		return []string{"playlist-next", "force"}, true
	case driver.PlayPrevious:
		return []string{"playlist-prev", "weak"}, true
	case driver.TogglePause:
		return []string{"cycle", "pause"}, true
	case driver.SetVolume:
		return []string{"set", "volume", strconv.Itoa(c.Level)}, true
	case driver.RemoveQueuedItem:
		return []string{"playlist-remove", strconv.Itoa(c.Index)}, true
	case driver.Shutdown:
		return []string{"quit"}, true
	default:
		return nil, false
	}
}
