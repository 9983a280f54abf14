package ui

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/relaytune/internal/app/presentation"
)

// Headless is the presentation layer for runs without a terminal. It logs
// what the terminal UI would show.
type Headless struct{}

// NewHeadless creates a headless presenter.
func NewHeadless() *Headless {
	return &Headless{}
}

// Run consumes commands until Quit, a closed channel or ctx cancellation.
func (h *Headless) Run(ctx context.Context, commands <-chan presentation.Command) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			if done := h.apply(cmd); done {
				return nil
			}
		}
	}
}

func (h *Headless) apply(cmd presentation.Command) bool {
	switch c := cmd.(type) {
	case presentation.SetNowPlayingText:
		zlog.Info().Msgf("Now playing: %s", strings.ReplaceAll(c.Text, "\n", " | "))
	case presentation.SetDuration:
		zlog.Debug().Msgf("duration: seconds=%d", c.Seconds)
	case presentation.SetVolumeDisplay:
		zlog.Info().Msgf("Volume: %d", c.Level)
	case presentation.SetPaused:
		zlog.Info().Msgf("Paused: %t", c.Paused)
	case presentation.SetStatus:
		zlog.Warn().Msg(c.Text)
	case presentation.SetViewMode:
		zlog.Debug().Msgf("view mode ignored: mode=%s", c.Mode)
	case presentation.Quit:
		return true
	}
	return false
}
