// Package ui renders the player in the terminal and turns key presses into
// playback signals.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/relaytune/internal/app/playback"
	"github.com/osa030/relaytune/internal/app/presentation"
	"github.com/osa030/relaytune/internal/infra/mailbox"
)

const (
	progressWidth = 40
	maxHistory    = 200
)

// HistoryEntry is a track started during the run.
type HistoryEntry struct {
	ID        string
	Text      string
	StartedAt time.Time
}

// Model represents the TUI application state.
type Model struct {
	signals  mailbox.Sender[playback.Signal]
	commands <-chan presentation.Command

	view     presentation.ViewMode
	text     string
	duration time.Duration
	started  time.Time
	elapsed  time.Duration
	paused   bool
	volume   int
	status   string
	history  []HistoryEntry
	width    int
	quitting bool

	help help.Model
	keys keyMap
	now  func() time.Time
}

// NewModel creates a model reading commands and sending signals.
func NewModel(commands <-chan presentation.Command, signals mailbox.Sender[playback.Signal]) *Model {
	h := help.New()
	h.ShowAll = true
	return &Model{
		signals:  signals,
		commands: commands,
		view:     presentation.ViewPlayer,
		help:     h,
		keys:     newKeyMap(),
		now:      time.Now,
	}
}

// Run starts the terminal program and blocks until it exits.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "failed to run terminal ui")
	}
	return nil
}

// Init starts listening for presentation commands.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(listen(m.commands), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case commandMsg:
		if done := m.apply(msg.cmd); done {
			m.quitting = true
			return m, tea.Quit
		}
		return m, listen(m.commands)

	case commandsClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case tickMsg:
		if !m.paused && !m.started.IsZero() {
			m.elapsed = min(m.now().Sub(m.started), m.durationOrMax())
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) durationOrMax() time.Duration {
	if m.duration <= 0 {
		return time.Duration(1<<63 - 1)
	}
	return m.duration
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.signals.Send(playback.Quit{})
	case key.Matches(msg, m.keys.player):
		m.signals.Send(playback.SwitchView{Mode: presentation.ViewPlayer})
	case key.Matches(msg, m.keys.history):
		m.signals.Send(playback.SwitchView{Mode: presentation.ViewHistory})
	case key.Matches(msg, m.keys.help):
		m.signals.Send(playback.SwitchView{Mode: presentation.ViewHelp})
	case key.Matches(msg, m.keys.pause):
		m.signals.Send(playback.TogglePause{})
	case key.Matches(msg, m.keys.volDown10):
		m.signals.Send(playback.ChangeVolume{Delta: -10})
	case key.Matches(msg, m.keys.volUp10):
		m.signals.Send(playback.ChangeVolume{Delta: 10})
	case key.Matches(msg, m.keys.volDown1):
		m.signals.Send(playback.ChangeVolume{Delta: -1})
	case key.Matches(msg, m.keys.volUp1):
		m.signals.Send(playback.ChangeVolume{Delta: 1})
	case key.Matches(msg, m.keys.next):
		m.signals.Send(playback.Skip{})
	case key.Matches(msg, m.keys.previous):
		m.signals.Send(playback.PlayPrevious{})
	}
	return nil
}

// apply updates the model from a presentation command. It reports whether
// the UI should exit.
func (m *Model) apply(cmd presentation.Command) bool {
	switch c := cmd.(type) {
	case presentation.SetNowPlayingText:
		m.text = c.Text
		m.started = m.now()
		m.elapsed = 0
		m.status = ""
		m.history = append(m.history, HistoryEntry{ID: uuid.NewString(), Text: firstLine(c.Text), StartedAt: m.started})
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	case presentation.SetDuration:
		m.duration = time.Duration(c.Seconds) * time.Second
	case presentation.SetViewMode:
		m.view = c.Mode
	case presentation.SetVolumeDisplay:
		m.volume = c.Level
	case presentation.SetPaused:
		if c.Paused && !m.paused {
			m.elapsed = m.now().Sub(m.started)
		}
		if !c.Paused && m.paused {
			m.started = m.now().Add(-m.elapsed)
		}
		m.paused = c.Paused
	case presentation.SetStatus:
		m.status = c.Text
	case presentation.Quit:
		return true
	}
	return false
}

// View renders the current screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.title.Render("relaytune"))
	b.WriteString("\n")

	switch m.view {
	case presentation.ViewHistory:
		b.WriteString(m.historyView())
	case presentation.ViewHelp:
		b.WriteString(m.help.View(m.keys))
	default:
		b.WriteString(m.playerView())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m *Model) playerView() string {
	if m.text == "" {
		return styles.help.Render("loading...")
	}
	state := styles.ok.Render("▶ playing")
	if m.paused {
		state = styles.warn.Render("❚❚ paused")
	}
	body := fmt.Sprintf("%s\n\n%s  %s / %s\n%s  volume %d",
		m.text,
		progressBar(m.elapsed, m.duration, progressWidth),
		formatClock(m.elapsed),
		formatClock(m.duration),
		state,
		m.volume,
	)
	return styles.frame.Render(body)
}

func (m *Model) historyView() string {
	if len(m.history) == 0 {
		return styles.help.Render("nothing played yet")
	}
	var b strings.Builder
	for i := len(m.history) - 1; i >= 0; i-- {
		h := m.history[i]
		fmt.Fprintf(&b, "%s  %s\n", h.StartedAt.Format(time.TimeOnly), h.Text)
	}
	return styles.frame.Render(strings.TrimRight(b.String(), "\n"))
}

func progressBar(elapsed, total time.Duration, width int) string {
	filled := 0
	if total > 0 {
		filled = int(float64(width) * float64(elapsed) / float64(total))
	}
	filled = max(0, min(width, filled))
	return styles.filled.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

func formatClock(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
