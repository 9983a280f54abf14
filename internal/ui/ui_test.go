package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/relaytune/internal/app/playback"
	"github.com/osa030/relaytune/internal/app/presentation"
)

type signalRecorder struct {
	mu      sync.Mutex
	signals []playback.Signal
}

func (r *signalRecorder) Send(s playback.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_KeysSendSignals(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want playback.Signal
	}{
		{"quit", runes("q"), playback.Quit{}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, playback.Quit{}},
		{"player", runes("1"), playback.SwitchView{Mode: presentation.ViewPlayer}},
		{"history", runes("2"), playback.SwitchView{Mode: presentation.ViewHistory}},
		{"help", runes("3"), playback.SwitchView{Mode: presentation.ViewHelp}},
		{"help alias", runes("?"), playback.SwitchView{Mode: presentation.ViewHelp}},
		{"pause", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, playback.TogglePause{}},
		{"volume -10", runes("["), playback.ChangeVolume{Delta: -10}},
		{"volume +10", runes("]"), playback.ChangeVolume{Delta: 10}},
		{"volume -1", runes("{"), playback.ChangeVolume{Delta: -1}},
		{"volume +1", runes("}"), playback.ChangeVolume{Delta: 1}},
		{"next", runes("b"), playback.Skip{}},
		{"previous", runes("z"), playback.PlayPrevious{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &signalRecorder{}
			m := NewModel(make(chan presentation.Command), rec)

			_, cmd := m.Update(tt.key)
			assert.Nil(t, cmd)
			require.Len(t, rec.signals, 1)
			assert.Equal(t, tt.want, rec.signals[0])
		})
	}
}

func TestModel_UnboundKeyIgnored(t *testing.T) {
	rec := &signalRecorder{}
	m := NewModel(make(chan presentation.Command), rec)
	m.Update(runes("x"))
	assert.Empty(t, rec.signals)
}

func TestModel_AppliesCommands(t *testing.T) {
	m := NewModel(make(chan presentation.Command), &signalRecorder{})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, cmd := m.Update(commandMsg{cmd: presentation.SetNowPlayingText{Text: "Song A\nabc"}})
	assert.NotNil(t, cmd)
	m.Update(commandMsg{cmd: presentation.SetDuration{Seconds: 200}})
	m.Update(commandMsg{cmd: presentation.SetVolumeDisplay{Level: 70}})

	now = now.Add(100 * time.Second)
	m.Update(tickMsg(now))
	assert.Equal(t, 100*time.Second, m.elapsed)

	view := m.View()
	assert.Contains(t, view, "Song A")
	assert.Contains(t, view, "01:40 / 03:20")
	assert.Contains(t, view, "volume 70")

	m.Update(commandMsg{cmd: presentation.SetPaused{Paused: true}})
	now = now.Add(time.Minute)
	m.Update(tickMsg(now))
	assert.Equal(t, 100*time.Second, m.elapsed)
	assert.Contains(t, m.View(), "paused")

	m.Update(commandMsg{cmd: presentation.SetNowPlayingText{Text: "Song B\ndef"}})
	m.Update(commandMsg{cmd: presentation.SetViewMode{Mode: presentation.ViewHistory}})
	history := m.history
	require.Len(t, history, 2)
	assert.Equal(t, "Song A", history[0].Text)
	assert.NotEqual(t, history[0].ID, history[1].ID)
	assert.Contains(t, m.View(), "Song B")

	m.Update(commandMsg{cmd: presentation.SetStatus{Text: "no next track"}})
	assert.Contains(t, m.View(), "no next track")
}

func TestModel_QuitCommand(t *testing.T) {
	m := NewModel(make(chan presentation.Command), &signalRecorder{})
	_, cmd := m.Update(commandMsg{cmd: presentation.Quit{}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestListen(t *testing.T) {
	commands := make(chan presentation.Command, 1)
	commands <- presentation.SetStatus{Text: "hi"}
	assert.Equal(t, commandMsg{cmd: presentation.SetStatus{Text: "hi"}}, listen(commands)())

	close(commands)
	assert.Equal(t, commandsClosedMsg{}, listen(commands)())
}

func TestHeadless_Run(t *testing.T) {
	commands := make(chan presentation.Command, 4)
	commands <- presentation.SetNowPlayingText{Text: "Song\nid"}
	commands <- presentation.SetStatus{Text: "status"}
	commands <- presentation.Quit{}
	commands <- presentation.SetStatus{Text: "after quit"}

	require.NoError(t, NewHeadless().Run(context.Background(), commands))
	assert.Len(t, commands, 1)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "00:00", formatClock(0))
	assert.Equal(t, "10:05", formatClock(605*time.Second))
	assert.Equal(t, "Song", firstLine("Song\nid"))
	assert.Contains(t, progressBar(0, 0, 4), "░░░░")
}
