package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/relaytune/internal/app/presentation"
)

const tickInterval = time.Second

// commandMsg wraps a [presentation.Command] received from the orchestrator.
type commandMsg struct {
	cmd presentation.Command
}

// commandsClosedMsg reports that the orchestrator's mailbox closed.
type commandsClosedMsg struct{}

type tickMsg time.Time

// listen waits for the next presentation command.
func listen(commands <-chan presentation.Command) tea.Cmd {
	return func() tea.Msg {
		cmd, ok := <-commands
		if !ok {
			return commandsClosedMsg{}
		}
		return commandMsg{cmd: cmd}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
