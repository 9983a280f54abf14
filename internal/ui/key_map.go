package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	quit      key.Binding
	player    key.Binding
	history   key.Binding
	help      key.Binding
	pause     key.Binding
	volDown10 key.Binding
	volUp10   key.Binding
	volDown1  key.Binding
	volUp1    key.Binding
	next      key.Binding
	previous  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		player:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "player")),
		history:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "history")),
		help:      key.NewBinding(key.WithKeys("3", "?"), key.WithHelp("3/?", "help")),
		pause:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause")),
		volDown10: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "volume -10")),
		volUp10:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "volume +10")),
		volDown1:  key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "volume -1")),
		volUp1:    key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "volume +1")),
		next:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "next")),
		previous:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "previous")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.pause, k.next, k.previous, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.player, k.history, k.help},
		{k.pause, k.next, k.previous},
		{k.volDown10, k.volUp10, k.volDown1, k.volUp1},
		{k.quit},
	}
}
