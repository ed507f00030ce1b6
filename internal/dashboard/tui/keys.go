package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Generate key.Binding
	Preview  key.Binding
	PDF      key.Binding
	Word     key.Binding
	Send     key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
		Preview:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "preview")),
		PDF:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pdf")),
		Word:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "word")),
		Send:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "send approval")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Generate, k.Preview, k.PDF, k.Word, k.Send, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},
		{k.Generate, k.Preview, k.PDF, k.Word, k.Send},
		{k.Quit},
	}
}
