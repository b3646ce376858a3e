package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle      key.Binding
	Reset       key.Binding
	Save        key.Binding
	NextSubject key.Binding
	PrevSubject key.Binding
	NextTopic   key.Binding
	PrevTopic   key.Binding
	AddTask     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
		Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Save:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		NextSubject: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next subject")),
		PrevSubject: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev subject")),
		NextTopic:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next topic")),
		PrevTopic:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev topic")),
		AddTask:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "add task for today")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Save, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Save, k.Reset},
		{k.NextSubject, k.PrevSubject, k.NextTopic, k.PrevTopic},
		{k.AddTask, k.Help, k.Quit},
	}
}
