package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Headset key.Binding
	Power   key.Binding
	Battery key.Binding
	Custom  key.Binding
	Log     key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Headset: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle headset"),
		),
		Power: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle power"),
		),
		Battery: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "drain battery"),
		),
		Custom: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "custom event"),
		),
		Log: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "event log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Headset, k.Power, k.Battery, k.Custom, k.Log, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Headset, k.Power, k.Battery, k.Custom},
		{k.Log, k.Help, k.Quit},
	}
}
