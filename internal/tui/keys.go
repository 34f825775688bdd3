package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the viewer key bindings.
type keyMap struct {
	ToggleSet  key.Binding
	ToggleMode key.Binding
	Prev       key.Binding
	Next       key.Binding
	Open       key.Binding
	Edit       key.Binding
	Apply      key.Binding
	Back       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleSet: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "train/test"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "one/all"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit code"),
		),
		Apply: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "apply"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleSet, k.ToggleMode, k.Prev, k.Next, k.Open, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleSet, k.ToggleMode, k.Prev, k.Next},
		{k.Open, k.Edit, k.Apply, k.Back},
		{k.Help, k.Quit},
	}
}
