package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// pickerKeyMap are the bindings the picker handles before the list sees a
// key.
type pickerKeyMap struct {
	Choose key.Binding
	Quit   key.Binding
}

func defaultKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open pane"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
