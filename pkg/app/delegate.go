// https://github.com/charmbracelet/bubbletea/blob/master/examples/list-fancy/delegate.go
package app

import (
	"github.com/byxorna/orderpane/pkg/ui"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

var appStyle = lipgloss.NewStyle().Padding(1, 2)

func newPaneDelegate(keys pickerKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(ui.Fuchsia).
		BorderForeground(ui.Fuchsia)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Dark: "#AD58B4", Light: "#F793FF"})

	help := []key.Binding{keys.Choose}

	d.ShortHelpFunc = func() []key.Binding {
		return help
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}

	return d
}
