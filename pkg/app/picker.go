// Package app is the pane picker shown when more than one pane is configured
// and none was named.
package app

import (
	"fmt"
	"strings"

	"github.com/byxorna/orderpane/pkg/config"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type paneItem struct {
	config.Pane
}

func (i paneItem) Title() string { return i.Pane.Title }

func (i paneItem) Description() string {
	parts := []string{i.Type}
	if len(i.SearchFields) > 0 {
		parts = append(parts, "search "+strings.Join(i.SearchFields, ", "))
	}
	return strings.Join(parts, " · ")
}

func (i paneItem) FilterValue() string { return i.Pane.Title + " " + i.Type }

type Picker struct {
	list   list.Model
	keys   pickerKeyMap
	chosen *config.Pane
}

func NewPicker(panes []config.Pane) *Picker {
	keys := defaultKeyMap()
	items := make([]list.Item, len(panes))
	for i := range panes {
		items[i] = paneItem{panes[i]}
	}

	l := list.New(items, newPaneDelegate(keys), 0, 0)
	l.Title = "Orderable panes"
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()

	return &Picker{list: l, keys: keys}
}

// Chosen is the pane picked with enter. It is false when the user quit.
func (p *Picker) Chosen() (config.Pane, bool) {
	if p.chosen == nil {
		return config.Pane{}, false
	}
	return *p.chosen, true
}

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		topGap, rightGap, bottomGap, leftGap := appStyle.GetPadding()
		p.list.SetSize(msg.Width-leftGap-rightGap, msg.Height-topGap-bottomGap)

	case tea.KeyMsg:
		// Don't match any of the keys below if we're actively filtering.
		if p.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, p.keys.Choose):
			item, ok := p.list.SelectedItem().(paneItem)
			if !ok {
				return p, nil
			}
			pane := item.Pane
			p.chosen = &pane
			return p, tea.Quit

		case key.Matches(msg, p.keys.Quit):
			if p.list.FilterState() == list.FilterApplied && msg.String() == "esc" {
				p.list.ResetFilter()
				return p, nil
			}
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p *Picker) View() string {
	if p.chosen != nil {
		return fmt.Sprintf("Opening %s…\n", p.chosen.Title)
	}
	return appStyle.Render(p.list.View())
}
