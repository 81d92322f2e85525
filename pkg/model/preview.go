package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/byxorna/orderpane/pkg/ui"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"gopkg.in/yaml.v3"
)

const statusBarHeight = 1

var (
	statusBarNoteFg = lipgloss.AdaptiveColor{Dark: "#7D7D7D", Light: "#656565"}
	statusBarBg     = lipgloss.AdaptiveColor{Dark: "#242424", Light: "#E6E6E6"}

	statusBarScrollPosStyle = ui.NewStyle(lipgloss.AdaptiveColor{Dark: "#5A5A5A", Light: "#949494"}, statusBarBg, false)
	statusBarNoteStyle      = ui.NewStyle(statusBarNoteFg, statusBarBg, false)
	statusBarHelpStyle      = ui.NewStyle(statusBarNoteFg, lipgloss.AdaptiveColor{Dark: "#323232", Light: "#DCDCDC"}, false)
	statusBarLogoStyle      = ui.NewStyle(ui.Cream, ui.Green, true)
)

type previewRenderedMsg string

// previewModel shows one record rendered as markdown.
type previewModel struct {
	viewport viewport.Model
	style    string
	title    string
}

func newPreviewModel(style string) previewModel {
	return previewModel{
		viewport: viewport.New(0, 0),
		style:    style,
	}
}

func (p *previewModel) setSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = max(0, h-statusBarHeight)
}

func (p *previewModel) setContent(s string) {
	p.viewport.SetContent(s)
	p.viewport.GotoTop()
}

func (p *previewModel) handleKey(msg tea.KeyMsg, m *Model) tea.Cmd {
	switch msg.String() {
	case "q", "esc", "p":
		m.state = stateBrowse
		return nil
	case "e", "enter":
		m.state = stateBrowse
		return m.openEditor()
	case "home", "g":
		p.viewport.GotoTop()
		return nil
	case "end", "G":
		p.viewport.GotoBottom()
		return nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

func (p *previewModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

func (p previewModel) View() string {
	var b strings.Builder
	fmt.Fprint(&b, p.viewport.View()+"\n")
	p.statusBarView(&b)
	return b.String()
}

func (p previewModel) statusBarView(b *strings.Builder) {
	percent := math.Max(0, math.Min(1, p.viewport.ScrollPercent()))
	scrollPercent := statusBarScrollPosStyle(fmt.Sprintf(" %3.f%% ", percent*100))
	helpNote := statusBarHelpStyle(" esc back · e edit ")
	logo := statusBarLogoStyle(" preview ")

	note := truncate.StringWithTail(" "+p.title+" ", uint(max(0,
		p.viewport.Width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)), "…")
	note = statusBarNoteStyle(note)

	padding := max(0,
		p.viewport.Width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		statusBarNoteStyle(strings.Repeat(" ", padding)),
		scrollPercent,
		helpNote,
	)
}

// renderPreview renders the selected record off the event loop.
func (m *Model) renderPreview() tea.Cmd {
	r, ok := m.selectedRecord()
	if !ok {
		return nil
	}
	label := m.ctrl.Label(r)
	m.preview.title = label

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", label)
	fmt.Fprintf(&md, "| | |\n|---|---|\n")
	fmt.Fprintf(&md, "| id | `%s` |\n", r.ID)
	rank := r.Rank
	if rank == "" {
		rank = "unranked"
	}
	fmt.Fprintf(&md, "| rank | `%s` |\n", rank)
	status := "published"
	if r.IsDraft() {
		status = "draft"
		if r.HasPublished {
			status = "draft of a published document"
		}
	}
	fmt.Fprintf(&md, "| status | %s |\n", status)
	fmt.Fprintf(&md, "| position | %d of %d |\n", m.cursor()+1, len(m.ctrl.Visible()))
	fmt.Fprintf(&md, "| editor | `%s` |\n", m.ctrl.EditPath(r))
	if img := m.ctrl.ImageURL(r); img != "" {
		fmt.Fprintf(&md, "| image | %s |\n", img)
	}
	if len(r.Fields) > 0 {
		fields, err := yaml.Marshal(r.Fields)
		if err != nil {
			return func() tea.Msg { return errMsg{err} }
		}
		fmt.Fprintf(&md, "\n## Fields\n\n```yaml\n%s```\n", fields)
	}

	width := m.width
	style := m.preview.style
	content := md.String()
	return func() tea.Msg {
		out, err := glamourRender(content, style, width)
		if err != nil {
			return errMsg{err}
		}
		return previewRenderedMsg(out)
	}
}

func glamourRender(markdown, style string, width int) (string, error) {
	gs := glamour.WithAutoStyle()
	if style != "" {
		gs = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(gs, glamour.WithWordWrap(max(0, width-2)))
	if err != nil {
		return "", err
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", err
	}

	// trim lines
	lines := strings.Split(out, "\n")
	for i, s := range lines {
		lines[i] = strings.TrimRight(s, " ")
	}
	return strings.Join(lines, "\n"), nil
}
