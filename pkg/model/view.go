package model

import (
	"fmt"
	"strings"

	"github.com/byxorna/orderpane/pkg/drag"
	"github.com/byxorna/orderpane/pkg/pane"
	"github.com/byxorna/orderpane/pkg/text"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/byxorna/orderpane/pkg/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Layout, in terminal lines. Every row is an insertion line followed by the
// two lines of the entry itself.
const (
	listTop           = 5 // blank, logo, blank, header, blank
	listBottomPadding = 2 // trailing insertion line, blank
	rowStride         = 3
	rowHeight         = 2
	horizontalPadding = 6
)

var (
	dividerDot = ui.DarkGrayFg(" • ")
	dividerBar = ui.DarkGrayFg(" │ ")

	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.Cream).
			Background(lipgloss.Color(ui.MagentaHex)).
			Padding(0, 1)
)

func (m *Model) helpView() string {
	return m.help.View(m.keys)
}

func (m *Model) perPage() int {
	helpHeight := strings.Count(m.helpView(), "\n") + 1
	lines := m.height - listTop - listBottomPadding - helpHeight
	return max(1, lines/rowStride)
}

// band is the autoscroll geometry of the list viewport.
func (m *Model) band() drag.Band {
	a := m.opts.Autoscroll
	return drag.Band{
		Top:      listTop,
		Height:   m.perPage() * rowStride,
		Edge:     a.EdgeRows * rowStride,
		MinSpeed: a.MinSpeed,
		MaxSpeed: a.MaxSpeed,
	}
}

// hit finds the row at terminal line y and the line its entry starts on.
// The space below the last row counts as the lower half of that row.
func (m *Model) hit(y int) (v1.Record, int, bool) {
	visible := m.ctrl.Visible()
	rel := y - listTop
	if len(visible) == 0 || rel < 0 || rel >= m.perPage()*rowStride+1 {
		return v1.Record{}, 0, false
	}
	i := m.offset + rel/rowStride
	if i >= len(visible) {
		return visible[len(visible)-1], y - rowHeight, true
	}
	top := listTop + (i-m.offset)*rowStride + 1
	return visible[i], top, true
}

func (m *Model) View() string {
	if m.state == statePreview {
		return m.preview.View()
	}

	indicator := " "
	switch m.ctrl.State() {
	case pane.Loading, pane.Updating:
		indicator = m.spinner.View()
	}

	// Rules for the logo, filter and status message.
	logoOrFilter := " "
	if m.state == stateFiltering {
		logoOrFilter += m.filterInput.View()
	} else {
		logoOrFilter += logoStyle.Render("orderpane")
		if m.showStatusMessage {
			logoOrFilter += "  " + m.statusMessage.String()
		}
	}
	logoOrFilter = text.TruncateWithTail(logoOrFilter, uint(max(0, m.width-2)), text.Ellipsis)

	return fmt.Sprintf("\n%s%s\n\n  %s\n\n%s\n\n%s",
		indicator,
		logoOrFilter,
		m.headerView(),
		m.listView(),
		m.helpView(),
	)
}

func (m *Model) headerView() string {
	c := m.ctrl
	cfg := c.Config()
	total := len(c.Records())

	switch {
	case c.State() == pane.LoadError:
		return ui.RedFg(text.EmojiFailure+" "+c.Err().Error()) + ui.GrayFg(" (r to retry)")
	case c.State() == pane.Loading && total == 0:
		return ui.GrayFg("Loading " + strings.ToLower(cfg.Title) + "…")
	case total == 0:
		return ui.GrayFg("No documents found.")
	}

	if c.Filtering() {
		n := len(c.Visible())
		if n == 0 {
			return ui.GrayFg("Nothing found.") + dividerDot + ui.YellowFg("search active: reordering disabled")
		}
		return ui.GrayFg(fmt.Sprintf("%d of %d “%s”", n, total, strings.TrimSpace(c.Filter()))) +
			dividerDot + ui.YellowFg("search active: reordering disabled")
	}

	sections := []string{
		ui.SelectedTabColor(cfg.Title),
		ui.GrayFg(humanize.Comma(int64(total)) + " documents"),
	}
	if c.State() == pane.Updating {
		sections = append(sections, ui.YellowFg(text.EmojiUpdating+" saving order"))
	} else {
		sections = append(sections, ui.GrayFg("synced "+text.RelativeTime(c.LastSync())))
	}
	if m.surface.Dragging() {
		sections = append(sections, ui.DullYellowFg("moving "+m.surface.Dragged()))
	}
	return strings.Join(sections[:2], dividerBar) + dividerDot + strings.Join(sections[2:], dividerDot)
}

func (m *Model) listView() string {
	visible := m.ctrl.Visible()
	per := m.perPage()
	slot, hasSlot := m.insertionSlot(visible)

	lines := make([]string, 0, per*rowStride+1)
	for i := m.offset; i < m.offset+per; i++ {
		lines = append(lines, m.insertionLine(hasSlot && slot == i))
		if i < len(visible) {
			title, meta := m.rowView(i, visible[i])
			lines = append(lines, title, meta)
		} else {
			lines = append(lines, "", "")
		}
	}
	// below the last row of a full page
	lines = append(lines, m.insertionLine(hasSlot && slot == m.offset+per))
	return strings.Join(lines, "\n")
}

// insertionSlot is the index the dragged row would be inserted before.
func (m *Model) insertionSlot(visible []v1.Record) (int, bool) {
	t, ok := m.surface.Target()
	if !ok || !m.surface.Dragging() {
		return 0, false
	}
	for i, r := range visible {
		if r.ID == t.ID {
			if t.Side == drag.After {
				return i + 1, true
			}
			return i, true
		}
	}
	return 0, false
}

func (m *Model) insertionLine(show bool) string {
	if !show {
		return ""
	}
	a := m.opts.Autoscroll
	ramp := text.Ramp(ui.FuchsiaHex, ui.MagentaHex, max(2, a.MaxSpeed+1))
	speed := min(len(ramp)-1, abs(m.scroller.Speed()))
	width := max(1, m.width-horizontalPadding)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ramp[speed]))
	return "  " + style.Render("▶"+strings.Repeat("─", width))
}

func (m *Model) rowView(index int, r v1.Record) (string, string) {
	var (
		truncateTo = uint(max(0, m.width-horizontalPadding))
		label      = text.TruncateWithTail(m.ctrl.Label(r), truncateTo, text.Ellipsis)
		meta       = m.metaView(index, r)
		gutter     = " "
		handle     = "≡"
	)
	if !m.ctrl.CanReorder() {
		handle = "·"
	}

	isSelected := r.ID == m.selected
	isDragged := m.surface.Dragging() && r.ID == m.surface.Dragged()

	switch {
	case isDragged:
		gutter = ui.DullYellowFg("┃")
		handle = ui.YellowFg(handle)
		label = ui.YellowFg(label)
		meta = ui.DullYellowFg(meta)
	case isSelected:
		gutter = ui.RowSecondaryFocused("│")
		handle = ui.RowSecondaryFocused(handle)
		label = text.Highlight(label, m.ctrl.Filter(), ui.TermStyle(ui.Fuchsia))
		meta = ui.RowSecondaryFocused(meta)
	default:
		handle = ui.DimBrightGrayFg(handle)
		label = text.Highlight(label, m.ctrl.Filter(), ui.TermStyle(lipgloss.AdaptiveColor{Dark: "#dddddd", Light: "#1a1a1a"}))
		meta = ui.RowSecondaryUnfocused(meta)
	}

	title := fmt.Sprintf("%s %s %s", gutter, handle, label)
	second := fmt.Sprintf("%s   %s", gutter, meta)
	return title, text.TruncateWithTail(second, uint(max(0, m.width-2)), text.Ellipsis)
}

func (m *Model) metaView(index int, r v1.Record) string {
	rank := r.Rank
	if rank == "" {
		rank = "unranked"
	}
	parts := []string{fmt.Sprintf("#%d", index+1), rank, r.BaseID()}
	switch {
	case r.IsDraft() && r.HasPublished:
		parts = append(parts, "draft of published")
	case r.IsDraft():
		parts = append(parts, "draft")
	default:
		parts = append(parts, "published")
	}
	return strings.Join(parts, " · ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
