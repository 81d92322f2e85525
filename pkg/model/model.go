// Package model is the bubbletea program for one orderable pane: a list that
// can be reordered with the keyboard or by dragging rows with the mouse.
package model

import (
	"context"
	"time"

	"github.com/byxorna/orderpane/pkg/config"
	"github.com/byxorna/orderpane/pkg/drag"
	"github.com/byxorna/orderpane/pkg/nav"
	"github.com/byxorna/orderpane/pkg/pane"
	"github.com/byxorna/orderpane/pkg/text"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/byxorna/orderpane/pkg/ui"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	statusMessageTimeout = time.Second * 3
	filterCharacterLimit = 128
	defaultFrameInterval = 60 * time.Millisecond
)

// state is the top-level application state.
type state int

const (
	stateBrowse state = iota
	stateFiltering
	statePreview
)

func (s state) String() string {
	return map[state]string{
		stateBrowse:    "browsing",
		stateFiltering: "editing filter",
		statePreview:   "showing preview",
	}[s]
}

type Options struct {
	Autoscroll config.AutoscrollConfig
	// Changes triggers a refresh whenever the backend reports an external
	// change
	Changes <-chan struct{}
	// GlamourStyle is a glamour standard style name. Empty picks one based
	// on the terminal background.
	GlamourStyle string
}

type Model struct {
	ctx      context.Context
	ctrl     *pane.Controller
	surface  *drag.Surface
	scroller *drag.Autoscroller
	notices  *noticeQueue
	sender   *sender
	opts     Options
	log      *zap.Logger

	keys        keyMap
	help        help.Model
	spinner     spinner.Model
	filterInput textinput.Model
	preview     previewModel

	state  state
	width  int
	height int

	// selected is the id under the cursor; offset the first visible row
	selected string
	offset   int
	pointerY int

	showStatusMessage bool
	statusMessage     statusMessage
	statusMessageID   int
}

func New(ctx context.Context, cfg pane.Config, store pane.Store, navigator nav.Navigator, opts Options, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Autoscroll.FrameInterval <= 0 {
		opts.Autoscroll.FrameInterval = defaultFrameInterval
	}

	m := &Model{
		ctx:     ctx,
		notices: &noticeQueue{},
		sender:  &sender{},
		opts:    opts,
		log:     log.Named("model"),
		keys:    defaultKeyMap(),
		help:    help.New(),
		preview: newPreviewModel(opts.GlamourStyle),
		state:   stateBrowse,
	}
	m.ctrl = pane.New(cfg, store, m.notices, navigator, log)

	snd := m.sender
	m.scroller = drag.NewAutoscroller(opts.Autoscroll.FrameInterval, func(delta int) {
		snd.send(autoscrollMsg(delta))
	})
	m.surface = drag.NewSurface(m.ctrl, m.scroller, m.band())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(ui.Fuchsia)
	m.spinner = sp

	ti := textinput.New()
	ti.Prompt = ui.YellowFg("Search: ")
	ti.Placeholder = "name or slug"
	ti.CharLimit = filterCharacterLimit
	m.filterInput = ti

	return m
}

// Attach routes autoscroll frames to the program running this model.
func (m *Model) Attach(p interface{ Send(tea.Msg) }) {
	m.sender.set(p.Send)
}

// Close stops the autoscroll loop and detaches the controller. Call it once
// the program has exited.
func (m *Model) Close() {
	m.sender.set(nil)
	m.scroller.Close()
	m.ctrl.Close()
}

func (m *Model) Controller() *pane.Controller { return m.ctrl }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		run(m.ctx, m.ctrl.Refresh()),
		waitForChange(m.ctx, m.opts.Changes),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		if m.state == statePreview {
			cmds = append(cmds, m.renderPreview())
		}

	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case pane.Msg:
		m.ctrl.Apply(msg)
		m.syncSelection()
		cmds = append(cmds, m.flushNotices())

	case autoscrollMsg:
		m.autoscroll(int(msg))

	case externalChangeMsg:
		if m.ctrl.State() != pane.Updating {
			m.log.Debug("external change, refreshing")
			cmds = append(cmds, run(m.ctx, m.ctrl.Refresh()))
		}
		cmds = append(cmds, waitForChange(m.ctx, m.opts.Changes))

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusMessageID {
			m.showStatusMessage = false
		}

	case previewRenderedMsg:
		m.preview.setContent(string(msg))
		m.state = statePreview

	case errMsg:
		m.log.Error("command failed", zap.Error(msg.err))
		cmds = append(cmds, m.newStatusMessage(statusMessage{errorStatusMessage, text.EmojiFailure + " " + msg.Error()}))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.state {
	case stateFiltering:
		return m.handleFiltering(msg)
	case statePreview:
		return m.preview.handleKey(msg, m)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.surface.Cancel()
		return tea.Quit

	case key.Matches(msg, m.keys.Back):
		if m.surface.Dragging() {
			m.surface.Cancel()
			return nil
		}
		if m.ctrl.Filtering() {
			m.resetFiltering()
		}

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.perPage())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.perPage())

	case key.Matches(msg, m.keys.MoveUp):
		return run(m.ctx, m.ctrl.Move(m.selected, -1))
	case key.Matches(msg, m.keys.MoveDown):
		return run(m.ctx, m.ctrl.Move(m.selected, 1))

	case key.Matches(msg, m.keys.Filter):
		m.surface.Cancel()
		m.state = stateFiltering
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
		return textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		// a refresh would race the outstanding write
		if m.ctrl.State() == pane.Updating {
			return nil
		}
		return run(m.ctx, m.ctrl.Refresh())

	case key.Matches(msg, m.keys.Open):
		return m.openEditor()

	case key.Matches(msg, m.keys.Preview):
		return m.renderPreview()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize(m.width, m.height)
	}
	return nil
}

func (m *Model) handleFiltering(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.resetFiltering()
		return nil
	case "enter", "tab", "up", "down":
		m.filterInput.Blur()
		m.state = stateBrowse
		if m.filterInput.Value() == "" {
			m.resetFiltering()
		}
		return nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.ctrl.SetFilter(m.filterInput.Value())
	m.offset = 0
	m.syncSelection()
	return cmd
}

func (m *Model) resetFiltering() {
	m.state = stateBrowse
	m.filterInput.Reset()
	m.filterInput.Blur()
	m.ctrl.SetFilter("")
	m.syncSelection()
}

func (m *Model) openEditor() tea.Cmd {
	if m.selected == "" {
		return nil
	}
	if err := m.ctrl.OpenEditor(m.selected); err != nil {
		m.log.Warn("unable to open editor", zap.String("id", m.selected), zap.Error(err))
		return m.newStatusMessage(statusMessage{errorStatusMessage, text.EmojiFailure + " " + err.Error()})
	}
	return m.newStatusMessage(statusMessage{subtleStatusMessage, "Opening " + m.selected})
}

// MOUSE

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.state == statePreview {
		return m.preview.handleMouse(msg)
	}
	if m.state != stateBrowse {
		return nil
	}
	m.pointerY = msg.Y

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll(1)

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		r, _, ok := m.hit(msg.Y)
		if !ok {
			return nil
		}
		m.selected = r.ID
		// refused while filtering or saving; the click still selects
		m.surface.Start(r.ID)

	case msg.Action == tea.MouseActionMotion:
		if m.surface.Dragging() {
			m.dragOver(msg.Y)
		}

	case msg.Action == tea.MouseActionRelease:
		if !m.surface.Dragging() {
			return nil
		}
		r, _, ok := m.hit(msg.Y)
		if !ok {
			m.surface.Cancel()
			return nil
		}
		return run(m.ctx, m.surface.Drop(r.ID))
	}
	return nil
}

func (m *Model) dragOver(y int) {
	if r, top, ok := m.hit(y); ok {
		m.surface.Over(r.ID, top, rowHeight, y)
	} else {
		m.surface.Leave()
	}
	m.surface.SetBand(m.band())
	m.surface.Pointer(y)
}

func (m *Model) autoscroll(delta int) {
	if !m.surface.Dragging() {
		// a frame that was in flight when the drag ended
		m.scroller.Stop()
		return
	}
	m.scroll(delta)
	m.dragOver(m.pointerY)
}

// NAVIGATION

func (m *Model) cursor() int {
	for i, r := range m.ctrl.Visible() {
		if r.ID == m.selected {
			return i
		}
	}
	return 0
}

func (m *Model) selectedRecord() (v1.Record, bool) {
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		return v1.Record{}, false
	}
	return visible[m.cursor()], true
}

func (m *Model) moveCursor(delta int) {
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		return
	}
	i := max(0, min(len(visible)-1, m.cursor()+delta))
	m.selected = visible[i].ID
	m.ensureVisible()
}

// syncSelection keeps the cursor on a visible row after the list changed.
func (m *Model) syncSelection() {
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		m.selected = ""
		m.offset = 0
		return
	}
	if r, ok := m.selectedRecord(); !ok || r.ID != m.selected {
		m.selected = visible[0].ID
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	c := m.cursor()
	per := m.perPage()
	if c < m.offset {
		m.offset = c
	} else if c >= m.offset+per {
		m.offset = c - per + 1
	}
	m.clampOffset()
}

func (m *Model) scroll(delta int) {
	m.offset += delta
	m.clampOffset()
}

func (m *Model) clampOffset() {
	m.offset = max(0, min(m.offset, len(m.ctrl.Visible())-m.perPage()))
}

func (m *Model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.help.Width = w
	m.filterInput.Width = max(0, w-horizontalPadding-len("Search: "))
	m.preview.setSize(w, h)
	m.surface.SetBand(m.band())
	m.clampOffset()
}

// STATUS

// statusMessageType adds some context to the status message being sent.
type statusMessageType int

const (
	normalStatusMessage statusMessageType = iota
	subtleStatusMessage
	errorStatusMessage
)

// statusMessage is an ephemeral note displayed in the UI.
type statusMessage struct {
	status  statusMessageType
	message string
}

// String returns a styled version of the status message appropriate for the
// given context.
func (s statusMessage) String() string {
	switch s.status {
	case subtleStatusMessage:
		return ui.DimGreenFg(s.message)
	case errorStatusMessage:
		return ui.RedFg(s.message)
	default:
		return ui.GreenFg(s.message)
	}
}

func (m *Model) newStatusMessage(sm statusMessage) tea.Cmd {
	m.statusMessageID++
	m.statusMessage = sm
	m.showStatusMessage = true
	return waitForStatusMessageTimeout(m.statusMessageID, statusMessageTimeout)
}

func (m *Model) flushNotices() tea.Cmd {
	var cmd tea.Cmd
	for _, n := range m.notices.drain() {
		status := normalStatusMessage
		if n.Level == pane.NoticeError {
			status = errorStatusMessage
		}
		cmd = m.newStatusMessage(statusMessage{status, n.String()})
	}
	return cmd
}
