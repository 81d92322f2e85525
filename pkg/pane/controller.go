// Package pane owns the list state of one manually ordered document type:
// loading, filtering, optimistic reordering and committing new ranks.
//
// A Controller is not safe for concurrent use. It is driven from a single
// goroutine (the UI loop) and hands blocking work out as Tasks, whose result
// messages are fed back through Apply.
package pane

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/nav"
	"github.com/byxorna/orderpane/pkg/rank"
	"github.com/byxorna/orderpane/pkg/text"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"go.uber.org/zap"
)

var (
	ErrFetch  = errors.New("unable to load documents")
	ErrWrite  = errors.New("unable to save order")
	ErrClosed = errors.New("pane is closed")
)

type State int

const (
	Loading State = iota
	Ready
	Updating
	LoadError
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Updating:
		return "updating"
	case LoadError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store is the part of a backend the controller needs.
type Store interface {
	db.Fetcher
	db.Committer
}

// Task performs the blocking half of an operation and returns the message
// that must be handed back to Apply.
type Task func(ctx context.Context) Msg

// Msg is a Task result.
type Msg interface {
	paneMsg()
}

// FetchedMsg carries the result of a Refresh.
type FetchedMsg struct {
	Type    string
	gen     uint64
	Records []v1.Record
	Err     error
}

// CommittedMsg carries the result of a Reorder.
type CommittedMsg struct {
	Type     string
	snapshot uint64
	Ranked   []v1.Record
	Err      error
}

func (FetchedMsg) paneMsg()   {}
func (CommittedMsg) paneMsg() {}

type Controller struct {
	cfg    Config
	store  Store
	notify Notifier
	nav    nav.Navigator
	log    *zap.Logger

	state   State
	records []v1.Record
	// pending is the optimistic order shown while a commit is outstanding
	pending []v1.Record
	query   string
	err     error

	fetchGen uint64
	snapshot uint64
	inflight bool
	closed   bool
	lastSync time.Time
}

// New returns a controller in the Loading state. Call Refresh to load it.
func New(cfg Config, store Store, notify Notifier, navigator nav.Navigator, log *zap.Logger) *Controller {
	if notify == nil {
		notify = Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		cfg:    cfg,
		store:  store,
		notify: notify,
		nav:    navigator,
		log:    log.Named("pane").With(zap.String("type", cfg.Type)),
		state:  Loading,
	}
}

func (c *Controller) Config() Config      { return c.cfg }
func (c *Controller) State() State        { return c.state }
func (c *Controller) Err() error          { return c.err }
func (c *Controller) LastSync() time.Time { return c.lastSync }
func (c *Controller) Closed() bool        { return c.closed }

// Refresh moves to Loading and returns the fetch task. Any fetch already in
// flight is superseded and its result will be dropped. A refresh does not
// release the write guard of an outstanding commit.
func (c *Controller) Refresh() Task {
	if c.closed {
		return nil
	}
	c.fetchGen++
	gen := c.fetchGen
	c.state = Loading
	c.err = nil

	q := db.Query{Type: c.cfg.Type, Projection: c.cfg.Projection}
	typ := c.cfg.Type
	store := c.store
	return func(ctx context.Context) Msg {
		records, err := store.Fetch(ctx, q)
		return FetchedMsg{Type: typ, gen: gen, Records: records, Err: err}
	}
}

// Apply folds a task result into the controller state. Results that arrive
// after Close, or that were superseded, are ignored.
func (c *Controller) Apply(msg Msg) {
	switch msg := msg.(type) {
	case FetchedMsg:
		c.applyFetched(msg)
	case CommittedMsg:
		c.applyCommitted(msg)
	}
}

func (c *Controller) applyFetched(msg FetchedMsg) {
	if c.closed || msg.gen != c.fetchGen {
		c.log.Debug("dropping stale fetch", zap.Uint64("gen", msg.gen), zap.Uint64("current", c.fetchGen))
		return
	}
	if msg.Err != nil {
		c.log.Error("fetch failed", zap.Error(msg.Err))
		c.err = fmt.Errorf("%w: %w", ErrFetch, msg.Err)
		c.state = LoadError
		return
	}

	c.records = rank.DedupeAndSort(msg.Records)
	c.pending = nil
	c.snapshot++
	c.lastSync = time.Now()
	c.err = nil
	if c.inflight {
		c.state = Updating
	} else {
		c.state = Ready
	}
	c.log.Debug("loaded", zap.Int("records", len(c.records)), zap.Int("raw", len(msg.Records)))
}

func (c *Controller) applyCommitted(msg CommittedMsg) {
	if c.closed {
		c.log.Debug("dropping commit result for closed pane")
		return
	}
	c.inflight = false
	c.pending = nil
	if c.state == Updating {
		c.state = Ready
	}

	if msg.Err != nil {
		c.log.Error("reorder failed", zap.Error(msg.Err))
		c.notify.Notify(Notice{
			Level:       NoticeError,
			Title:       "Reorder failed",
			Description: "Updating the order failed.",
			Err:         fmt.Errorf("%w: %w", ErrWrite, msg.Err),
		})
		return
	}

	// a refresh that landed meanwhile already reflects the stored order
	if msg.snapshot == c.snapshot {
		c.records = msg.Ranked
	}
	c.lastSync = time.Now()
	c.notify.Notify(Notice{
		Level:       NoticeSuccess,
		Title:       "Order updated",
		Description: fmt.Sprintf("%s reordered successfully.", c.title()),
	})
}

// Records is the full ordered list as displayed: the optimistic order while a
// commit is outstanding, the canonical order otherwise.
func (c *Controller) Records() []v1.Record {
	if c.pending != nil {
		return c.pending
	}
	return c.records
}

// SetFilter changes the search text. Reordering is disabled while it is set.
func (c *Controller) SetFilter(query string) {
	c.query = query
}

func (c *Controller) Filter() string { return c.query }

func (c *Controller) Filtering() bool {
	return strings.TrimSpace(c.query) != ""
}

// Visible returns the records that match the filter, in display order.
func (c *Controller) Visible() []v1.Record {
	all := c.Records()
	if !c.Filtering() {
		return all
	}
	out := make([]v1.Record, 0, len(all))
	for _, r := range all {
		if text.Contains(c.cfg.searchText(r), c.query) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller) Label(r v1.Record) string    { return c.cfg.label(r) }
func (c *Controller) ImageURL(r v1.Record) string { return c.cfg.imageURL(r) }

// CanReorder reports whether a reorder would currently be accepted.
func (c *Controller) CanReorder() bool {
	return !c.closed && c.state == Ready && !c.inflight && !c.Filtering() && len(c.records) > 1
}

// CanMove reports whether the step control for id in direction offset is
// enabled.
func (c *Controller) CanMove(id string, offset int) bool {
	if !c.CanReorder() {
		return false
	}
	i := rank.IndexOf(c.records, id)
	if i < 0 {
		return false
	}
	to := i + offset
	return offset != 0 && to >= 0 && to < len(c.records)
}

// Move shifts id by offset positions. It returns nil when the move is a
// no-op or a reorder is not allowed right now.
func (c *Controller) Move(id string, offset int) Task {
	if !c.CanMove(id, offset) {
		return nil
	}
	return c.Reorder(rank.MoveByOffset(c.records, id, offset))
}

// Place moves the record at from to position to.
func (c *Controller) Place(from, to int) Task {
	if !c.CanReorder() {
		return nil
	}
	return c.Reorder(rank.MoveToIndex(c.records, from, to))
}

// Reorder assigns fresh ranks to next, shows it optimistically and returns
// the commit task. Requests made while another reorder is outstanding are
// dropped, not queued. Nil is returned when nothing needs writing. The check
// compares ranks, so passing the current order of a list with gaps or
// unranked records still writes every rank.
func (c *Controller) Reorder(next []v1.Record) Task {
	if !c.CanReorder() {
		c.log.Debug("reorder dropped", zap.Stringer("state", c.state), zap.Bool("inflight", c.inflight))
		return nil
	}

	ranked := rank.ReassignRanks(next)
	if !rank.Changed(c.records, ranked) {
		return nil
	}
	patches := rank.BuildPatches(ranked)
	if len(patches) == 0 {
		return nil
	}

	c.pending = ranked
	c.inflight = true
	c.state = Updating

	tx := db.Transaction{
		Tag:        c.cfg.reorderTag(),
		Visibility: db.VisibilityAsync,
		Patches:    patches,
	}
	snapshot := c.snapshot
	typ := c.cfg.Type
	store := c.store
	log := c.log
	return func(ctx context.Context) Msg {
		log.Info("committing", zap.Stringer("tx", tx))
		err := store.Commit(ctx, tx)
		return CommittedMsg{Type: typ, snapshot: snapshot, Ranked: ranked, Err: err}
	}
}

// EditPath is the studio path that edits r.
func (c *Controller) EditPath(r v1.Record) string {
	return c.cfg.editPath(r)
}

// OpenEditor navigates to the editor of the document with id.
func (c *Controller) OpenEditor(id string) error {
	if c.closed {
		return ErrClosed
	}
	i := rank.IndexOf(c.Records(), id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, db.ErrNotFound)
	}
	if c.nav == nil {
		return errors.New("no navigator configured")
	}
	path := c.EditPath(c.Records()[i])
	c.log.Debug("open editor", zap.String("path", path))
	return c.nav.Navigate(path)
}

// Close detaches the controller. Later task results are discarded.
func (c *Controller) Close() {
	c.closed = true
}

// Run executes task synchronously and applies its result. It is meant for
// callers without an event loop.
func (c *Controller) Run(ctx context.Context, task Task) {
	if task == nil {
		return
	}
	c.Apply(task(ctx))
}

func (c *Controller) title() string {
	if c.cfg.Title != "" {
		return c.cfg.Title
	}
	return c.cfg.Type
}
