// Package drag turns pointer gestures over a list into index moves.
package drag

import (
	"github.com/byxorna/orderpane/pkg/pane"
	"github.com/byxorna/orderpane/pkg/rank"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
)

type Side int

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	if s == Before {
		return "before"
	}
	return "after"
}

// Target is the current drop indicator: the row under the pointer and which
// side of it the dragged row would land on.
type Target struct {
	ID   string
	Side Side
}

// Mover is the list the surface reorders. *pane.Controller satisfies it.
type Mover interface {
	CanReorder() bool
	Records() []v1.Record
	Place(from, to int) pane.Task
}

type Surface struct {
	list     Mover
	scroller *Autoscroller
	band     Band

	dragged   string
	target    Target
	hasTarget bool
}

// NewSurface returns a surface over list. scroller may be nil, in which case
// the pointer never scrolls the list.
func NewSurface(list Mover, scroller *Autoscroller, band Band) *Surface {
	return &Surface{list: list, scroller: scroller, band: band}
}

func (s *Surface) Dragging() bool  { return s.dragged != "" }
func (s *Surface) Dragged() string { return s.dragged }

func (s *Surface) Target() (Target, bool) { return s.target, s.hasTarget }

// SetBand updates the viewport geometry used for autoscroll.
func (s *Surface) SetBand(b Band) { s.band = b }

// Start begins dragging id. It is refused while the list cannot be
// reordered.
func (s *Surface) Start(id string) bool {
	if !s.list.CanReorder() || rank.IndexOf(s.list.Records(), id) < 0 {
		return false
	}
	s.dragged = id
	s.hasTarget = false
	return true
}

// Over moves the pointer to row id. top and height are the row's extent and
// y the pointer, all in the same units.
func (s *Surface) Over(id string, top, height, y int) {
	if !s.Dragging() || !s.list.CanReorder() {
		return
	}
	s.target = Target{ID: id, Side: SideForPointer(top, height, y)}
	s.hasTarget = true
}

// Pointer feeds the pointer position to autoscroll.
func (s *Surface) Pointer(y int) {
	if s.scroller == nil {
		return
	}
	if !s.Dragging() {
		s.scroller.Stop()
		return
	}
	speed := s.band.Speed(y)
	if speed == 0 {
		s.scroller.Stop()
		return
	}
	s.scroller.Start(speed)
}

// Leave drops the insertion indicator when the pointer leaves the list. The
// drag itself continues.
func (s *Surface) Leave() {
	s.hasTarget = false
	s.stopScroll()
}

// Cancel ends the drag without touching the order.
func (s *Surface) Cancel() {
	s.dragged = ""
	s.hasTarget = false
	s.stopScroll()
}

// Drop ends the drag on row targetID and returns the resulting reorder task,
// or nil when the drop changes nothing.
func (s *Surface) Drop(targetID string) pane.Task {
	source := s.dragged
	target, hasTarget := s.target, s.hasTarget
	s.Cancel()

	if source == "" || source == targetID {
		return nil
	}
	records := s.list.Records()
	from := rank.IndexOf(records, source)
	at := rank.IndexOf(records, targetID)
	if from < 0 || at < 0 {
		return nil
	}

	side := After
	if hasTarget && target.ID == targetID {
		side = target.Side
	}
	to := DestinationIndex(from, at, side, len(records))
	if to == from {
		return nil
	}
	return s.list.Place(from, to)
}

func (s *Surface) stopScroll() {
	if s.scroller != nil {
		s.scroller.Stop()
	}
}

// SideForPointer splits a row at its vertical midpoint.
func SideForPointer(top, height, y int) Side {
	if 2*(y-top) < height {
		return Before
	}
	return After
}

// DestinationIndex is where a row at from ends up when dropped on side of
// the row at target, accounting for the gap its removal leaves.
func DestinationIndex(from, target int, side Side, n int) int {
	to := target
	if side == After {
		to++
	}
	if from < to {
		to--
	}
	return max(0, min(to, n-1))
}
