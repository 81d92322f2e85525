package drag

import (
	"context"
	"testing"

	"github.com/byxorna/orderpane/pkg/pane"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type move struct{ from, to int }

type fakeList struct {
	records  []v1.Record
	disabled bool
	moves    []move
}

func (f *fakeList) CanReorder() bool     { return !f.disabled }
func (f *fakeList) Records() []v1.Record { return f.records }
func (f *fakeList) Place(from, to int) pane.Task {
	f.moves = append(f.moves, move{from, to})
	return func(context.Context) pane.Msg { return pane.CommittedMsg{} }
}

func abc() *fakeList {
	return &fakeList{records: []v1.Record{{ID: "A"}, {ID: "B"}, {ID: "C"}}}
}

func TestSideForPointer(t *testing.T) {
	// a two row tall entry starting at row 10
	assert.Equal(t, Before, SideForPointer(10, 2, 10))
	assert.Equal(t, After, SideForPointer(10, 2, 11))

	assert.Equal(t, Before, SideForPointer(0, 3, 1))
	assert.Equal(t, After, SideForPointer(0, 4, 2))
}

func TestDestinationIndex(t *testing.T) {
	testcases := []struct {
		name         string
		from, target int
		side         Side
		expected     int
	}{
		{"A after C", 0, 2, After, 2},
		{"A before C", 0, 2, Before, 1},
		{"C before A", 2, 0, Before, 0},
		{"C after A", 2, 0, After, 1},
		{"B after B", 1, 1, After, 1},
		{"B before B", 1, 1, Before, 1},
		{"clamped", 0, 5, After, 2},
	}
	for _, tc := range testcases {
		assert.Equal(t, tc.expected, DestinationIndex(tc.from, tc.target, tc.side, 3), tc.name)
	}
}

func TestDropAfterLast(t *testing.T) {
	list := abc()
	s := NewSurface(list, nil, Band{})

	require.True(t, s.Start("A"))
	s.Over("C", 4, 2, 5)
	tgt, ok := s.Target()
	require.True(t, ok)
	assert.Equal(t, Target{ID: "C", Side: After}, tgt)

	require.NotNil(t, s.Drop("C"))
	assert.Equal(t, []move{{0, 2}}, list.moves)
	assert.False(t, s.Dragging())
	_, ok = s.Target()
	assert.False(t, ok)
}

func TestDropBefore(t *testing.T) {
	list := abc()
	s := NewSurface(list, nil, Band{})

	require.True(t, s.Start("C"))
	s.Over("A", 0, 2, 0)
	require.NotNil(t, s.Drop("A"))
	assert.Equal(t, []move{{2, 0}}, list.moves)
}

func TestDropDefaultsToAfter(t *testing.T) {
	list := abc()
	s := NewSurface(list, nil, Band{})

	require.True(t, s.Start("A"))
	// indicator is on another row than the one dropped on
	s.Over("C", 4, 2, 4)
	require.NotNil(t, s.Drop("B"))
	assert.Equal(t, []move{{0, 1}}, list.moves)
}

func TestDropNoops(t *testing.T) {
	list := abc()
	s := NewSurface(list, nil, Band{})

	require.True(t, s.Start("B"))
	assert.Nil(t, s.Drop("B"), "drop on itself")

	require.True(t, s.Start("A"))
	s.Over("B", 2, 2, 2)
	assert.Nil(t, s.Drop("B"), "A before B stays put")

	require.True(t, s.Start("A"))
	assert.Nil(t, s.Drop("missing"))

	assert.Nil(t, s.Drop("A"), "drop without a drag")
	assert.Empty(t, list.moves)
}

func TestDragRefusedWhileDisabled(t *testing.T) {
	list := abc()
	list.disabled = true
	s := NewSurface(list, nil, Band{})

	assert.False(t, s.Start("A"))
	assert.False(t, s.Start("missing"))
	s.Over("C", 0, 2, 1)
	_, ok := s.Target()
	assert.False(t, ok)
	assert.Nil(t, s.Drop("C"))
	assert.Empty(t, list.moves)
}

func TestLeaveAndCancel(t *testing.T) {
	list := abc()
	s := NewSurface(list, nil, Band{})

	require.True(t, s.Start("A"))
	s.Over("C", 4, 2, 5)
	s.Leave()
	_, ok := s.Target()
	assert.False(t, ok)
	assert.True(t, s.Dragging())

	s.Cancel()
	assert.False(t, s.Dragging())
	assert.Empty(t, list.moves)
}
