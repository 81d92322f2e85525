package drag

import (
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBandSpeed(t *testing.T) {
	b := Band{Top: 2, Height: 20, Edge: 4, MinSpeed: 1, MaxSpeed: 8}

	testcases := map[int]int{
		1:  0, // above the viewport
		2:  -8,
		3:  -6,
		4:  -4,
		5:  -2,
		6:  0,
		12: 0,
		17: 0,
		18: 2,
		20: 6,
		21: 8,
		22: 0, // below the viewport
	}
	for y, expected := range testcases {
		assert.Equal(t, expected, b.Speed(y), "y=%d", y)
	}
}

func TestBandSpeedFloor(t *testing.T) {
	b := Band{Top: 0, Height: 100, Edge: 10, MinSpeed: 2, MaxSpeed: 3}
	assert.Equal(t, -2, b.Speed(9))
	assert.Equal(t, -3, b.Speed(0))

	assert.Equal(t, 0, Band{Height: 10}.Speed(0), "no edge")
}

func TestAutoscrollerDeliversFrames(t *testing.T) {
	var total atomic.Int64
	a := NewAutoscroller(time.Millisecond, func(delta int) { total.Add(int64(delta)) })
	defer a.Close()

	a.Start(3)
	assert.True(t, a.Running())
	assert.Equal(t, 3, a.Speed())
	require.Eventually(t, func() bool { return total.Load() >= 9 }, time.Second, time.Millisecond)

	a.Stop()
	assert.False(t, a.Running())
	assert.Equal(t, 0, a.Speed())
}

func TestAutoscrollerSpeedChangesWithoutRestart(t *testing.T) {
	var last atomic.Int64
	a := NewAutoscroller(time.Millisecond, func(delta int) { last.Store(int64(delta)) })
	defer a.Close()

	a.Start(2)
	a.Start(-5)
	require.Eventually(t, func() bool { return last.Load() == -5 }, time.Second, time.Millisecond)

	a.Start(0)
	assert.False(t, a.Running())
}

func TestAutoscrollerClose(t *testing.T) {
	a := NewAutoscroller(time.Millisecond, func(int) {})
	a.Start(1)
	a.Close()
	assert.False(t, a.Running())

	a.Start(1)
	assert.False(t, a.Running(), "closed scroller restarted")
	a.Close()
}

func TestAutoscrollerCloseWaitsForStoppedLoops(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	a := NewAutoscroller(time.Millisecond, func(int) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	})

	// the first loop is stuck in a frame when a second one starts
	a.Start(1)
	<-entered
	a.Stop()
	a.Start(1)

	closed := make(chan struct{})
	go func() {
		a.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a stopped loop was still delivering a frame")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}

func TestSurfaceDrivesAutoscroll(t *testing.T) {
	var frames atomic.Int64
	a := NewAutoscroller(time.Millisecond, func(int) { frames.Add(1) })
	defer a.Close()

	list := &fakeList{records: []v1.Record{{ID: "A"}, {ID: "B"}}}
	s := NewSurface(list, a, Band{Top: 0, Height: 10, Edge: 2, MinSpeed: 1, MaxSpeed: 2})

	s.Pointer(9)
	assert.False(t, a.Running(), "scrolling without a drag")

	require.True(t, s.Start("A"))
	s.Pointer(9)
	assert.True(t, a.Running())
	assert.Equal(t, 2, a.Speed())

	s.Pointer(5)
	assert.False(t, a.Running(), "left the edge band")

	s.Pointer(0)
	assert.Equal(t, -2, a.Speed())
	s.Cancel()
	assert.False(t, a.Running())

	require.True(t, s.Start("A"))
	s.Pointer(9)
	s.Drop("B")
	assert.False(t, a.Running(), "drop stops the scroll")
}
