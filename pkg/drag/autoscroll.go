package drag

import (
	"math"
	"sync"
	"time"
)

// Band is the scrollable viewport and its autoscroll edges. Top and Height
// are in rows, speeds in rows per frame.
type Band struct {
	Top      int
	Height   int
	Edge     int
	MinSpeed int
	MaxSpeed int
}

// Speed is negative inside the top edge, positive inside the bottom edge and
// zero elsewhere. It ramps linearly with depth into the edge.
func (b Band) Speed(y int) int {
	if b.Edge <= 0 || b.Height <= 0 {
		return 0
	}
	toTop := y - b.Top
	toBottom := b.Top + b.Height - 1 - y

	switch {
	case toTop >= 0 && toTop < b.Edge:
		return -b.ramp(toTop)
	case toBottom >= 0 && toBottom < b.Edge:
		return b.ramp(toBottom)
	}
	return 0
}

func (b Band) ramp(distance int) int {
	ratio := float64(b.Edge-distance) / float64(b.Edge)
	speed := int(math.Round(float64(b.MaxSpeed) * ratio))
	return max(b.MinSpeed, 1, speed)
}

// Autoscroller calls sink once per frame with the current speed until
// stopped. Start and Stop may be called from any goroutine.
type Autoscroller struct {
	interval time.Duration
	sink     func(delta int)

	// loops counts every frame loop still running, including ones already
	// told to stop.
	loops sync.WaitGroup

	mu     sync.Mutex
	speed  int
	stop   chan struct{}
	closed bool
}

func NewAutoscroller(interval time.Duration, sink func(delta int)) *Autoscroller {
	return &Autoscroller{interval: interval, sink: sink}
}

// Start sets the speed and launches the frame loop if it is not running.
// A zero speed stops it.
func (a *Autoscroller) Start(speed int) {
	if speed == 0 {
		a.Stop()
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.speed = speed
	if a.stop != nil {
		return
	}
	a.stop = make(chan struct{})
	a.loops.Add(1)
	go a.loop(a.stop)
}

// Stop halts the loop. It does not wait for a frame already being delivered,
// so it is safe to call from inside the sink's consumer.
func (a *Autoscroller) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.halt()
}

func (a *Autoscroller) halt() {
	a.speed = 0
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
}

func (a *Autoscroller) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stop != nil
}

func (a *Autoscroller) Speed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speed
}

// Close stops the loop for good and waits for every loop started so far to
// exit. The sink must not block forever once Close is called.
func (a *Autoscroller) Close() {
	a.mu.Lock()
	a.closed = true
	a.halt()
	a.mu.Unlock()
	a.loops.Wait()
}

func (a *Autoscroller) loop(stop chan struct{}) {
	defer a.loops.Done()
	t := time.NewTicker(a.interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		a.mu.Lock()
		speed := a.speed
		select {
		case <-stop:
			a.mu.Unlock()
			return
		default:
		}
		a.mu.Unlock()

		if speed != 0 {
			a.sink(speed)
		}
	}
}
