package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const logPrefix = "scheduler:debounce"

// DefaultWindow is used when DebouncerParams.Window is not positive.
const DefaultWindow = 10 * time.Millisecond

// State is the debouncer's position in its cycle.
type State int

const (
	// Idle means no window is open; the next trigger flushes on the next tick.
	Idle State = iota
	// Armed means a window is open; triggers are only recorded until it closes.
	Armed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DebouncerParams holds parameters for NewDebouncer.
type DebouncerParams struct {
	Window time.Duration
	Clock  Clock
	// Flush is called without any debouncer lock held and must tolerate an
	// empty queue.
	Flush func()
}

// Debouncer is a leading+trailing debounce over a fixed window. The first
// trigger in an idle period flushes on the next tick and opens a window;
// triggers inside the window are coalesced into one trailing flush when it
// closes.
type Debouncer struct {
	mu          sync.Mutex
	clock       Clock
	window      time.Duration
	flush       func()
	state       State
	calledAgain bool
	gen         uint64
	leading     Timer
	trailing    Timer
	stopped     bool
	flushes     int64
}

// NewDebouncer creates a Debouncer in the Idle state.
func NewDebouncer(params DebouncerParams) *Debouncer {
	window := params.Window
	if window <= 0 {
		window = DefaultWindow
	}
	clock := params.Clock
	if clock == nil {
		clock = RealClock{}
	}
	flush := params.Flush
	if flush == nil {
		flush = func() {}
	}
	return &Debouncer{clock: clock, window: window, flush: flush}
}

// Trigger requests a flush.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch d.state {
	case Idle:
		d.state = Armed
		d.calledAgain = false
		d.gen++
		gen := d.gen
		d.leading = d.clock.AfterFunc(0, func() { d.fireLeading(gen) })
		d.trailing = d.clock.AfterFunc(d.window, func() { d.fireTrailing(gen) })
		slog.Debug(fmt.Sprintf("%s - armed window=%s", logPrefix, d.window))
	case Armed:
		d.calledAgain = true
	}
}

// Flush runs the flush action now, outside the debounce cycle.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.flushes++
	d.mu.Unlock()

	d.flush()
}

// Stop cancels any armed timers. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.state = Idle
	d.calledAgain = false
	if d.leading != nil {
		d.leading.Stop()
		d.leading = nil
	}
	if d.trailing != nil {
		d.trailing.Stop()
		d.trailing = nil
	}
}

// State returns the current state.
func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Flushes returns how many times the flush action has been invoked.
func (d *Debouncer) Flushes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

func (d *Debouncer) fireLeading(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.leading = nil
	// This flush covers every trigger recorded so far.
	d.calledAgain = false
	d.flushes++
	d.mu.Unlock()

	d.flush()
}

func (d *Debouncer) fireTrailing(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	again := d.calledAgain
	d.state = Idle
	d.calledAgain = false
	d.trailing = nil
	if again {
		d.flushes++
	}
	d.mu.Unlock()

	if again {
		d.flush()
	}
}
