package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

const window = 10 * time.Millisecond

func newTestDebouncer(t *testing.T, flush func()) (*Debouncer, *ManualClock) {
	t.Helper()
	clock := NewManualClock()
	d := NewDebouncer(DebouncerParams{Window: window, Clock: clock, Flush: flush})
	return d, clock
}

func TestDebouncer_LeadingFlushOnNextTick(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Trigger()
	if calls != 0 {
		t.Fatalf("scheduler:debounce_test - flushed synchronously, calls = %d", calls)
	}
	if d.State() != Armed {
		t.Errorf("scheduler:debounce_test - state = %s, want armed", d.State())
	}

	clock.Advance(0)
	if calls != 1 {
		t.Errorf("scheduler:debounce_test - calls after tick = %d, want 1", calls)
	}
}

func TestDebouncer_SingleTriggerFlushesOnce(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Trigger()
	clock.Advance(window)

	if calls != 1 {
		t.Errorf("scheduler:debounce_test - calls = %d, want 1", calls)
	}
	if d.State() != Idle {
		t.Errorf("scheduler:debounce_test - state = %s, want idle", d.State())
	}
	if clock.Pending() != 0 {
		t.Errorf("scheduler:debounce_test - pending timers = %d, want 0", clock.Pending())
	}
}

func TestDebouncer_BurstCoalescesIntoTwoFlushes(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Trigger()
	clock.Advance(0)
	d.Trigger()
	d.Trigger()
	clock.Advance(window / 2)
	d.Trigger()
	clock.Advance(window)

	if calls != 2 {
		t.Errorf("scheduler:debounce_test - calls = %d, want 2", calls)
	}
	if d.Flushes() != 2 {
		t.Errorf("scheduler:debounce_test - Flushes() = %d, want 2", d.Flushes())
	}
}

func TestDebouncer_TriggersBeforeLeadingTickAreCovered(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Trigger()
	d.Trigger()
	d.Trigger()
	clock.Advance(window)

	if calls != 1 {
		t.Errorf("scheduler:debounce_test - calls = %d, want 1", calls)
	}
}

func TestDebouncer_NewWindowAfterClose(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Trigger()
	clock.Advance(window)
	d.Trigger()
	clock.Advance(0)

	if calls != 2 {
		t.Errorf("scheduler:debounce_test - calls = %d, want 2", calls)
	}
	if d.State() != Armed {
		t.Errorf("scheduler:debounce_test - state = %s, want armed", d.State())
	}
}

func TestDebouncer_TriggerFromFlushIsRecorded(t *testing.T) {
	var calls int
	var d *Debouncer
	clock := NewManualClock()
	d = NewDebouncer(DebouncerParams{Window: window, Clock: clock, Flush: func() {
		calls++
		if calls == 1 {
			d.Trigger()
		}
	}})

	d.Trigger()
	clock.Advance(window)

	if calls != 2 {
		t.Errorf("scheduler:debounce_test - calls = %d, want 2", calls)
	}
}

func TestDebouncer_FlushBypassesWindow(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Flush()
	if calls != 1 {
		t.Fatalf("scheduler:debounce_test - calls = %d, want 1", calls)
	}
	if d.State() != Idle {
		t.Errorf("scheduler:debounce_test - Flush changed state to %s", d.State())
	}
	if clock.Pending() != 0 {
		t.Errorf("scheduler:debounce_test - Flush armed %d timers", clock.Pending())
	}
}

func TestDebouncer_StopCancelsTimers(t *testing.T) {
	var calls int
	d, clock := newTestDebouncer(t, func() { calls++ })

	d.Trigger()
	d.Stop()
	clock.Advance(window)
	d.Trigger()
	d.Flush()
	clock.Advance(window)

	if calls != 0 {
		t.Errorf("scheduler:debounce_test - calls after Stop = %d, want 0", calls)
	}
	if clock.Pending() != 0 {
		t.Errorf("scheduler:debounce_test - pending timers = %d, want 0", clock.Pending())
	}
}

func TestNewDebouncer_Defaults(t *testing.T) {
	d := NewDebouncer(DebouncerParams{})
	if d.window != DefaultWindow {
		t.Errorf("scheduler:debounce_test - window = %s, want %s", d.window, DefaultWindow)
	}
	if _, ok := d.clock.(RealClock); !ok {
		t.Errorf("scheduler:debounce_test - clock = %T, want RealClock", d.clock)
	}
	d.Flush()
}

func TestDebouncer_RealClockNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	flushed := make(chan struct{}, 4)
	d := NewDebouncer(DebouncerParams{Window: 200 * time.Millisecond, Flush: func() {
		calls.Add(1)
		flushed <- struct{}{}
	}})

	waitFlush := func(n int) {
		select {
		case <-flushed:
		case <-time.After(2 * time.Second):
			t.Fatalf("scheduler:debounce_test - timeout waiting for flush %d", n)
		}
	}

	d.Trigger()
	waitFlush(1)
	d.Trigger()
	waitFlush(2)

	deadline := time.Now().Add(2 * time.Second)
	for d.State() != Idle {
		if time.Now().After(deadline) {
			t.Fatal("scheduler:debounce_test - window never closed")
		}
		time.Sleep(time.Millisecond)
	}
	d.Stop()

	if got := calls.Load(); got != 2 {
		t.Errorf("scheduler:debounce_test - calls = %d, want 2", got)
	}
}
