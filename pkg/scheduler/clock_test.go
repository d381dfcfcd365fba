package scheduler

import (
	"testing"
	"time"
)

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewManualClock()
	var order []string

	clock.AfterFunc(20*time.Millisecond, func() { order = append(order, "c") })
	clock.AfterFunc(0, func() { order = append(order, "a") })
	clock.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })

	clock.Advance(15 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("scheduler:clock_test - order = %v, want [a b]", order)
	}
	if clock.Elapsed() != 15*time.Millisecond {
		t.Errorf("scheduler:clock_test - Elapsed() = %s", clock.Elapsed())
	}

	clock.Advance(5 * time.Millisecond)
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("scheduler:clock_test - order = %v, want [a b c]", order)
	}
}

func TestManualClock_SameDeadlineKeepsScheduleOrder(t *testing.T) {
	clock := NewManualClock()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		clock.AfterFunc(time.Millisecond, func() { order = append(order, i) })
	}
	clock.Advance(time.Millisecond)
	for i, v := range order {
		if v != i {
			t.Fatalf("scheduler:clock_test - order = %v", order)
		}
	}
}

func TestManualClock_NestedScheduling(t *testing.T) {
	clock := NewManualClock()
	var fired int
	clock.AfterFunc(0, func() {
		fired++
		clock.AfterFunc(0, func() { fired++ })
		clock.AfterFunc(time.Second, func() { fired++ })
	})

	clock.Advance(0)
	if fired != 2 {
		t.Errorf("scheduler:clock_test - fired = %d, want 2", fired)
	}
	if clock.Pending() != 1 {
		t.Errorf("scheduler:clock_test - Pending() = %d, want 1", clock.Pending())
	}
}

func TestManualClock_Stop(t *testing.T) {
	clock := NewManualClock()
	var fired bool
	timer := clock.AfterFunc(time.Millisecond, func() { fired = true })

	if !timer.Stop() {
		t.Error("scheduler:clock_test - first Stop() = false, want true")
	}
	if timer.Stop() {
		t.Error("scheduler:clock_test - second Stop() = true, want false")
	}
	clock.Advance(time.Second)
	if fired {
		t.Error("scheduler:clock_test - stopped timer fired")
	}
}
