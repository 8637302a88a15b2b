package speech

import (
	"testing"
	"time"
)

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewManualClock(epoch)
	var fired []string
	var firedAt []time.Duration

	record := func(name string) func() {
		return func() {
			fired = append(fired, name)
			firedAt = append(firedAt, clock.Now().Sub(epoch))
		}
	}

	clock.AfterFunc(300*time.Millisecond, record("late"))
	clock.AfterFunc(100*time.Millisecond, record("early"))
	stopped := clock.AfterFunc(200*time.Millisecond, record("stopped"))

	if !stopped.Stop() {
		t.Error("Stop on a live timer should return true")
	}
	if stopped.Stop() {
		t.Error("second Stop should return false")
	}

	clock.Advance(250 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "early" {
		t.Fatalf("after 250ms: fired %v", fired)
	}
	if firedAt[0] != 100*time.Millisecond {
		t.Errorf("callback saw Now at %v, want 100ms", firedAt[0])
	}
	if clock.Now().Sub(epoch) != 250*time.Millisecond {
		t.Errorf("Now after Advance: %v", clock.Now().Sub(epoch))
	}

	clock.Advance(time.Second)
	if len(fired) != 2 || fired[1] != "late" {
		t.Errorf("after 1.25s: fired %v", fired)
	}
	if clock.Pending() != 0 {
		t.Errorf("pending timers: %d", clock.Pending())
	}
}

func TestManualClock_TimerArmedFromCallback(t *testing.T) {
	clock := NewManualClock(epoch)
	count := 0

	var tick func()
	tick = func() {
		count++
		if count < 3 {
			clock.AfterFunc(100*time.Millisecond, tick)
		}
	}
	clock.AfterFunc(100*time.Millisecond, tick)

	clock.Advance(time.Second)
	if count != 3 {
		t.Errorf("chained timers fired %d times, want 3", count)
	}
}

func TestSystemClock(t *testing.T) {
	var c Clock = SystemClock{}
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("system timer never fired")
	}
}
