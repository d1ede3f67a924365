package election

import (
	"testing"
	"time"
)

func TestFakeClock_AdvanceFiresDueTimers(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))

	var fired bool
	clock.AfterFunc(5*time.Second, func() { fired = true })

	clock.Advance(4 * time.Second)
	if fired {
		t.Fatal("timer fired before its deadline")
	}

	clock.Advance(1 * time.Second)
	if !fired {
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestFakeClock_StopPreventsFire(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))

	var fired bool
	timer := clock.AfterFunc(5*time.Second, func() { fired = true })
	timer.Stop()

	clock.Advance(10 * time.Second)
	if fired {
		t.Error("stopped timer should not fire")
	}
}

func TestFakeClock_NowAdvances(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))
	clock.Advance(3 * time.Second)
	if got := clock.Now().Unix(); got != 1003 {
		t.Errorf("Now() = %d, want 1003", got)
	}
}
