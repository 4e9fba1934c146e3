package platform

import (
	"testing"
	"time"
)

func TestSpawnJoin(t *testing.T) {
	th := Spawn(func() int64 { return 42 })
	if code := th.Join(); code != 42 {
		t.Errorf("expected 42, got %d", code)
	}
	// Join after completion keeps returning the same code.
	if code := th.Join(); code != 42 {
		t.Errorf("second join returned %d", code)
	}
}

func TestExitUnwinds(t *testing.T) {
	ran := false
	th := Spawn(func() int64 {
		defer func() { ran = true }()
		Exit(7)
		return 0 // not reached
	})
	if code := th.Join(); code != 7 {
		t.Errorf("expected 7, got %d", code)
	}
	if !ran {
		t.Error("deferred function did not run on Exit")
	}
}

func TestDetachedThreadRuns(t *testing.T) {
	done := make(chan struct{})
	th := Spawn(func() int64 {
		close(done)
		return 0
	})
	th.Detach()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("detached thread never ran")
	}
}
