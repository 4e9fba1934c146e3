package threads

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// The current-thread locator: a per-goroutine slot holding the control
// object that goroutine is currently executing as. It owns one
// reference to whatever it holds. The sync.Map store acts as the
// barrier the fork protocol needs: the child continuation installs its
// control object through setCurrent before touching any guest state, so
// nothing read before the fork can leak into the child's slot.

// goroutineID extracts the current goroutine's id from the runtime
// stack header ("goroutine 123 [running]:").
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if idx := strings.Index(s, " "); idx > 0 {
		s = s[:idx]
	}
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// setCurrent installs t as the calling goroutine's control object and
// takes the locator's reference. The slot must be empty: two control
// objects claiming one goroutine is a lifecycle bug.
func (m *Manager) setCurrent(t *Thread) {
	gid := goroutineID()
	if _, occupied := m.current.Load(gid); occupied {
		panic(fmt.Sprintf("threads: goroutine %d already has a current thread", gid))
	}
	t.addRef(1)
	m.current.Store(gid, t)
}

// clearCurrent empties the calling goroutine's slot and releases the
// locator's reference. Runs in the trampoline's deferred teardown, so
// the reference is released on normal return, on guest traps, and on
// the exit-thread path alike.
func (m *Manager) clearCurrent() {
	gid := goroutineID()
	v, ok := m.current.LoadAndDelete(gid)
	if !ok {
		return
	}
	v.(*Thread).removeRef()
}

// Current returns the control object the calling goroutine is running
// as, or nil when the goroutine is not a guest thread.
func (m *Manager) Current() *Thread {
	if v, ok := m.current.Load(goroutineID()); ok {
		return v.(*Thread)
	}
	return nil
}
