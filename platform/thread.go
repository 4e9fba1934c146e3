// Package platform provides the OS-thread primitives the thread runtime
// is built on: spawn, join, detach, and exit.
//
// The one primitive that cannot be expressed portably is the
// stack-duplicating fork. Its contract is "duplicate the calling
// execution unit's control state and return twice, distinguished by a
// sentinel". Here the execution unit whose control state gets duplicated
// is the guest context, which the caller clones explicitly; the child
// continuation then runs under an ordinary Spawn while the parent keeps
// the returned handle. The caller is responsible for arranging the 0
// sentinel on the child path.
package platform

import "fmt"

// Thread is the exclusively owned handle for one spawned thread. It is
// valid until joined or detached.
type Thread struct {
	done chan struct{}
	code int64
}

// exitSignal unwinds a thread terminated by Exit. Only the Spawn
// trampoline recovers it; any other panic value is re-raised and takes
// the process down, so platform-level failures propagate unmodified.
type exitSignal struct {
	code int64
}

// Spawn starts a new thread running entry. The entry function's result
// becomes the thread's logical exit code, as does the code passed to
// Exit if the thread terminates early.
func Spawn(entry func() int64) *Thread {
	t := &Thread{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				if sig, ok := r.(exitSignal); ok {
					t.code = sig.code
					return
				}
				panic(r)
			}
		}()
		t.code = entry()
	}()
	return t
}

// Join blocks until the thread terminates and returns its exit code.
// The wait is unbounded; there is no timeout or cancellation.
func (t *Thread) Join() int64 {
	<-t.done
	return t.code
}

// Detach releases the handle without waiting. The thread keeps running
// and cleans up independently when it terminates.
func (t *Thread) Detach() {
	// Nothing to reclaim eagerly: the scheduler tears the thread down on
	// its own termination. Detach exists so handle ownership is explicit.
}

// Exit terminates the calling thread with the given exit code. It never
// returns. Deferred functions on the thread still run. Calling Exit from
// a thread that was not started by Spawn is fatal.
func Exit(code int64) {
	panic(exitSignal{code: code})
}

func (t *Thread) String() string {
	select {
	case <-t.done:
		return fmt.Sprintf("thread(done, code=%d)", t.code)
	default:
		return "thread(running)"
	}
}
