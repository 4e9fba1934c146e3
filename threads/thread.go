package threads

import (
	"fmt"
	"sync/atomic"

	"github.com/dio/wavm/platform"
	"github.com/dio/wavm/runtime"
)

// unregisteredID marks a control object that is not in the registry.
// Assigned ids are always positive; zero is never valid.
const unregisteredID = ^uint64(0)

// Thread is the control object for one guest-spawned thread. Its
// context, entry function, and argument fields are real owning
// references: they keep the guest state reachable for the object's
// whole lifetime and are dropped when the last reference is released.
type Thread struct {
	// id is the registry key while registered, unregisteredID otherwise.
	// Mutated only under the registry lock.
	id uint64

	refs atomic.Int64

	// handle is exclusively owned; valid until joined or detached.
	handle *platform.Thread

	context *runtime.Context
	entry   *runtime.Function
	arg     int32
}

func newThread(ctx *runtime.Context, entry *runtime.Function, arg int32) *Thread {
	return &Thread{
		id:      unregisteredID,
		context: ctx,
		entry:   entry,
		arg:     arg,
	}
}

// addRef records n new owners of the control object. Lock-free; safe
// from any owning thread without the registry lock.
func (t *Thread) addRef(n int64) {
	t.refs.Add(n)
}

// removeRef releases one owner. The transition to zero drops the
// object's owned guest state. A negative count means an owner released
// a reference it never held: a refcounting bug, not bad guest input.
func (t *Thread) removeRef() {
	n := t.refs.Add(-1)
	switch {
	case n == 0:
		t.destroy()
	case n < 0:
		panic(fmt.Sprintf("threads: reference count underflow (%d)", n))
	}
}

// destroy runs exactly once, when no owner remains, so the field writes
// need no synchronization.
func (t *Thread) destroy() {
	t.context.Release()
	t.context = nil
	t.entry = nil
	t.handle = nil
}

// RefCount returns the current owner count. Test hook.
func (t *Thread) RefCount() int64 {
	return t.refs.Load()
}
