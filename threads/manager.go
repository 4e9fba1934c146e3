package threads

import (
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dio/wavm/platform"
	"github.com/dio/wavm/runtime"
)

var log = commonlog.GetLogger("wavm.threads")

// TrappedExitCode is the logical exit code Join reports for a thread
// whose guest code trapped instead of returning. Entry functions that
// return it themselves are indistinguishable from a trap; the trap
// itself is recorded in the log, not the code.
const TrappedExitCode int64 = -1

// Manager is the thread service for one VM instance: the registry, the
// current-thread locator, and the five guest operations. It is
// constructed at VM startup and holds no process-wide state.
type Manager struct {
	reg     *registry
	current sync.Map // goroutine id -> *Thread
}

// NewManager creates an empty thread manager.
func NewManager() *Manager {
	return &Manager{reg: newRegistry()}
}

// Live returns the number of currently registered threads.
func (m *Manager) Live() int {
	return m.reg.size()
}

// Validate reports whether id names a currently registered thread.
func (m *Manager) Validate(id uint64) bool {
	return m.reg.validate(id)
}

// enter is the trampoline every spawned thread starts in: install the
// control object in the locator, release the spawn-time reference, and
// run the entry function. The deferred locator teardown releases the
// running thread's reference on every way out, including guest Exit.
func (m *Manager) enter(t *Thread) int64 {
	m.setCurrent(t)
	defer m.clearCurrent()

	ctx, entry, arg := t.context, t.entry, t.arg
	t.removeRef()

	result, err := runtime.InvokeI32I64(ctx, entry, arg)
	if err != nil {
		log.Errorf("thread entry trapped: %s", err.Error())
		return TrappedExitCode
	}
	return result
}

// Create validates the entry function's (i32)->(i64) shape, clones a
// fresh execution context in the caller's compartment, registers a new
// control object, and spawns a thread running the entry function.
// Returns the newly allocated nonzero id.
func (m *Manager) Create(caller *runtime.Context, entry *runtime.Function, arg int32) (uint64, error) {
	if entry == nil || !entry.Type.Equal(runtime.ThreadEntryType()) {
		return 0, runtime.Trapf(runtime.TrapSignatureMismatch,
			"thread entry must be %s", runtime.ThreadEntryType())
	}

	ctx := caller.Compartment().NewContext()
	t := newThread(ctx, entry, arg)

	// One reference for this call scope, one for the spawned thread's
	// trampoline. The call-scoped reference keeps the object alive even
	// if the thread runs to completion before registration finishes.
	t.addRef(2)
	t.handle = platform.Spawn(func() int64 { return m.enter(t) })

	id := m.reg.allocate(t)
	t.removeRef()

	log.Debugf("created thread %d", id)
	return id, nil
}

// Fork duplicates the calling guest thread. The parent's execution
// context is cloned within the same compartment; the child reuses the
// parent's entry function and argument as of this instant. The fork
// call produces a value on both continuations: the fresh child id on
// the parent's, 0 on the child's. Fork must be called from a guest
// thread; the embedder routes all guest execution through Create.
func (m *Manager) Fork(call *runtime.Call) (int64, error) {
	parent := m.Current()
	if parent == nil {
		panic("threads: fork called outside a guest thread")
	}

	childCtx := call.Context.Clone()
	child := newThread(childCtx, parent.entry, parent.arg)

	// One reference per continuation; each releases its own below.
	child.addRef(2)

	child.handle = platform.Spawn(func() int64 {
		// Child continuation. Installing the control object through the
		// locator is the replace-with-barrier the fork protocol
		// requires; only then is guest state touched.
		m.setCurrent(child)
		defer m.clearCurrent()
		child.removeRef()

		childCtx.Push(0)
		result, err := runtime.Resume(childCtx)
		if err != nil {
			log.Errorf("forked thread trapped: %s", err.Error())
			return TrappedExitCode
		}
		return result
	})

	// Parent continuation.
	id := m.reg.allocate(child)
	child.removeRef()

	log.Debugf("forked thread %d", id)
	return int64(id), nil
}

// Exit terminates the calling guest thread with the given code. Never
// returns. The locator's reference is released by the trampoline's
// deferred teardown as the thread unwinds.
func (m *Manager) Exit(code int64) {
	platform.Exit(code)
}

// Join removes id from the registry, blocks until that thread has
// terminated, and returns its logical exit code (TrappedExitCode if
// the thread's guest code trapped). Fails with an invalid-argument
// trap when id is unknown or already removed.
func (m *Manager) Join(id uint64) (int64, error) {
	t, err := m.reg.remove(id)
	if err != nil {
		return 0, err
	}
	defer t.removeRef() // call-scoped ownership, released on every path

	code := t.handle.Join()
	t.handle = nil
	return code, nil
}

// Detach removes id from the registry and releases the thread resource
// without waiting; the thread keeps running and its control object
// stays alive until it releases its own reference.
func (m *Manager) Detach(id uint64) error {
	t, err := m.reg.remove(id)
	if err != nil {
		return err
	}
	defer t.removeRef()

	t.handle.Detach()
	t.handle = nil
	return nil
}
