package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultMaxCallDepth bounds the interpreter frame stack when the
// embedder does not configure a limit.
const DefaultMaxCallDepth = 512

// Compartment is the isolation unit grouping related execution contexts.
// Contexts created in (or cloned within) a compartment share its mutable
// globals - the linear state forked threads keep sharing - while each
// context owns its call-frame state exclusively.
type Compartment struct {
	id uuid.UUID

	mu      sync.RWMutex
	globals []int64

	maxCallDepth int

	nextContext atomic.Uint64
	liveContexts atomic.Int64
}

// NewCompartment creates a compartment with the given number of shared
// global slots, all zero.
func NewCompartment(numGlobals int) *Compartment {
	return &Compartment{
		id:           uuid.New(),
		globals:      make([]int64, numGlobals),
		maxCallDepth: DefaultMaxCallDepth,
	}
}

// ID returns the compartment's identity.
func (c *Compartment) ID() uuid.UUID { return c.id }

// SetMaxCallDepth configures the interpreter frame limit for contexts in
// this compartment. Values below 1 restore the default.
func (c *Compartment) SetMaxCallDepth(depth int) {
	if depth < 1 {
		depth = DefaultMaxCallDepth
	}
	c.maxCallDepth = depth
}

// Global reads a shared global slot.
func (c *Compartment) Global(index int) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.globals) {
		return 0, Trapf(TrapOutOfBounds, "global %d of %d", index, len(c.globals))
	}
	return c.globals[index], nil
}

// SetGlobal writes a shared global slot.
func (c *Compartment) SetGlobal(index int, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.globals) {
		return Trapf(TrapOutOfBounds, "global %d of %d", index, len(c.globals))
	}
	c.globals[index] = value
	return nil
}

// NewContext allocates a fresh execution context in this compartment.
func (c *Compartment) NewContext() *Context {
	c.liveContexts.Add(1)
	return &Context{
		compartment: c,
		id:          c.nextContext.Add(1),
	}
}

// LiveContexts returns the number of contexts allocated in this
// compartment and not yet released.
func (c *Compartment) LiveContexts() int64 {
	return c.liveContexts.Load()
}
