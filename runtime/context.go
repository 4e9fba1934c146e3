package runtime

import (
	"fmt"
	"sync/atomic"
)

// Frame is one activation record: the function being executed, its
// instruction pointer, operand stack, and local slots (parameters first).
type Frame struct {
	fn     *Function
	ip     int
	stack  []int64
	locals []int64
}

func (f *Frame) push(v int64) {
	f.stack = append(f.stack, v)
}

func (f *Frame) pop() (int64, error) {
	if len(f.stack) == 0 {
		return 0, Trapf(TrapOutOfBounds, "operand stack underflow in %q", f.fn.Name)
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *Frame) clone() *Frame {
	dup := &Frame{
		fn:     f.fn,
		ip:     f.ip,
		stack:  make([]int64, len(f.stack)),
		locals: make([]int64, len(f.locals)),
	}
	copy(dup.stack, f.stack)
	copy(dup.locals, f.locals)
	return dup
}

// Context is per-call-stack VM state within a compartment. The whole
// frame stack lives here rather than on the interpreter's Go stack, so a
// context can be cloned at any call boundary and resumed on a different
// OS thread.
type Context struct {
	compartment *Compartment
	id          uint64
	frames      []*Frame
	released    atomic.Bool
}

// Compartment returns the compartment this context belongs to.
func (c *Context) Compartment() *Compartment { return c.compartment }

// ID returns the context's compartment-scoped identity.
func (c *Context) ID() uint64 { return c.id }

// Clone duplicates the context within the same compartment: shared
// globals stay shared, frame state is deep-copied as of this instant.
func (c *Context) Clone() *Context {
	dup := c.compartment.NewContext()
	dup.frames = make([]*Frame, len(c.frames))
	for i, f := range c.frames {
		dup.frames[i] = f.clone()
	}
	return dup
}

// Push deposits a value on the top frame's operand stack. It is how a
// resumed continuation receives the result of the call it was cloned
// inside of (the fork child's 0 sentinel).
func (c *Context) Push(v int64) {
	if len(c.frames) == 0 {
		panic("runtime: Push on a context with no frames")
	}
	c.frames[len(c.frames)-1].push(v)
}

// Depth returns the number of live frames.
func (c *Context) Depth() int { return len(c.frames) }

// Release marks the context as dead for compartment accounting. Safe to
// call more than once.
func (c *Context) Release() {
	if c.released.CompareAndSwap(false, true) {
		c.compartment.liveContexts.Add(-1)
	}
}

func (c *Context) pushFrame(fn *Function, args []int64) error {
	if len(c.frames) >= c.compartment.maxCallDepth {
		return Trapf(TrapStackOverflow, "call depth %d", c.compartment.maxCallDepth)
	}
	locals := make([]int64, len(fn.Type.Params)+int(fn.Chunk.LocalCount))
	copy(locals, args)
	c.frames = append(c.frames, &Frame{fn: fn, locals: locals})
	return nil
}

// popFrame removes the top frame, propagating result to the caller frame
// when the returning function produces one. The second return value is
// true when the outermost frame returned; result then holds the final
// value.
func (c *Context) popFrame(result int64, hasResult bool) (int64, bool) {
	c.frames = c.frames[:len(c.frames)-1]
	if len(c.frames) == 0 {
		return result, true
	}
	if hasResult {
		c.frames[len(c.frames)-1].push(result)
	}
	return 0, false
}

func (c *Context) top() *Frame {
	return c.frames[len(c.frames)-1]
}

// String identifies the context for log messages.
func (c *Context) String() string {
	return fmt.Sprintf("context %d in compartment %s", c.id, c.compartment.id)
}
