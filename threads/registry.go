package threads

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/dio/wavm/runtime"
)

// registry maps small positive integer ids to control objects. The
// mutex protects only the mapping; critical sections are O(1)-ish and
// never block. Freed ids are recycled smallest-first.
type registry struct {
	mu      sync.Mutex
	threads map[uint64]*Thread
	free    idHeap
	next    uint64 // next never-allocated id
}

func newRegistry() *registry {
	return &registry{
		threads: make(map[uint64]*Thread),
		next:    1,
	}
}

// allocate assigns the smallest available positive id, stores the
// mapping, and takes the registry slot's reference. Never returns zero.
func (r *registry) allocate(t *Thread) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id uint64
	if r.free.Len() > 0 {
		id = heap.Pop(&r.free).(uint64)
	} else {
		id = r.next
		r.next++
	}

	t.addRef(1) // the slot owns one reference
	t.id = id
	r.threads[id] = t
	return id
}

// validate reports whether id is nonzero and currently mapped.
func (r *registry) validate(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.threads[id]
	return id != 0 && ok
}

// remove unmaps id and transfers the slot's reference to the caller.
// Exactly one of two racing removers can win; the loser observes an
// invalid-argument trap. A slot whose object disagrees about its own id
// is a refcounting or registry bug and is fatal.
func (r *registry) remove(id uint64) (*Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.threads[id]
	if id == 0 || !ok {
		return nil, runtime.Trapf(runtime.TrapInvalidArgument, "unknown thread id %d", id)
	}
	if t.id != id {
		panic(fmt.Sprintf("threads: registry slot %d holds thread with id %d", id, t.id))
	}

	delete(r.threads, id)
	heap.Push(&r.free, id)
	t.id = unregisteredID
	return t, nil
}

// size returns the number of registered threads.
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

// idHeap is a min-heap of recycled ids, so allocate can hand out the
// smallest free id first.
type idHeap []uint64

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
