// Package arena provides a generic paged-pool allocator used to back the IR's
// node storage: values, basic blocks and branch targets are all allocated
// from a Pool so that pointers into it stay valid for the arena's entire
// lifetime and bulk-reset is O(pages) instead of O(values).
package arena

const poolPageSize = 128

// Pool is a page-backed arena of T: Allocate hands out a stable *T, Reset
// releases every one at once. IR node types lean on this to get pointer
// identity (two Values are the same node iff their pointers are equal)
// without a heap allocation per node.
type Pool[T any] struct {
	pages            []*[poolPageSize]T
	allocated, index int
}

// NewPool returns a new Pool.
func NewPool[T any]() Pool[T] {
	var ret Pool[T]
	ret.Reset()
	return ret
}

// Allocated returns the number of allocated T currently in the pool.
func (p *Pool[T]) Allocated() int {
	return p.allocated
}

// Allocate allocates a new T from the pool.
func (p *Pool[T]) Allocate() *T {
	if p.index == poolPageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([poolPageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([poolPageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret
}

// View returns the pointer the pool handed back as the i-th Allocate call's
// result. That pointer is stable for as long as this Pool itself lives: it
// points into a fixed-size page that Allocate never reallocates once
// claimed, so a Value/BasicBlock/BranchTarget's address survives every later
// Allocate on the same pool and only goes stale across a Reset.
func (p *Pool[T]) View(i int) *T {
	page, index := i/poolPageSize, i%poolPageSize
	return &p.pages[page][index]
}

// Reset resets the pool so every previously allocated T is released for
// reuse; existing pointers into the pool must not be dereferenced afterward.
func (p *Pool[T]) Reset() {
	for _, ns := range p.pages {
		pages := ns[:]
		for i := range pages {
			var v T
			pages[i] = v
		}
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
	p.allocated = 0
}
