package thread

import "sync"

// idAllocator is a monotonic counter guarded by a lock. Ids are never
// recycled within one process lifetime and are unique across both
// mappings.
type idAllocator struct {
	mu   sync.Mutex
	next int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{next: 1}
}

// allocate returns the next id then increments the counter.
func (a *idAllocator) allocate() int {
	a.mu.Lock()
	id := a.next
	a.next++
	a.mu.Unlock()
	return id
}
