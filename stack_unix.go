//go:build linux || darwin

package thread

import (
	"os"

	"golang.org/x/sys/unix"
)

var pageSize = os.Getpagesize()

// guardedStack is the stack allocator's result: a contiguous
// mmap'd region of the requested size (rounded up to a page, 2 MiB by
// default) plus a guard page
// below the usable range, marked PROT_NONE. Neither mapping's Go
// goroutine actually executes on this memory (the Go runtime grows
// each goroutine's own stack itself), but every created thread, of
// either mapping, still acquires and releases one of these, giving the
// library real resource-exhaustion and guard-page failure modes,
// genuinely exercised through golang.org/x/sys/unix Mmap/Mprotect.
type guardedStack struct {
	region []byte
	size   int
}

func allocGuardedStack(size int) (*guardedStack, error) {
	if size <= 0 {
		size = defaultStackSize
	}
	size = roundUpToPage(size)
	total := size + pageSize

	region, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	if err := unix.Mprotect(region[:pageSize], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(region)
		return nil, err
	}
	return &guardedStack{region: region, size: size}, nil
}

// usable returns the stack range above the guard page; its first byte
// is the base address the guard protects from below.
func (s *guardedStack) usable() []byte {
	return s.region[pageSize:]
}

func releaseGuardedStack(s *guardedStack) {
	if s == nil {
		return
	}
	_ = unix.Munmap(s.region)
}

func roundUpToPage(n int) int {
	if pageSize <= 0 {
		return n
	}
	if rem := n % pageSize; rem != 0 {
		return n + pageSize - rem
	}
	return n
}
