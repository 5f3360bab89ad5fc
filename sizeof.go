package thread

// These constants are used to pad hot structures so frequently-touched
// fields (the descriptor's wait word group, a carrier's current thread)
// don't share a cache line with unrelated data and cause false sharing
// across carriers.
const (
	// sizeOfCacheLine is the size of a CPU cache line.
	// 64 bytes is standard for x86-64.
	// 128 bytes is standard for Apple Silicon (M1/M2/M3) and other ARM64.
	// We use 128 to satisfy the largest common alignment requirement.
	sizeOfCacheLine = 128

	// sizeOfAtomicUint64 is the size of an atomic.Uint64 variable.
	sizeOfAtomicUint64 = 8
)
