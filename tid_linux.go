//go:build linux

package thread

import "golang.org/x/sys/unix"

// gettid returns the kernel task id backing the calling goroutine's
// locked OS thread, the same id tgkill targets.
func gettid() int {
	return unix.Gettid()
}
