//go:build !linux

package thread

import "os"

// gettid has no portable equivalent off Linux; killOneOne on these
// hosts falls back to a process-wide signal anyway, so the value is
// not used for signal delivery.
func gettid() int {
	return os.Getpid()
}
