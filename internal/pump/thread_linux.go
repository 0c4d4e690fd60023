//go:build linux

package pump

import "golang.org/x/sys/unix"

func currentThread() int {
	return unix.Gettid()
}
