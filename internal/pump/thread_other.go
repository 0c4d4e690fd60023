//go:build !linux

package pump

// Thread identity is not checked outside Linux.
func currentThread() int {
	return 0
}
