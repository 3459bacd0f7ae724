//go:build !windows
// +build !windows

package os

import "golang.org/x/sys/unix"

// IsWritable reports whether the current user can create files in directory.
func IsWritable(directory string) bool {
	return unix.Access(directory, unix.W_OK) == nil
}
