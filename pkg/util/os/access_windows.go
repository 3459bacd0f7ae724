//go:build windows
// +build windows

package os

import "golang.org/x/sys/windows"

// IsWritable reports whether directory exists and is not marked read-only.
func IsWritable(directory string) bool {
	p, err := windows.UTF16PtrFromString(directory)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_DIRECTORY != 0 && attrs&windows.FILE_ATTRIBUTE_READONLY == 0
}
