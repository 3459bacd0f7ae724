package os

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckOutputFile verifies that a file can be created at path: its parent
// directory is created when missing and must be writable, and path itself
// must not be a directory.
func CheckOutputFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if !IsWritable(dir) {
		return fmt.Errorf("directory %s is not writable", dir)
	}

	finfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if finfo.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
