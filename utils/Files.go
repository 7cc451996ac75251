package utils

import (
	"fmt"
	"os"
)

// RemoveFileIfExists deletes a stale database or report artifact. A missing
// file is not an error; a directory is refused.
func RemoveFileIfExists(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path %s is a directory, not a file", path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}
