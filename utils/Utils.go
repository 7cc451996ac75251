package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func GenerateRandomFilename(extension string) string {
	return fmt.Sprintf("%s.%s", uuid.New().String(), extension)
}

// CountFiles counts the regular files directly inside dirPath. A non-empty
// extension (without the dot) restricts the count to that extension.
func CountFiles(dirPath, extension string) (int, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if extension == "" || strings.EqualFold(filepath.Ext(entry.Name()), "."+extension) {
			count++
		}
	}
	return count, nil
}

// Sanitize turns a project or report name into something usable as a file
// name prefix.
func Sanitize(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return strings.ToLower(replacer.Replace(name))
}
