package repositories

import (
	"fmt"
	"path/filepath"

	"github.com/reaandrew/fxcopbridge/core"
)

const (
	FileStorage   = "file"
	SqliteStorage = "sqlite"
	BoltStorage   = "bolt"
)

// NewFindingRepository creates the repository for kind. path is a directory
// for file storage and a database file otherwise.
func NewFindingRepository(kind, path string) (core.FindingRepository, error) {
	switch kind {
	case "", FileStorage:
		return NewFileBasedFindingRepository(path)
	case SqliteStorage:
		if path == "" {
			path = filepath.Join(".", "fxcopbridge_findings.db")
		}
		return NewSqliteFindingRepository(path)
	case BoltStorage:
		if path == "" {
			path = filepath.Join(".", "fxcopbridge_findings.bolt")
		}
		return NewBoltFindingRepository(path)
	}
	return nil, fmt.Errorf("unknown storage kind: %s", kind)
}
