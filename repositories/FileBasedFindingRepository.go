package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
)

// FileBasedFindingRepository writes each stored batch to its own JSON file.
type FileBasedFindingRepository struct {
	path  string
	files []string
}

func NewFileBasedFindingRepository(dir string) (*FileBasedFindingRepository, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create findings directory %s: %w", dir, err)
	}
	return &FileBasedFindingRepository{path: dir}, nil
}

func (r *FileBasedFindingRepository) Store(findings []core.Finding) error {
	jsonData, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}

	filePath := filepath.Join(r.path, utils.GenerateRandomFilename("json"))
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write findings file %s: %w", filePath, err)
	}
	r.files = append(r.files, filePath)
	return nil
}

// Clear removes only the files this repository created.
func (r *FileBasedFindingRepository) Clear() error {
	for _, file := range r.files {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove findings file %s: %w", file, err)
		}
	}
	r.files = nil
	return nil
}

func (r *FileBasedFindingRepository) Close() error {
	return nil
}

func (r *FileBasedFindingRepository) NewIterator() core.FindingIterator {
	return &FileBasedFindingIterator{repository: r}
}

// FileBasedFindingIterator loads one batch file per step.
type FileBasedFindingIterator struct {
	repository  *FileBasedFindingRepository
	currentFile int
	findingSet  core.FindingSet
}

func (it *FileBasedFindingIterator) HasNext() bool {
	for it.currentFile < len(it.repository.files) {
		if err := it.loadNextFile(); err != nil {
			log.Warnf("Error loading file %s: %v", it.repository.files[it.currentFile], err)
			it.currentFile++
			continue
		}
		return true
	}
	return false
}

func (it *FileBasedFindingIterator) Next() (core.FindingSet, error) {
	if it.findingSet.Findings == nil {
		return core.FindingSet{}, fmt.Errorf("no more findings available")
	}
	return it.findingSet, nil
}

func (it *FileBasedFindingIterator) Reset() error {
	it.currentFile = 0
	it.findingSet = core.FindingSet{}
	return nil
}

func (it *FileBasedFindingIterator) loadNextFile() error {
	filePath := it.repository.files[it.currentFile]
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	findings := []core.Finding{}
	if err := json.Unmarshal(data, &findings); err != nil {
		return fmt.Errorf("failed to parse JSON in file %s: %w", filePath, err)
	}

	it.findingSet = core.FindingSet{Findings: findings}
	it.currentFile++
	return nil
}
