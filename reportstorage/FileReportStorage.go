package reportstorage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileReportStorage places report artifacts in OutputDir, each name prefixed
// with ArtifactPrefix.
type FileReportStorage struct {
	ArtifactPrefix string
	OutputDir      string
}

func CreateFileReportStorage(artifactPrefix, outputDir string) (FileReportStorage, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return FileReportStorage{}, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return FileReportStorage{
		ArtifactPrefix: artifactPrefix,
		OutputDir:      outputDir,
	}, nil
}

// Path returns where the artifact called name is written.
func (s FileReportStorage) Path(name string) string {
	dir := s.OutputDir
	if dir == "" {
		dir = "."
	}
	if s.ArtifactPrefix != "" {
		name = fmt.Sprintf("%s_%s", s.ArtifactPrefix, name)
	}
	return filepath.Join(dir, name)
}

func (s FileReportStorage) Create(name string) (*os.File, error) {
	path := s.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	return file, nil
}

// Store writes data to the artifact called name and returns its path.
func (s FileReportStorage) Store(name string, data []byte) (string, error) {
	path := s.Path(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file %s: %w", path, err)
	}
	return path, nil
}
