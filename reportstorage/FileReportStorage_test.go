package reportstorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReportStorage_Store(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	storage, err := CreateFileReportStorage("example", dir)
	require.NoError(t, err)

	path, err := storage.Store("summary.json", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "example_summary.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestFileReportStorage_PathWithoutPrefix(t *testing.T) {
	storage := FileReportStorage{}
	assert.Equal(t, "report.sarif", storage.Path("report.sarif"))
}
