package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ".", config.Solution.Root)
	assert.Equal(t, []string{"*.Tests", "*.Test", "*Tests"}, config.Solution.TestPatterns)
	assert.Equal(t, "file", config.Storage.Kind)
	assert.Equal(t, "json", config.Report.Format)
	assert.Equal(t, log.InfoLevel, config.LogLevel())
	assert.NoError(t, config.Validate())

	timeout, err := config.FxCopTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, timeout)
}

func TestLoad_YAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".fxcopbridge.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
solution:
  project: Example.Core
  projects:
    - name: Example.Core
      directory: /src/Example/Core
    - name: Example.Specs
      directory: /src/Example/Specs
      test: true
  sources:
    - /src/Example

parser:
  encoding: windows-1252
  strict-line-numbers: true

rules:
  files:
    - company-rules.yaml

storage:
  kind: sqlite
  path: findings.db

report:
  format: sarif
  output-dir: out

log:
  level: debug
`), 0644))

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "Example.Core", config.Solution.Project)
	require.Len(t, config.Solution.Projects, 2)
	assert.Nil(t, config.Solution.Projects[0].Test)
	require.NotNil(t, config.Solution.Projects[1].Test)
	assert.True(t, *config.Solution.Projects[1].Test)
	assert.Equal(t, []string{"/src/Example"}, config.Solution.Sources)
	assert.Equal(t, "windows-1252", config.Parser.Encoding)
	assert.True(t, config.Parser.StrictLineNumbers)
	assert.Equal(t, []string{"company-rules.yaml"}, config.Rules.Files)
	assert.Equal(t, "sqlite", config.Storage.Kind)
	assert.Equal(t, "sarif", config.Report.Format)
	assert.Equal(t, "out", config.Report.OutputDir)
	assert.Equal(t, "fxcopbridge", config.Report.Prefix)
	assert.Equal(t, log.DebugLevel, config.LogLevel())
}

func TestLoad_TOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".fxcopbridge.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
[solution]
root = "/src/Example"
test-patterns = ["*.Specs"]

[fxcop]
assemblies = ["bin/Example.Core.dll"]
rule-sets = ["AllRules.ruleset"]
ignore-generated-code = true
timeout = "90s"

[storage]
kind = "bolt"
`), 0644))

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/src/Example", config.Solution.Root)
	assert.Equal(t, []string{"*.Specs"}, config.Solution.TestPatterns)
	assert.Equal(t, []string{"bin/Example.Core.dll"}, config.FxCop.Assemblies)
	assert.True(t, config.FxCop.IgnoreGeneratedCode)
	assert.Equal(t, "FxCopCmd.exe", config.FxCop.Executable)
	assert.Equal(t, "bolt", config.Storage.Kind)

	timeout, err := config.FxCopTimeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, timeout)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	testCases := map[string]string{
		"bad.yaml":     "solution: [",
		"level.yaml":   "log:\n  level: chatty\n",
		"storage.yaml": "storage:\n  kind: mongo\n",
		"timeout.toml": "[fxcop]\ntimeout = \"soon\"\n",
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	assert.Equal(t, "", FindConfigFile())
	assert.Equal(t, DefaultConfig(), LoadOrDefault())

	require.NoError(t, os.WriteFile(".fxcopbridge.yml", []byte("report:\n  format: xlsx\n"), 0644))
	assert.Equal(t, ".fxcopbridge.yml", FindConfigFile())
	assert.Equal(t, "xlsx", LoadOrDefault().Report.Format)
}
