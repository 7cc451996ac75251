package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed data/rules/*.yaml
var rulesFS embed.FS

// Default returns the repositories shipped with the binary.
func Default() (*Repository, error) {
	repository := NewRepository()
	if err := loadEmbedded(rulesFS, repository); err != nil {
		return nil, err
	}
	return repository, nil
}

// Load returns the default repositories overlaid with the rule sets found
// at paths, in order.
func Load(paths ...string) (*Repository, error) {
	repository, err := Default()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		set, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := repository.Merge(set); err != nil {
			return nil, fmt.Errorf("failed to load rules from %s: %w", path, err)
		}
		log.Debugf("Loaded rule set %s", path)
	}
	return repository, nil
}

// LoadFile reads a YAML or TOML rule set depending on the file extension.
func LoadFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file '%s': %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (RuleSet, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules YAML: %w", err)
	}
	return set, nil
}

func ParseTOML(data []byte) (RuleSet, error) {
	var set RuleSet
	if _, err := toml.Decode(string(data), &set); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules TOML: %w", err)
	}
	return set, nil
}

func loadEmbedded(fsys fs.FS, repository *Repository) error {
	files, err := fs.Glob(fsys, "data/rules/*.yaml")
	if err != nil {
		return fmt.Errorf("failed to list embedded rules: %w", err)
	}
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read embedded rules %s: %w", file, err)
		}
		set, err := ParseYAML(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := repository.Merge(set); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}
