// Package config loads the fxcopbridge configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/reaandrew/fxcopbridge/solution"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var configFileNames = []string{".fxcopbridge.yaml", ".fxcopbridge.yml", ".fxcopbridge.toml"}

// Config represents the fxcopbridge configuration
type Config struct {
	Solution SolutionConfig `yaml:"solution" toml:"solution"`
	Parser   ParserConfig   `yaml:"parser" toml:"parser"`
	Rules    RulesConfig    `yaml:"rules" toml:"rules"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Report   ReportConfig   `yaml:"report" toml:"report"`
	FxCop    FxCopConfig    `yaml:"fxcop" toml:"fxcop"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// SolutionConfig describes the projects reports are analysed against.
// Projects listed explicitly win over discovery from Root.
type SolutionConfig struct {
	Root         string                   `yaml:"root" toml:"root"`
	Project      string                   `yaml:"project" toml:"project"`
	TestPatterns []string                 `yaml:"test-patterns" toml:"test-patterns"`
	Projects     []solution.ProjectConfig `yaml:"projects" toml:"projects"`
	Sources      []string                 `yaml:"sources" toml:"sources"`
}

type ParserConfig struct {
	Encoding          string `yaml:"encoding" toml:"encoding"`
	StrictLineNumbers bool   `yaml:"strict-line-numbers" toml:"strict-line-numbers"`
}

// RulesConfig lists rule set files layered over the built-in rules.
type RulesConfig struct {
	Files []string `yaml:"files" toml:"files"`
}

type StorageConfig struct {
	Kind string `yaml:"kind" toml:"kind"` // file, sqlite, bolt
	Path string `yaml:"path" toml:"path"`
}

type ReportConfig struct {
	Format    string   `yaml:"format" toml:"format"` // json, xlsx, sarif, http
	OutputDir string   `yaml:"output-dir" toml:"output-dir"`
	Prefix    string   `yaml:"prefix" toml:"prefix"`
	BaseURL   string   `yaml:"base-url" toml:"base-url"`
	Queries   string   `yaml:"queries" toml:"queries"`
	Patterns  []string `yaml:"patterns" toml:"patterns"`
}

type FxCopConfig struct {
	Executable          string   `yaml:"executable" toml:"executable"`
	Assemblies          []string `yaml:"assemblies" toml:"assemblies"`
	RuleSets            []string `yaml:"rule-sets" toml:"rule-sets"`
	Dictionary          string   `yaml:"dictionary" toml:"dictionary"`
	IgnoreGeneratedCode bool     `yaml:"ignore-generated-code" toml:"ignore-generated-code"`
	Timeout             string   `yaml:"timeout" toml:"timeout"`
	Output              string   `yaml:"output" toml:"output"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Solution: SolutionConfig{
			Root:         ".",
			TestPatterns: append([]string(nil), solution.DefaultTestPatterns...),
		},
		Storage: StorageConfig{Kind: "file"},
		Report: ReportConfig{
			Format:    "json",
			OutputDir: ".",
			Prefix:    "fxcopbridge",
		},
		FxCop: FxCopConfig{
			Executable: "FxCopCmd.exe",
			Timeout:    "10m",
			Output:     "fxcop-report.xml",
		},
		Log: LogConfig{
			Level: "info",
			File:  "fxcopbridge.log",
		},
	}
}

// Load reads a YAML or TOML configuration file, chosen by extension, over
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	config := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return config, nil
}

// FindConfigFile searches the current directory and then the home
// directory. It returns "" when there is no config file.
func FindConfigFile() string {
	for _, candidate := range configFileNames {
		if fileExists(candidate) {
			return candidate
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		for _, candidate := range configFileNames {
			path := filepath.Join(homeDir, candidate)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the discovered config file, falling back to defaults
// when there is none or it cannot be read.
func LoadOrDefault() *Config {
	configPath := FindConfigFile()
	if configPath == "" {
		return DefaultConfig()
	}

	config, err := Load(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s, using defaults: %v", configPath, err)
		return DefaultConfig()
	}
	return config
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := c.FxCopTimeout(); err != nil {
		return err
	}
	switch c.Storage.Kind {
	case "file", "sqlite", "bolt":
	default:
		return fmt.Errorf("unknown storage kind: %s", c.Storage.Kind)
	}
	return nil
}

// LogLevel falls back to info for an unknown level.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func (c *Config) FxCopTimeout() (time.Duration, error) {
	if c.FxCop.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.FxCop.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid fxcop timeout %q: %w", c.FxCop.Timeout, err)
	}
	return timeout, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
