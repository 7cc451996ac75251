package core

import (
	"fmt"
	"strings"
)

const (
	// RepositoryKey holds the rules applied to regular projects.
	RepositoryKey = "fxcop"
	// TestRepositoryKey holds the rules applied to test projects.
	TestRepositoryKey = "fxcop-test"
)

type Severity string

const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityInfo     Severity = "INFO"
)

var severities = []Severity{SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor, SeverityInfo}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(s string) (Severity, error) {
	for _, severity := range severities {
		if strings.EqualFold(string(severity), strings.TrimSpace(s)) {
			return severity, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// RuleKey identifies a rule inside a rule repository.
type RuleKey struct {
	Repository string `json:"repository"`
	Key        string `json:"key"`
}

func (k RuleKey) String() string {
	return k.Repository + ":" + k.Key
}

type Rule struct {
	Repository  string   `json:"repository" yaml:"-" toml:"-"`
	Key         string   `json:"key" yaml:"key" toml:"key"`
	Name        string   `json:"name,omitempty" yaml:"name" toml:"name"`
	Severity    Severity `json:"severity" yaml:"severity" toml:"severity"`
	Category    string   `json:"category,omitempty" yaml:"category" toml:"category"`
	Description string   `json:"description,omitempty" yaml:"description" toml:"description"`
}

func (r Rule) RuleKey() RuleKey {
	return RuleKey{Repository: r.Repository, Key: r.Key}
}

// RuleFinder looks up a rule by repository and key.
type RuleFinder interface {
	Find(repository, key string) (Rule, bool)
}

// RepositoryKeyFor selects the rule repository used for every lookup made
// while analysing the given project.
func RepositoryKeyFor(project Project) string {
	if project.Test {
		return TestRepositoryKey
	}
	return RepositoryKey
}
