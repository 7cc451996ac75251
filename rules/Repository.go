// Package rules holds the FxCop rule repositories findings are matched against.
package rules

import (
	"fmt"
	"sort"

	"github.com/reaandrew/fxcopbridge/core"
)

// RuleSet is the on-disk form of a set of rule repositories, keyed by
// repository key.
type RuleSet struct {
	Repositories map[string][]core.Rule `yaml:"repositories" toml:"repositories"`
}

// Repository is an in-memory rule finder.
type Repository struct {
	rules map[core.RuleKey]core.Rule
}

func NewRepository() *Repository {
	return &Repository{rules: make(map[core.RuleKey]core.Rule)}
}

// Add registers rule, replacing any rule with the same repository and key.
func (r *Repository) Add(rule core.Rule) error {
	if rule.Repository == "" || rule.Key == "" {
		return fmt.Errorf("rule %q has no repository or key", rule.Key)
	}
	severity, err := core.ParseSeverity(string(rule.Severity))
	if err != nil {
		return fmt.Errorf("invalid rule %s: %w", rule.RuleKey(), err)
	}
	rule.Severity = severity
	r.rules[rule.RuleKey()] = rule
	return nil
}

// Merge layers set over the rules already registered.
func (r *Repository) Merge(set RuleSet) error {
	for repository, rules := range set.Repositories {
		for _, rule := range rules {
			rule.Repository = repository
			if err := r.Add(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repository) Find(repository, key string) (core.Rule, bool) {
	rule, ok := r.rules[core.RuleKey{Repository: repository, Key: key}]
	return rule, ok
}

func (r *Repository) Len() int {
	return len(r.rules)
}

// All returns the rules sorted by repository then key.
func (r *Repository) All() []core.Rule {
	all := make([]core.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		all = append(all, rule)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Repository != all[j].Repository {
			return all[i].Repository < all[j].Repository
		}
		return all[i].Key < all[j].Key
	})
	return all
}

func (r *Repository) Repositories() []string {
	seen := make(map[string]struct{})
	var repositories []string
	for key := range r.rules {
		if _, ok := seen[key.Repository]; !ok {
			seen[key.Repository] = struct{}{}
			repositories = append(repositories, key.Repository)
		}
	}
	sort.Strings(repositories)
	return repositories
}
