// Package solution models the set of .NET projects a report is analysed
// against.
package solution

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/reaandrew/fxcopbridge/core"
	log "github.com/sirupsen/logrus"
)

// DefaultTestPatterns match the names of test projects.
var DefaultTestPatterns = []string{"*.Tests", "*.Test", "*Tests"}

var skippedDirs = map[string]bool{"bin": true, "obj": true, ".git": true, ".vs": true, "node_modules": true}

// Solution is a fixed list of projects.
type Solution struct {
	projects []core.Project
}

func New(projects ...core.Project) *Solution {
	s := &Solution{}
	for _, project := range projects {
		project.Directory = cleanPath(project.Directory)
		s.projects = append(s.projects, project)
	}
	return s
}

func (s *Solution) Projects() []core.Project {
	return append([]core.Project(nil), s.projects...)
}

func (s *Solution) ProjectByName(name string) (core.Project, bool) {
	for _, project := range s.projects {
		if project.Name == name {
			return project, true
		}
	}
	return core.Project{}, false
}

// ProjectOf returns the project whose directory is the longest prefix of path.
func (s *Solution) ProjectOf(path string) (core.Project, bool) {
	path = cleanPath(path)
	var owner core.Project
	found := false
	for _, project := range s.projects {
		if !within(path, project.Directory) {
			continue
		}
		if !found || len(project.Directory) > len(owner.Directory) {
			owner = project
			found = true
		}
	}
	return owner, found
}

// Discover builds a solution from every *.csproj file under root. A project
// is a test project when its name matches one of testPatterns, or one of
// DefaultTestPatterns when none are given.
func Discover(root string, testPatterns []string) (*Solution, error) {
	matcher, err := NewTestMatcher(testPatterns)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read solution directory '%s': %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", root)
	}

	var projects []core.Project
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".csproj") {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		projects = append(projects, core.Project{
			Name:      name,
			Directory: filepath.Dir(path),
			Test:      matcher.Match(name),
		})
		log.Debugf("Discovered project %s in %s", name, filepath.Dir(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover projects in '%s': %w", root, err)
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return New(projects...), nil
}

// ProjectConfig declares a project explicitly. A nil Test is decided by
// the test patterns.
type ProjectConfig struct {
	Name      string `yaml:"name" toml:"name"`
	Directory string `yaml:"directory" toml:"directory"`
	Test      *bool  `yaml:"test,omitempty" toml:"test,omitempty"`
}

func FromConfig(entries []ProjectConfig, testPatterns []string) (*Solution, error) {
	matcher, err := NewTestMatcher(testPatterns)
	if err != nil {
		return nil, err
	}
	projects := make([]core.Project, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "" || entry.Directory == "" {
			return nil, fmt.Errorf("project entry needs a name and a directory: %+v", entry)
		}
		project := core.Project{Name: entry.Name, Directory: entry.Directory, Test: matcher.Match(entry.Name)}
		if entry.Test != nil {
			project.Test = *entry.Test
		}
		projects = append(projects, project)
	}
	return New(projects...), nil
}

// TestMatcher recognises test projects by name.
type TestMatcher struct {
	globs []glob.Glob
}

func NewTestMatcher(patterns []string) (*TestMatcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultTestPatterns
	}
	matcher := &TestMatcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid test project pattern '%s': %w", pattern, err)
		}
		matcher.globs = append(matcher.globs, g)
	}
	return matcher, nil
}

func (m *TestMatcher) Match(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
