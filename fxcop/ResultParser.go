// Package fxcop reads the XML reports produced by FxCop and turns the issues
// they contain into findings attached to the resources of a .NET project.
package fxcop

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/reaandrew/fxcopbridge/core"
	log "github.com/sirupsen/logrus"
)

// Summary describes the outcome of parsing one report.
type Summary struct {
	Report      string            `json:"report"`
	Findings    int               `json:"findings"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
}

// Opener opens a report for reading.
type Opener func(path string) (io.ReadCloser, error)

type Option func(*ResultParser)

// WithEncoding forces the character set used to read reports.
func WithEncoding(name string) Option {
	return func(p *ResultParser) {
		p.encoding = name
	}
}

// WithStrictLineNumbers makes an unparsable Line attribute abort the parse
// call instead of dropping the line from the finding.
func WithStrictLineNumbers(strict bool) Option {
	return func(p *ResultParser) {
		p.strictLines = strict
	}
}

func WithOpener(open Opener) Option {
	return func(p *ResultParser) {
		p.open = open
	}
}

// ResultParser parses the FxCop reports of one project.
type ResultParser struct {
	solution  core.Solution
	project   core.Project
	rules     core.RuleFinder
	resources core.ResourceResolver

	encoding    string
	strictLines bool
	open        Opener
	walker      *Walker
}

// NewResultParser returns core.ErrNotApplicable when there is no solution or
// projectName is not one of its projects.
func NewResultParser(solution core.Solution, projectName string, rules core.RuleFinder,
	resources core.ResourceResolver, opts ...Option) (*ResultParser, error) {
	if solution == nil {
		return nil, core.ErrNotApplicable
	}
	project, found := solution.ProjectByName(projectName)
	if !found {
		return nil, fmt.Errorf("%w: %s", core.ErrNotApplicable, projectName)
	}

	p := &ResultParser{
		solution:  solution,
		project:   project,
		rules:     rules,
		resources: resources,
		open:      openFile,
	}
	for _, opt := range opts {
		opt(p)
	}

	walker, err := NewWalker(p.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create FxCop report walker: %w", err)
	}
	p.walker = walker
	return p, nil
}

func (p *ResultParser) Project() core.Project {
	return p.project
}

// Parse reads the report at path and emits its findings to sink. The report
// is closed before Parse returns, whatever the outcome.
func (p *ResultParser) Parse(path string, sink core.FindingSink) (Summary, error) {
	reader, err := p.open(path)
	if err != nil {
		kind := core.ErrReportUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			kind = core.ErrReportNotFound
		}
		return Summary{Report: path}, &core.ParseError{Report: absolutePath(path), Kind: kind, Cause: err}
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Debugf("Failed to close FxCop result file %s: %v", path, err)
		}
	}()

	return p.ParseReader(path, reader, sink)
}

// ParseReader parses a report that is already open; name identifies it in
// errors and diagnostics.
func (p *ResultParser) ParseReader(name string, r io.Reader, sink core.FindingSink) (Summary, error) {
	repositoryKey := core.RepositoryKeyFor(p.project)
	log.Debugf("Parsing FxCop report %s for project %s with rule repository %s", name, p.project.Name, repositoryKey)

	res := newResolver(p, repositoryKey, name, sink)
	err := p.walker.Walk(r, res)

	summary := Summary{
		Report:      name,
		Findings:    res.findings,
		Diagnostics: res.diagnostics,
	}
	if err != nil {
		var parseErr *core.ParseError
		if errors.As(err, &parseErr) && parseErr.Report == "" {
			parseErr.Report = absolutePath(name)
		}
		return summary, err
	}

	log.Infof("Parsed FxCop report %s: %d violations, %d skipped issues", name, summary.Findings, len(summary.Diagnostics))
	return summary, nil
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
