package fxcop

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/reaandrew/fxcopbridge/core"
	log "github.com/sirupsen/logrus"
)

// resolver turns the issues reported by the walker into findings.
// repositoryKey is fixed for the whole run; rule and typeResource track the
// Message and Type nodes currently open in the walk.
type resolver struct {
	project       core.Project
	repositoryKey string
	report        string
	strictLines   bool

	rules     core.RuleFinder
	resources core.ResourceResolver
	solution  core.Solution
	sink      core.FindingSink

	rule         core.Rule
	typeResource *core.Resource

	findings    int
	diagnostics []core.Diagnostic
}

func newResolver(p *ResultParser, repositoryKey, report string, sink core.FindingSink) *resolver {
	return &resolver{
		project:       p.project,
		repositoryKey: repositoryKey,
		report:        report,
		strictLines:   p.strictLines,
		rules:         p.rules,
		resources:     p.resources,
		solution:      p.solution,
		sink:          sink,
	}
}

func (r *resolver) EnterType(scope TypeScope) error {
	r.typeResource = r.resources.ResolveType(scope.Namespace, scope.Name)
	return nil
}

func (r *resolver) EnterMessage(scope MessageScope) (bool, error) {
	rule, found := r.rules.Find(r.repositoryKey, scope.RuleKey)
	if !found {
		message := "Could not find the following rule in the FxCop rule repository: " + scope.RuleKey
		if scope.Scope == ScopeType {
			log.Warn(message)
		} else {
			log.Debug(message)
		}
		r.diagnose(core.UnresolvedRule, scope.RuleKey, message)
		return false, nil
	}
	r.rule = rule
	return true, nil
}

func (r *resolver) Issue(ctx IssueContext) error {
	target, accepted := r.resolveTarget(ctx)
	if !accepted {
		return nil
	}

	finding := core.Finding{
		Rule:     r.rule,
		Target:   target,
		Severity: r.rule.Severity,
		Message:  ctx.Message,
		Project:  r.project.Name,
		Report:   r.report,
	}

	if ctx.HasLine {
		line, err := strconv.Atoi(ctx.Line)
		switch {
		case err != nil && r.strictLines:
			return &core.ParseError{
				Kind:  core.ErrMalformedReport,
				Cause: fmt.Errorf("invalid line number %q for rule %s: %w", ctx.Line, ctx.RuleKey, err),
			}
		case err != nil || line <= 0:
			// Line 0 would read as "no line", so non-positive lines are dropped too.
			message := fmt.Sprintf("Invalid line number %q for rule %s, keeping the violation without a line", ctx.Line, ctx.RuleKey)
			log.Warn(message)
			r.diagnose(core.MalformedLineNumber, ctx.RuleKey, message)
		default:
			finding.Line = line
		}
	}

	if err := r.sink.Emit(finding); err != nil {
		return fmt.Errorf("failed to save violation for rule %s: %w", ctx.RuleKey, err)
	}
	r.findings++
	return nil
}

func (r *resolver) resolveTarget(ctx IssueContext) (core.Target, bool) {
	if ctx.Scope == ScopeProject {
		return core.ProjectTarget(r.project.Resource()), true
	}

	if ctx.Path != "" && ctx.File != "" {
		sourceFile := absolutePath(filepath.Join(ctx.Path, ctx.File))
		owner, found := r.solution.ProjectOf(sourceFile)
		if found && owner.Equal(r.project) {
			return core.FileTarget(r.resources.ResolveFile(sourceFile)), true
		}
		log.Debugf("Ignoring file outside current project : %s", sourceFile)
		r.diagnose(core.CrossProjectIssue, ctx.RuleKey, "file outside current project: "+sourceFile)
		return core.Target{}, false
	}

	if r.typeResource == nil || r.resources.IsInProject(r.typeResource, r.project) {
		return core.TypeTarget(r.typeResource), true
	}
	log.Debugf("Ignoring type outside current project : %s", r.typeResource.Key)
	r.diagnose(core.CrossProjectIssue, ctx.RuleKey, "type outside current project: "+r.typeResource.Key)
	return core.Target{}, false
}

func (r *resolver) diagnose(kind core.DiagnosticKind, ruleKey, message string) {
	r.diagnostics = append(r.diagnostics, core.Diagnostic{
		Kind:    kind,
		RuleKey: ruleKey,
		Message: message,
		Report:  r.report,
	})
}

func absolutePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
