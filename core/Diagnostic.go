package core

import (
	"errors"
	"fmt"
)

type DiagnosticKind string

const (
	UnresolvedRule      DiagnosticKind = "unresolved-rule"
	CrossProjectIssue   DiagnosticKind = "cross-project-issue"
	MalformedLineNumber DiagnosticKind = "malformed-line-number"
)

// Diagnostic records an issue that was dropped or degraded while parsing a report.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	RuleKey string         `json:"rule_key,omitempty"`
	Message string         `json:"message"`
	Report  string         `json:"report,omitempty"`
}

var (
	ErrMalformedReport  = errors.New("malformed report")
	ErrReportNotFound   = errors.New("report not found")
	ErrReportUnreadable = errors.New("report unreadable")
	// ErrNotApplicable means the current project is not part of a .NET solution.
	ErrNotApplicable = errors.New("project is not part of the solution")
)

// ParseError aborts the processing of a whole report.
type ParseError struct {
	Report string
	Kind   error
	Cause  error
}

func (e *ParseError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrReportNotFound):
		return fmt.Sprintf("cannot find FxCop result file: %s: %v", e.Report, e.Cause)
	case e.Cause == nil:
		return fmt.Sprintf("error while reading FxCop result file: %s: %v", e.Report, e.Kind)
	default:
		return fmt.Sprintf("error while reading FxCop result file: %s: %v: %v", e.Report, e.Kind, e.Cause)
	}
}

func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
