package fxcop

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var allRuleKeys = []string{
	"AvoidNamespacesWithFewTypes",
	"AssembliesShouldHaveValidStrongNames",
	"IdentifiersShouldBeCasedCorrectly",
	"TypesShouldNotExtendCertainBaseTypes",
}

func newParser(t *testing.T, projectName string, rules core.RuleFinder, resources core.ResourceResolver, opts ...Option) *ResultParser {
	t.Helper()
	solution := fakeSolution{projects: []core.Project{coreProject, testsProject, otherProject}}
	parser, err := NewResultParser(solution, projectName, rules, resources, opts...)
	require.NoError(t, err)
	return parser
}

func parseString(t *testing.T, parser *ResultParser, report string) (Summary, *collectingSink, error) {
	t.Helper()
	sink := &collectingSink{}
	summary, err := parser.ParseReader("report.xml", strings.NewReader(report), sink)
	return summary, sink, err
}

func TestNewResultParser_NotApplicable(t *testing.T) {
	t.Run("no solution", func(t *testing.T) {
		_, err := NewResultParser(nil, "Example.Core", fakeRules{}, &fakeResources{})
		assert.ErrorIs(t, err, core.ErrNotApplicable)
	})

	t.Run("project outside solution", func(t *testing.T) {
		solution := fakeSolution{projects: []core.Project{coreProject}}
		_, err := NewResultParser(solution, "Unknown", fakeRules{}, &fakeResources{})
		assert.ErrorIs(t, err, core.ErrNotApplicable)
	})

	t.Run("bad encoding", func(t *testing.T) {
		solution := fakeSolution{projects: []core.Project{coreProject}}
		_, err := NewResultParser(solution, "Example.Core", fakeRules{}, &fakeResources{}, WithEncoding("nope"))
		assert.ErrorIs(t, err, ErrUnsupportedEncoding)
	})
}

func TestResultParser_FullReport(t *testing.T) {
	resources := &fakeResources{types: map[string]*core.Resource{
		"Example.Core.Money": {Kind: core.TypeResource, Key: "Example.Core.Money", Path: "/src/Example/Core/Money.cs"},
	}}
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, allRuleKeys...), resources)

	summary, sink, err := parseString(t, parser, fullReport)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Findings)
	assert.Empty(t, summary.Diagnostics)
	require.Len(t, sink.findings, 4)

	projectFinding := sink.findings[0]
	assert.Equal(t, core.ProjectLevel, projectFinding.Target.Kind)
	assert.Equal(t, coreProject.Name, projectFinding.Target.Resource.Key)
	assert.Equal(t, "AvoidNamespacesWithFewTypes", projectFinding.Rule.Key)
	assert.Equal(t, core.SeverityMajor, projectFinding.Severity)
	assert.Zero(t, projectFinding.Line)

	fileFinding := sink.findings[2]
	assert.Equal(t, core.FileLevel, fileFinding.Target.Kind)
	assert.Equal(t, "/src/Example/Core/Money.cs", fileFinding.Path())
	assert.Equal(t, 12, fileFinding.Line)
	assert.Equal(t, "Correct the casing of 'add'.", fileFinding.Message)
	assert.Equal(t, "report.xml", fileFinding.Report)
	assert.Equal(t, coreProject.Name, fileFinding.Project)

	typeFinding := sink.findings[3]
	assert.Equal(t, core.TypeLevel, typeFinding.Target.Kind)
	assert.Equal(t, "Example.Core.Money", typeFinding.ResourceKey())

	assert.Equal(t, []string{"Example.Core.Money"}, resources.lookups)
}

func TestResultParser_ProjectLevelExample(t *testing.T) {
	report := `<FxCopReport><Namespaces><Namespace Name="N">
  <Message TypeName="NamingRule">Bad name</Message>
</Namespace></Namespaces></FxCopReport>`
	rules := fakeRules{"fxcop:NamingRule": {Repository: core.RepositoryKey, Key: "NamingRule", Severity: core.SeverityCritical}}
	parser := newParser(t, coreProject.Name, rules, &fakeResources{})

	_, sink, err := parseString(t, parser, report)
	require.NoError(t, err)
	require.Len(t, sink.findings, 1)
	assert.Equal(t, core.ProjectLevel, sink.findings[0].Target.Kind)
	assert.Equal(t, "Bad name", sink.findings[0].Message)
	assert.Equal(t, core.SeverityCritical, sink.findings[0].Severity)
}

func TestResultParser_FileLevelExample(t *testing.T) {
	report := `<FxCopReport><Targets><Module><Namespaces>
  <Namespace Name="N"><Types><Type Name="T">
    <Message TypeName="R"><Issue Path="/src/Example/Core" File="A.cs" Line="12">msg</Issue></Message>
  </Type></Types></Namespace>
</Namespaces></Module></Targets></FxCopReport>`
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), &fakeResources{})

	_, sink, err := parseString(t, parser, report)
	require.NoError(t, err)
	require.Len(t, sink.findings, 1)
	assert.Equal(t, core.FileLevel, sink.findings[0].Target.Kind)
	assert.Equal(t, filepath.FromSlash("/src/Example/Core/A.cs"), sink.findings[0].Path())
	assert.Equal(t, 12, sink.findings[0].Line)
}

func TestResultParser_FileOfAnotherProjectIsDropped(t *testing.T) {
	report := `<FxCopReport><Targets><Module><Namespaces>
  <Namespace Name="N"><Types><Type Name="T">
    <Message TypeName="R">
      <Issue Path="/src/Example/Web" File="Page.cs" Line="3">elsewhere</Issue>
      <Issue Path="/somewhere/else" File="Loose.cs" Line="4">nowhere</Issue>
    </Message>
  </Type></Types></Namespace>
</Namespaces></Module></Targets></FxCopReport>`
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), &fakeResources{})

	summary, sink, err := parseString(t, parser, report)
	require.NoError(t, err)
	assert.Empty(t, sink.findings)
	require.Len(t, summary.Diagnostics, 2)
	assert.Equal(t, core.CrossProjectIssue, summary.Diagnostics[0].Kind)
}

func TestResultParser_TypeResolution(t *testing.T) {
	report := `<FxCopReport><Targets><Module><Namespaces>
  <Namespace Name="N"><Types>
    <Type Name="Known"><Message TypeName="R"><Issue>known</Issue></Message></Type>
    <Type Name="Unknown"><Message TypeName="R"><Issue>unknown</Issue></Message></Type>
    <Type Name="Foreign"><Message TypeName="R"><Issue Line="7">foreign</Issue></Message></Type>
  </Types></Namespace>
</Namespaces></Module></Targets></FxCopReport>`
	resources := &fakeResources{
		types: map[string]*core.Resource{
			"N.Known":   {Kind: core.TypeResource, Key: "N.Known"},
			"N.Foreign": {Kind: core.TypeResource, Key: "N.Foreign"},
		},
		outside: map[string]bool{"N.Foreign": true},
	}
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), resources)

	summary, sink, err := parseString(t, parser, report)
	require.NoError(t, err)
	require.Len(t, sink.findings, 2)

	assert.Equal(t, core.TypeLevel, sink.findings[0].Target.Kind)
	assert.Equal(t, "N.Known", sink.findings[0].ResourceKey())

	assert.Equal(t, core.TypeLevel, sink.findings[1].Target.Kind)
	assert.Nil(t, sink.findings[1].Target.Resource)
	assert.Equal(t, "unknown", sink.findings[1].Message)

	require.Len(t, summary.Diagnostics, 1)
	assert.Equal(t, core.CrossProjectIssue, summary.Diagnostics[0].Kind)
}

func TestResultParser_UnresolvedRule(t *testing.T) {
	report := `<FxCopReport>
<Namespaces><Namespace><Message TypeName="MissingProjectRule">p</Message></Namespace></Namespaces>
<Targets><Module><Namespaces>
  <Namespace Name="N"><Types><Type Name="T">
    <Message TypeName="MissingTypeRule"><Issue>one</Issue><Issue>two</Issue><Issue>three</Issue></Message>
    <Message TypeName="R"><Issue>kept</Issue></Message>
  </Type></Types></Namespace>
</Namespaces></Module></Targets></FxCopReport>`
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), &fakeResources{})

	summary, sink, err := parseString(t, parser, report)
	require.NoError(t, err)
	require.Len(t, sink.findings, 1)
	assert.Equal(t, "kept", sink.findings[0].Message)

	require.Len(t, summary.Diagnostics, 2)
	assert.Equal(t, core.UnresolvedRule, summary.Diagnostics[0].Kind)
	assert.Equal(t, "MissingProjectRule", summary.Diagnostics[0].RuleKey)
	assert.Equal(t, core.UnresolvedRule, summary.Diagnostics[1].Kind)
	assert.Equal(t, "MissingTypeRule", summary.Diagnostics[1].RuleKey)
	assert.Contains(t, summary.Diagnostics[1].Message, "MissingTypeRule")
}

func TestResultParser_RepositoryKeySelection(t *testing.T) {
	testCases := []struct {
		project  core.Project
		expected string
		other    string
	}{
		{project: coreProject, expected: core.RepositoryKey, other: core.TestRepositoryKey},
		{project: testsProject, expected: core.TestRepositoryKey, other: core.RepositoryKey},
	}

	for _, tc := range testCases {
		t.Run(tc.project.Name, func(t *testing.T) {
			rules := &mockRuleFinder{}
			rules.On("Find", tc.expected, mock.Anything).
				Return(core.Rule{Repository: tc.expected, Key: "any", Severity: core.SeverityMinor}, true)

			parser := newParser(t, tc.project.Name, rules, &fakeResources{})
			_, sink, err := parseString(t, parser, fullReport)
			require.NoError(t, err)
			assert.NotEmpty(t, sink.findings)

			rules.AssertNumberOfCalls(t, "Find", 4)
			rules.AssertNotCalled(t, "Find", tc.other, mock.Anything)
			for _, finding := range sink.findings {
				assert.Equal(t, tc.expected, finding.Rule.Repository)
			}
		})
	}
}

func TestResultParser_MalformedLineNumber(t *testing.T) {
	report := `<FxCopReport><Targets><Module><Namespaces>
  <Namespace Name="N"><Types><Type Name="T">
    <Message TypeName="R"><Issue Path="/src/Example/Core" File="A.cs" Line="twelve">msg</Issue></Message>
  </Type></Types></Namespace>
</Namespaces></Module></Targets></FxCopReport>`

	t.Run("lenient", func(t *testing.T) {
		parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), &fakeResources{})
		summary, sink, err := parseString(t, parser, report)
		require.NoError(t, err)
		require.Len(t, sink.findings, 1)
		assert.Zero(t, sink.findings[0].Line)
		require.Len(t, summary.Diagnostics, 1)
		assert.Equal(t, core.MalformedLineNumber, summary.Diagnostics[0].Kind)
	})

	t.Run("strict", func(t *testing.T) {
		parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), &fakeResources{}, WithStrictLineNumbers(true))
		_, sink, err := parseString(t, parser, report)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMalformedReport)
		assert.Empty(t, sink.findings)

		var parseErr *core.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Contains(t, parseErr.Report, "report.xml")
	})
}

func TestResultParser_NonPositiveLineNumbers(t *testing.T) {
	for _, line := range []string{"0", "-3"} {
		t.Run(line, func(t *testing.T) {
			report := `<FxCopReport><Targets><Module><Namespaces>
  <Namespace Name="N"><Types><Type Name="T">
    <Message TypeName="R"><Issue Path="/src/Example/Core" File="A.cs" Line="` + line + `">msg</Issue></Message>
  </Type></Types></Namespace>
</Namespaces></Module></Targets></FxCopReport>`

			for _, strict := range []bool{false, true} {
				parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, "R"), &fakeResources{}, WithStrictLineNumbers(strict))
				summary, sink, err := parseString(t, parser, report)
				require.NoError(t, err)
				require.Len(t, sink.findings, 1)
				assert.Zero(t, sink.findings[0].Line)
				assert.Equal(t, core.FileLevel, sink.findings[0].Target.Kind)
				require.Len(t, summary.Diagnostics, 1)
				assert.Equal(t, core.MalformedLineNumber, summary.Diagnostics[0].Kind)
				assert.Contains(t, summary.Diagnostics[0].Message, line)
			}
		})
	}
}

func TestResultParser_Idempotent(t *testing.T) {
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, allRuleKeys...), &fakeResources{})

	_, first, err := parseString(t, parser, fullReport)
	require.NoError(t, err)
	_, second, err := parseString(t, parser, fullReport)
	require.NoError(t, err)

	assert.Equal(t, first.findings, second.findings)
}

func TestResultParser_SinkErrorAbortsParse(t *testing.T) {
	parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, allRuleKeys...), &fakeResources{})
	sink := &collectingSink{err: errSinkFull}
	_, err := parser.ParseReader("report.xml", strings.NewReader(fullReport), sink)
	assert.ErrorIs(t, err, errSinkFull)
}

func TestResultParser_Parse(t *testing.T) {
	t.Run("reads file from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fxcop-report.xml")
		require.NoError(t, os.WriteFile(path, []byte(fullReport), 0644))

		parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, allRuleKeys...), &fakeResources{})
		sink := &collectingSink{}
		summary, err := parser.Parse(path, sink)
		require.NoError(t, err)
		assert.Equal(t, path, summary.Report)
		assert.Len(t, sink.findings, 4)
	})

	t.Run("missing file", func(t *testing.T) {
		parser := newParser(t, coreProject.Name, fakeRules{}, &fakeResources{})
		_, err := parser.Parse(filepath.Join(t.TempDir(), "missing.xml"), &collectingSink{})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrReportNotFound)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Contains(t, err.Error(), "cannot find FxCop result file")
	})

	t.Run("unreadable file", func(t *testing.T) {
		parser := newParser(t, coreProject.Name, fakeRules{}, &fakeResources{}, WithOpener(failingOpener(fs.ErrPermission)))
		_, err := parser.Parse("locked.xml", &collectingSink{})
		assert.ErrorIs(t, err, core.ErrReportUnreadable)
	})

	t.Run("stream closed once on success", func(t *testing.T) {
		stream := &countingReadCloser{Reader: strings.NewReader(fullReport)}
		parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, allRuleKeys...), &fakeResources{}, WithOpener(openerFor(stream)))
		_, err := parser.Parse("report.xml", &collectingSink{})
		require.NoError(t, err)
		assert.Equal(t, 1, stream.closes)
	})

	t.Run("stream closed once on malformed input", func(t *testing.T) {
		stream := &countingReadCloser{Reader: strings.NewReader(fullReport[:len(fullReport)/2])}
		parser := newParser(t, coreProject.Name, newFakeRules(core.RepositoryKey, allRuleKeys...), &fakeResources{}, WithOpener(openerFor(stream)))
		_, err := parser.Parse("report.xml", &collectingSink{})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMalformedReport)
		assert.Equal(t, 1, stream.closes)
	})
}
