package reporters

import (
	"testing"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/reportstorage"
	"github.com/reaandrew/fxcopbridge/utils"
	"github.com/stretchr/testify/require"
)

var (
	casingRule = core.Rule{Repository: "fxcop", Key: "IdentifiersShouldBeCasedCorrectly", Name: "Identifiers should be cased correctly", Severity: core.SeverityMajor, Category: "Naming"}
	namesRule  = core.Rule{Repository: "fxcop", Key: "AvoidNamespacesWithFewTypes", Name: "Avoid namespaces with few types", Severity: core.SeverityCritical, Category: "Design"}
	baseRule   = core.Rule{Repository: "fxcop", Key: "TypesShouldNotExtendCertainBaseTypes", Severity: core.SeverityMinor}
)

func sampleRepository(t *testing.T) *utils.MockFindingRepository {
	t.Helper()
	repository := &utils.MockFindingRepository{}
	require.NoError(t, repository.Store([]core.Finding{
		{
			Rule:     namesRule,
			Target:   core.ProjectTarget(&core.Resource{Kind: core.ProjectResource, Key: "Example.Core", Path: "/src/Example/Core"}),
			Severity: core.SeverityCritical,
			Message:  "Bad name",
			Project:  "Example.Core",
		},
		{
			Rule:     casingRule,
			Target:   core.FileTarget(&core.Resource{Kind: core.FileResource, Key: "/src/Example/Core/Money.cs", Path: "/src/Example/Core/Money.cs", Label: "Source(Money.cs)"}),
			Severity: core.SeverityMajor,
			Message:  "Correct the casing of 'add'.",
			Line:     12,
			Project:  "Example.Core",
		},
	}))
	require.NoError(t, repository.Store([]core.Finding{
		{
			Rule:     baseRule,
			Target:   core.TypeTarget(nil),
			Severity: core.SeverityMinor,
			Project:  "Example.Core",
		},
		{
			Rule:     casingRule,
			Target:   core.FileTarget(&core.Resource{Kind: core.FileResource, Key: "/src/Example/Core/Money.cs", Path: "/src/Example/Core/Money.cs"}),
			Severity: core.SeverityMajor,
			Message:  "Correct the casing of 'sub'.",
			Line:     20,
			Project:  "Example.Core",
		},
	}))
	return repository
}

func tempStorage(t *testing.T) reportstorage.FileReportStorage {
	t.Helper()
	storage, err := reportstorage.CreateFileReportStorage("test", t.TempDir())
	require.NoError(t, err)
	return storage
}
