package fxcop

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/reaandrew/fxcopbridge/core"
	"github.com/stretchr/testify/mock"
)

const fullReport = `<?xml version="1.0" encoding="utf-8"?>
<FxCopReport Version="1.36">
 <Namespaces>
  <Namespace Name="Example.Core">
   <Messages>
    <Message TypeName="AvoidNamespacesWithFewTypes" Category="Microsoft.Design" CheckId="CA1020">
     <Issue Certainty="50" Level="Warning">Consider merging the types defined in 'Example.Core' with another namespace.</Issue>
    </Message>
   </Messages>
  </Namespace>
 </Namespaces>
 <Targets>
  <Target Name="C:\build\Example.dll">
   <Modules>
    <Module Name="example.dll">
     <Messages>
      <Message TypeName="AssembliesShouldHaveValidStrongNames" CheckId="CA2210">
       <Issue Certainty="95" Level="CriticalError">Sign 'Example.dll' with a strong name key.</Issue>
      </Message>
     </Messages>
     <Namespaces>
      <Namespace Name="Example.Core">
       <Types>
        <Type Name="Money" Kind="Class">
         <Members>
          <Member Name="#Add(Example.Core.Money)">
           <Messages>
            <Message TypeName="IdentifiersShouldBeCasedCorrectly" CheckId="CA1709">
             <Issue Name="Member" Path="/src/Example/Core" File="Money.cs" Line="12">Correct the casing of 'add'.</Issue>
            </Message>
           </Messages>
          </Member>
         </Members>
         <Messages>
          <Message TypeName="TypesShouldNotExtendCertainBaseTypes" CheckId="CA1058">
           <Issue>Change the base type of 'Money'.</Issue>
          </Message>
         </Messages>
        </Type>
       </Types>
      </Namespace>
     </Namespaces>
    </Module>
   </Modules>
  </Target>
 </Targets>
 <Rules>
  <Rule TypeName="AvoidNamespacesWithFewTypes" Category="Microsoft.Design" CheckId="CA1020">
   <Name>Avoid namespaces with few types</Name>
  </Rule>
 </Rules>
</FxCopReport>`

var (
	coreProject  = core.Project{Name: "Example.Core", Directory: "/src/Example/Core"}
	testsProject = core.Project{Name: "Example.Core.Tests", Directory: "/src/Example/Core.Tests", Test: true}
	otherProject = core.Project{Name: "Example.Web", Directory: "/src/Example/Web"}
)

type fakeRules map[string]core.Rule

func newFakeRules(repository string, keys ...string) fakeRules {
	rules := fakeRules{}
	for _, key := range keys {
		rules[repository+":"+key] = core.Rule{Repository: repository, Key: key, Name: key, Severity: core.SeverityMajor}
	}
	return rules
}

func (f fakeRules) Find(repository, key string) (core.Rule, bool) {
	rule, ok := f[repository+":"+key]
	return rule, ok
}

type mockRuleFinder struct {
	mock.Mock
}

func (m *mockRuleFinder) Find(repository, key string) (core.Rule, bool) {
	args := m.Called(repository, key)
	return args.Get(0).(core.Rule), args.Bool(1)
}

type fakeSolution struct {
	projects []core.Project
}

func (f fakeSolution) ProjectByName(name string) (core.Project, bool) {
	for _, project := range f.projects {
		if project.Name == name {
			return project, true
		}
	}
	return core.Project{}, false
}

func (f fakeSolution) ProjectOf(path string) (core.Project, bool) {
	var owner core.Project
	found := false
	for _, project := range f.projects {
		if strings.HasPrefix(path, project.Directory+string(filepath.Separator)) &&
			len(project.Directory) > len(owner.Directory) {
			owner = project
			found = true
		}
	}
	return owner, found
}

type fakeResources struct {
	types   map[string]*core.Resource
	outside map[string]bool
	lookups []string
}

func (f *fakeResources) ResolveType(namespace, typeName string) *core.Resource {
	key := namespace + "." + typeName
	f.lookups = append(f.lookups, key)
	return f.types[key]
}

func (f *fakeResources) ResolveFile(path string) *core.Resource {
	return &core.Resource{Kind: core.FileResource, Key: path, Path: path}
}

func (f *fakeResources) IsInProject(resource *core.Resource, _ core.Project) bool {
	return !f.outside[resource.Key]
}

type collectingSink struct {
	findings []core.Finding
	err      error
}

func (c *collectingSink) Emit(finding core.Finding) error {
	if c.err != nil {
		return c.err
	}
	c.findings = append(c.findings, finding)
	return nil
}

type countingReadCloser struct {
	io.Reader
	closes int
}

func (c *countingReadCloser) Close() error {
	c.closes++
	return nil
}

func openerFor(rc io.ReadCloser) Opener {
	return func(string) (io.ReadCloser, error) {
		return rc, nil
	}
}

func failingOpener(err error) Opener {
	return func(string) (io.ReadCloser, error) {
		return nil, err
	}
}

var errSinkFull = errors.New("sink full")
