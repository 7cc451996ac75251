package core

type Project struct {
	Name      string `json:"name" yaml:"name"`
	Directory string `json:"directory" yaml:"directory"`
	Test      bool   `json:"test" yaml:"test"`
}

func (p Project) Equal(other Project) bool {
	return p.Name == other.Name && p.Directory == other.Directory
}

// Resource returns the project-level resource used for findings that are
// not attached to a type or file.
func (p Project) Resource() *Resource {
	return &Resource{Kind: ProjectResource, Key: p.Name, Path: p.Directory}
}

// Solution is the set of projects analysed together.
type Solution interface {
	ProjectByName(name string) (Project, bool)
	// ProjectOf returns the project owning the file at path.
	ProjectOf(path string) (Project, bool)
}
