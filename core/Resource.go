package core

import (
	"path/filepath"
	"strings"
)

type ResourceKind string

const (
	ProjectResource ResourceKind = "project"
	TypeResource    ResourceKind = "type"
	FileResource    ResourceKind = "file"
)

// Resource is a project-scoped address a finding can be attached to.
type Resource struct {
	Kind      ResourceKind `json:"kind"`
	Key       string       `json:"key"`
	Path      string       `json:"path,omitempty"`
	Namespace string       `json:"namespace,omitempty"`
	TypeName  string       `json:"type_name,omitempty"`
	Label     string       `json:"label,omitempty"` // Source(folder/name) for files
	Language  string       `json:"language,omitempty"`
}

// ResourceResolver maps report addresses onto project resources.
type ResourceResolver interface {
	// ResolveType returns nil when the type is unknown.
	ResolveType(namespace, typeName string) *Resource
	ResolveFile(path string) *Resource
	IsInProject(resource *Resource, project Project) bool
}

// SourceFile is a source file that belongs to a project.
type SourceFile struct {
	Project Project
	File    string
	Folder  string
	Name    string
}

// NewSourceFile splits file into the folder relative to the project
// directory and the file name.
func NewSourceFile(project Project, file string) SourceFile {
	folder := ""
	if rel, err := filepath.Rel(project.Directory, filepath.Dir(file)); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		folder = filepath.ToSlash(rel)
	}
	return SourceFile{
		Project: project,
		File:    file,
		Folder:  folder,
		Name:    filepath.Base(file),
	}
}

func (s SourceFile) String() string {
	var builder strings.Builder
	builder.WriteString("Source(")
	if s.Folder != "" {
		builder.WriteString(s.Folder)
		builder.WriteString("/")
	}
	builder.WriteString(s.Name)
	builder.WriteString(")")
	return builder.String()
}
