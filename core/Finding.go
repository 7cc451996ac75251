package core

// TargetKind identifies which level of the project a finding is attached to.
type TargetKind string

const (
	ProjectLevel TargetKind = "project"
	TypeLevel    TargetKind = "type"
	FileLevel    TargetKind = "file"
)

// Target is the resource a finding is attached to. A TypeLevel target may
// carry a nil Resource when the type could not be resolved.
type Target struct {
	Kind     TargetKind `json:"kind"`
	Resource *Resource  `json:"resource,omitempty"`
}

func ProjectTarget(resource *Resource) Target {
	return Target{Kind: ProjectLevel, Resource: resource}
}

func TypeTarget(resource *Resource) Target {
	return Target{Kind: TypeLevel, Resource: resource}
}

func FileTarget(resource *Resource) Target {
	return Target{Kind: FileLevel, Resource: resource}
}

// Finding is a normalized violation produced from one issue of an analysis report.
type Finding struct {
	Rule     Rule     `json:"rule"`
	Target   Target   `json:"target"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message,omitempty"`
	Line     int      `json:"line,omitempty"`
	Project  string   `json:"project,omitempty"`
	Report   string   `json:"report,omitempty"`
}

// Path returns the file path of the finding's resource, if any.
func (f Finding) Path() string {
	if f.Target.Resource == nil {
		return ""
	}
	return f.Target.Resource.Path
}

// ResourceKey returns the key of the finding's resource, if any.
func (f Finding) ResourceKey() string {
	if f.Target.Resource == nil {
		return ""
	}
	return f.Target.Resource.Key
}

// ResourceLabel returns the display label of the finding's resource, falling
// back to its key.
func (f Finding) ResourceLabel() string {
	if f.Target.Resource == nil {
		return ""
	}
	if f.Target.Resource.Label != "" {
		return f.Target.Resource.Label
	}
	return f.Target.Resource.Key
}
