package fxcop

// IssueScope tells the resolver how an issue is addressed.
type IssueScope int

const (
	// ScopeProject issues are addressed by their rule key only.
	ScopeProject IssueScope = iota
	// ScopeType issues live below a Type node and may carry a file and line.
	ScopeType
)

func (s IssueScope) String() string {
	if s == ScopeType {
		return "type"
	}
	return "project"
}

// TypeScope is a Type node reached through Module/Namespaces.
type TypeScope struct {
	Namespace string
	Name      string
}

// MessageScope is a Message element; RuleKey comes from its TypeName attribute.
type MessageScope struct {
	Scope     IssueScope
	Namespace string
	TypeName  string
	RuleKey   string
}

// IssueContext carries everything the walker knows about one issue.
// Line is the raw attribute value; HasLine reports whether it was present.
type IssueContext struct {
	Scope     IssueScope
	Namespace string
	TypeName  string
	RuleKey   string
	Path      string
	File      string
	Line      string
	HasLine   bool
	Message   string
}

// Visitor consumes the walk in document order.
type Visitor interface {
	EnterType(scope TypeScope) error
	// EnterMessage returns false to skip every issue nested under the message.
	EnterMessage(scope MessageScope) (bool, error)
	Issue(ctx IssueContext) error
}
