package fxcop

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/reaandrew/fxcopbridge/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	namespaceElement  = "Namespace"
	namespacesElement = "Namespaces"
	targetsElement    = "Targets"
	messageElement    = "Message"
	messagesElement   = "Messages"
	moduleElement     = "Module"

	nameAttribute     = "Name"
	typeNameAttribute = "TypeName"
	pathAttribute     = "Path"
	fileAttribute     = "File"
	lineAttribute     = "Line"
)

// role describes what the walker is looking for below an element.
type role int

const (
	roleRoot             role = iota
	roleNamespacesBlock       // <Namespaces> under the root: children <Namespace>
	roleNamespaceScope        // below a root <Namespace>: any depth, looking for <Message>
	roleTargetsScope          // below <Targets>: any depth, looking for <Module>
	roleModule                // <Module>: children <Messages> and <Namespaces>
	roleModuleMessages        // <Messages>: children <Message>
	roleModuleNamespaces      // <Namespaces> under <Module>: children are namespace nodes
	roleNamespaceNode         // namespace node: its first child is the grouping level
	roleGroup                 // grouping level: children are type nodes
	roleTypeScope             // below a type node: any depth, looking for <Message>
	roleTypeMessage           // <Message> of a type: children are issues
	roleCollect               // text collection for an issue or a project-scoped message
)

type frame struct {
	role      role
	namespace string
	typeName  string
	message   MessageScope

	// roleNamespaceNode: the grouping level has been consumed.
	seenGroup bool

	// roleCollect: text is shared by every frame of the collected subtree,
	// issue is only set on the frame that opened the collection.
	text  *strings.Builder
	issue *IssueContext
}

// Walker streams an FxCop report and reports its issues to a Visitor.
// Only the chain of open elements is held in memory.
type Walker struct {
	encoding encoding.Encoding
}

// NewWalker returns a walker. A non-empty encodingName forces the character
// set of the input and overrides the XML declaration.
func NewWalker(encodingName string) (*Walker, error) {
	w := &Walker{}
	if encodingName == "" {
		return w, nil
	}
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	w.encoding = enc
	return w, nil
}

// ErrUnsupportedEncoding is returned for a character set the walker cannot
// decode.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnsupportedEncoding, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEncoding, name)
	}
	return enc, nil
}

func (w *Walker) newDecoder(r io.Reader) *xml.Decoder {
	if w.encoding != nil {
		decoder := xml.NewDecoder(w.encoding.NewDecoder().Reader(r))
		decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
			return input, nil
		}
		return decoder
	}
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := lookupEncoding(label)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return decoder
}

// Walk makes a single forward pass over r. Malformed input aborts the walk
// with a *core.ParseError; errors returned by the visitor are passed through.
func (w *Walker) Walk(r io.Reader, visitor Visitor) error {
	decoder := w.newDecoder(r)
	var stack []*frame

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return malformed(io.ErrUnexpectedEOF)
			}
			return malformed(errors.New("no root element"))
		}
		if err != nil {
			return malformed(err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				stack = append(stack, &frame{role: roleRoot})
				continue
			}
			child, err := w.enter(stack[len(stack)-1], t, visitor)
			if err != nil {
				return err
			}
			if child == nil {
				if err := decoder.Skip(); err != nil {
					return malformed(err)
				}
				continue
			}
			stack = append(stack, child)

		case xml.CharData:
			if len(stack) > 0 {
				if top := stack[len(stack)-1]; top.role == roleCollect {
					top.text.Write(t)
				}
			}

		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.issue != nil {
				top.issue.Message = strings.TrimSpace(top.text.String())
				if err := visitor.Issue(*top.issue); err != nil {
					return err
				}
			}
			if len(stack) == 0 {
				return nil
			}
		}
	}
}

// enter returns the frame for a child element of parent, or nil when the
// child's subtree must be skipped.
func (w *Walker) enter(parent *frame, start xml.StartElement, visitor Visitor) (*frame, error) {
	name := start.Name.Local

	switch parent.role {
	case roleRoot:
		switch name {
		case namespacesElement:
			return &frame{role: roleNamespacesBlock}, nil
		case targetsElement:
			return &frame{role: roleTargetsScope}, nil
		}
		return nil, nil

	case roleNamespacesBlock:
		if name == namespaceElement {
			return &frame{role: roleNamespaceScope}, nil
		}
		return nil, nil

	case roleNamespaceScope:
		if name == messageElement {
			return w.enterProjectMessage(start, visitor)
		}
		return &frame{role: roleNamespaceScope}, nil

	case roleTargetsScope:
		if name == moduleElement {
			return &frame{role: roleModule}, nil
		}
		return &frame{role: roleTargetsScope}, nil

	case roleModule:
		switch name {
		case messagesElement:
			return &frame{role: roleModuleMessages}, nil
		case namespacesElement:
			return &frame{role: roleModuleNamespaces}, nil
		}
		return nil, nil

	case roleModuleMessages:
		if name == messageElement {
			return w.enterProjectMessage(start, visitor)
		}
		return nil, nil

	case roleModuleNamespaces:
		namespace, _ := attribute(start, nameAttribute)
		return &frame{role: roleNamespaceNode, namespace: namespace}, nil

	case roleNamespaceNode:
		// Skip one level, then enumerate: only the first child is the grouping
		// level that holds the type nodes.
		if parent.seenGroup {
			return nil, nil
		}
		parent.seenGroup = true
		return &frame{role: roleGroup, namespace: parent.namespace}, nil

	case roleGroup:
		typeName, _ := attribute(start, nameAttribute)
		if err := visitor.EnterType(TypeScope{Namespace: parent.namespace, Name: typeName}); err != nil {
			return nil, err
		}
		return &frame{role: roleTypeScope, namespace: parent.namespace, typeName: typeName}, nil

	case roleTypeScope:
		if name != messageElement {
			return &frame{role: roleTypeScope, namespace: parent.namespace, typeName: parent.typeName}, nil
		}
		ruleKey, _ := attribute(start, typeNameAttribute)
		scope := MessageScope{
			Scope:     ScopeType,
			Namespace: parent.namespace,
			TypeName:  parent.typeName,
			RuleKey:   ruleKey,
		}
		accepted, err := visitor.EnterMessage(scope)
		if err != nil || !accepted {
			return nil, err
		}
		return &frame{role: roleTypeMessage, namespace: parent.namespace, typeName: parent.typeName, message: scope}, nil

	case roleTypeMessage:
		issue := &IssueContext{
			Scope:     ScopeType,
			Namespace: parent.namespace,
			TypeName:  parent.typeName,
			RuleKey:   parent.message.RuleKey,
		}
		issue.Path, _ = attribute(start, pathAttribute)
		issue.File, _ = attribute(start, fileAttribute)
		issue.Line, issue.HasLine = attribute(start, lineAttribute)
		return &frame{role: roleCollect, text: &strings.Builder{}, issue: issue}, nil

	case roleCollect:
		return &frame{role: roleCollect, text: parent.text}, nil
	}

	return nil, nil
}

func (w *Walker) enterProjectMessage(start xml.StartElement, visitor Visitor) (*frame, error) {
	ruleKey, _ := attribute(start, typeNameAttribute)
	accepted, err := visitor.EnterMessage(MessageScope{Scope: ScopeProject, RuleKey: ruleKey})
	if err != nil || !accepted {
		return nil, err
	}
	return &frame{
		role:  roleCollect,
		text:  &strings.Builder{},
		issue: &IssueContext{Scope: ScopeProject, RuleKey: ruleKey},
	}, nil
}

func attribute(start xml.StartElement, name string) (string, bool) {
	for _, attr := range start.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

func malformed(err error) error {
	return &core.ParseError{Kind: core.ErrMalformedReport, Cause: err}
}
