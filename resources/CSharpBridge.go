// Package resources maps the types and files named in FxCop reports onto
// project resources, using a tree-sitter index of the C# sources.
package resources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/go-enry/go-enry/v2"
	"github.com/reaandrew/fxcopbridge/core"
	log "github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"golang.org/x/sync/errgroup"
)

const csharpLanguage = "C#"

var typeDeclarations = map[string]bool{
	"class_declaration":         true,
	"struct_declaration":        true,
	"interface_declaration":     true,
	"enum_declaration":          true,
	"record_declaration":        true,
	"record_struct_declaration": true,
	"delegate_declaration":      true,
}

var skippedDirs = map[string]bool{"bin": true, "obj": true, ".git": true, ".vs": true}

// CSharpBridge resolves report addresses against an index of the type
// declarations found in C# sources.
type CSharpBridge struct {
	solution core.Solution
	mu       sync.RWMutex
	types    map[string]*core.Resource
}

func NewCSharpBridge(solution core.Solution) *CSharpBridge {
	return &CSharpBridge{
		solution: solution,
		types:    make(map[string]*core.Resource),
	}
}

// IndexSources builds a bridge from every .cs file under dirs.
func IndexSources(ctx context.Context, solution core.Solution, dirs ...string) (*CSharpBridge, error) {
	bridge := NewCSharpBridge(solution)

	var files []string
	for _, dir := range dirs {
		found, err := sourceFiles(dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	sort.Strings(files)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		file := file
		g.Go(func() error {
			source, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read source file %s: %w", file, err)
			}
			return bridge.IndexFile(ctx, file, source)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Infof("Indexed %d types from %d C# files", bridge.Len(), len(files))
	return bridge, nil
}

// IndexFile records the types declared in source under path. A type declared
// in several files (a partial class) keeps the lexicographically smallest
// path, whatever order the files are indexed in.
func (b *CSharpBridge) IndexFile(ctx context.Context, path string, source []byte) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(csharp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	path = absolutePath(path)
	declared := map[string]*core.Resource{}
	collectDeclarations(tree.RootNode(), source, "", "", path, declared)

	b.mu.Lock()
	defer b.mu.Unlock()
	for key, resource := range declared {
		existing, ok := b.types[key]
		if ok && existing.Path != resource.Path {
			kept := min(existing.Path, resource.Path)
			log.Debugf("Type %s declared in %s and %s, keeping %s", key, existing.Path, resource.Path, kept)
			if kept == existing.Path {
				continue
			}
		}
		b.types[key] = resource
	}
	return nil
}

func (b *CSharpBridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.types)
}

// ResolveType looks up Namespace.Type, or Type alone in the global namespace.
func (b *CSharpBridge) ResolveType(namespace, typeName string) *core.Resource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.types[qualify(namespace, typeName)]
}

// ResolveFile labels the file relative to the project that owns it.
func (b *CSharpBridge) ResolveFile(path string) *core.Resource {
	path = absolutePath(path)
	var owner core.Project
	if b.solution != nil {
		owner, _ = b.solution.ProjectOf(path)
	}
	return &core.Resource{
		Kind:     core.FileResource,
		Key:      path,
		Path:     path,
		Label:    core.NewSourceFile(owner, path).String(),
		Language: detectLanguage(path),
	}
}

// detectLanguage prefers C# for extensions enry finds ambiguous, such as
// .cs which Smalltalk also claims.
func detectLanguage(path string) string {
	candidates := enry.GetLanguagesByExtension(path, nil, nil)
	if slices.Contains(candidates, csharpLanguage) {
		return csharpLanguage
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	content, err := os.ReadFile(path)
	if err != nil {
		content = nil
	}
	return enry.GetLanguage(filepath.Base(path), content)
}

func (b *CSharpBridge) IsInProject(resource *core.Resource, project core.Project) bool {
	if resource == nil || resource.Path == "" || b.solution == nil {
		return false
	}
	owner, found := b.solution.ProjectOf(resource.Path)
	return found && owner.Equal(project)
}

// collectDeclarations walks the syntax tree. A file-scoped namespace
// applies to the declarations that follow it in the same list.
func collectDeclarations(node *sitter.Node, source []byte, namespace, outer, path string, declared map[string]*core.Resource) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_declaration":
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			inner := qualify(namespace, name.Content(source))
			if body := child.ChildByFieldName("body"); body != nil {
				collectDeclarations(body, source, inner, "", path, declared)
			}
		case "file_scoped_namespace_declaration":
			if name := child.ChildByFieldName("name"); name != nil {
				namespace = qualify(namespace, name.Content(source))
			}
			collectDeclarations(child, source, namespace, "", path, declared)
		default:
			if !typeDeclarations[child.Type()] {
				collectDeclarations(child, source, namespace, outer, path, declared)
				continue
			}
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			typeName := name.Content(source)
			if arity := typeArity(child); arity > 0 {
				typeName = fmt.Sprintf("%s`%d", typeName, arity)
			}
			if outer != "" {
				typeName = outer + "+" + typeName
			}
			key := qualify(namespace, typeName)
			if _, ok := declared[key]; !ok {
				declared[key] = &core.Resource{
					Kind:      core.TypeResource,
					Key:       key,
					Path:      path,
					Namespace: namespace,
					TypeName:  typeName,
					Language:  csharpLanguage,
				}
			}
			body := child.ChildByFieldName("body")
			if body == nil {
				body = child
			}
			collectDeclarations(body, source, namespace, typeName, path, declared)
		}
	}
}

// typeArity counts the type parameters of a declaration. The parameter list
// is an unnamed child of the declaration in the C# grammar.
func typeArity(declaration *sitter.Node) int {
	for i := 0; i < int(declaration.NamedChildCount()); i++ {
		child := declaration.NamedChild(i)
		if child.Type() != "type_parameter_list" {
			continue
		}
		arity := 0
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if child.NamedChild(j).Type() == "type_parameter" {
				arity++
			}
		}
		return arity
	}
	return 0
}

func sourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".cs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list C# sources in '%s': %w", dir, err)
	}
	return files, nil
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func absolutePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
