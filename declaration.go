// FILE: lixenwraith/configurations/declaration.go
package configurations

import (
	"fmt"
	"reflect"
	"sort"
)

// Declaration is a property declaration literal. It is one of Leaf, Group or Namespace.
type Declaration interface {
	accept(base Path, v declarationVisitor) error
}

// declarationVisitor receives every resolved path of a declaration.
type declarationVisitor interface {
	visitNamespace(p Path) error
	visitLeaf(p Path) error
}

// Leaf declares a single assignable property.
type Leaf string

// Group declares several leaves sharing the same type, transform or callback.
type Group []string

// Namespace declares a property whose children are further declarations.
type Namespace struct {
	Name     string
	Children []Declaration
}

// Nest builds a Namespace declaration.
func Nest(name string, children ...Declaration) Namespace {
	return Namespace{Name: name, Children: children}
}

func (l Leaf) accept(base Path, v declarationVisitor) error {
	name := string(l)
	if !isValidKeySegment(name) {
		return fmt.Errorf("%w: property name %q under %s", ErrInvalidPath, name, base.display())
	}
	return v.visitLeaf(base.Add(name))
}

func (g Group) accept(base Path, v declarationVisitor) error {
	for _, name := range g {
		if err := Leaf(name).accept(base, v); err != nil {
			return err
		}
	}
	return nil
}

func (n Namespace) accept(base Path, v declarationVisitor) error {
	if !isValidKeySegment(n.Name) {
		return fmt.Errorf("%w: namespace name %q under %s", ErrInvalidPath, n.Name, base.display())
	}
	p := base.Add(n.Name)
	if err := v.visitNamespace(p); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := child.accept(p, v); err != nil {
			return err
		}
	}
	return nil
}

// nestPath wraps decl into namespaces so that it resolves below the given segments.
func nestPath(segments []string, decl Declaration) Declaration {
	for i := len(segments) - 1; i >= 0; i-- {
		decl = Nest(segments[i], decl)
	}
	return decl
}

// ParseDeclarations converts a generic declaration literal, as decoded from
// YAML, TOML or JSON, into declarations:
//
//	"name"                      -> Leaf
//	["a", "b"]                  -> one declaration per element
//	{"ns": ["a", {"sub": "b"}]} -> Namespace, keys sorted
func ParseDeclarations(literal any) ([]Declaration, error) {
	switch v := literal.(type) {
	case nil:
		return nil, nil
	case Declaration:
		return []Declaration{v}, nil
	case string:
		return []Declaration{Leaf(v)}, nil
	case Symbol:
		return []Declaration{Leaf(string(v))}, nil
	case []string:
		return []Declaration{Group(v)}, nil
	}

	rv := reflect.ValueOf(literal)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var decls []Declaration
		for i := 0; i < rv.Len(); i++ {
			sub, err := ParseDeclarations(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			decls = append(decls, sub...)
		}
		return decls, nil

	case reflect.Map:
		entries, ok := hashEntries(literal)
		if !ok {
			return nil, &ConfigurationError{Message: fmt.Sprintf("unsupported declaration map key type %s", rv.Type().Key())}
		}
		if err := checkAmbiguity(RootPath(), entries); err != nil {
			return nil, err
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
		decls := make([]Declaration, 0, len(entries))
		for _, e := range entries {
			children, err := ParseDeclarations(e.value)
			if err != nil {
				return nil, err
			}
			decls = append(decls, Nest(e.name, children...))
		}
		return decls, nil
	}

	return nil, &ConfigurationError{Message: fmt.Sprintf("unsupported declaration literal of type %T", literal)}
}

// reservedNames can never be declared, assigned or used as method names.
// The set is fixed.
var reservedNames = map[string]struct{}{
	"inspect":   {},
	"new":       {},
	"object_id": {},
	"to_h":      {},
	"to_s":      {},
}

// IsReserved reports whether name is a reserved property name.
func IsReserved(name string) bool {
	_, ok := reservedNames[name]
	return ok
}

func testReserved(name string) error {
	if IsReserved(name) {
		return &ReservedNameError{Name: name}
	}
	return nil
}

// LeafAt declares the leaf at a dotted path, nesting it in namespaces for
// every preceding segment.
func LeafAt(dotted string) (Declaration, error) {
	p, err := ParsePath(dotted)
	if err != nil {
		return nil, err
	}
	if p.IsRoot() {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return nestPath(p.Parent().Segments(), Leaf(p.Last())), nil
}
