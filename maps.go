// FILE: lixenwraith/configurations/maps.go
package configurations

import (
	"fmt"
	"reflect"
)

// TransformFunc coerces or validates a value before it is stored.
// Returning a nil value keeps the original value; returning an error aborts the assignment.
type TransformFunc func(value any) (any, error)

// NotConfiguredFunc is invoked when a declared property is read without a stored value.
// Its result is returned to the reader.
type NotConfiguredFunc func(path Path) (any, error)

// MethodFunc is a configuration method evaluated with the node it is called on.
type MethodFunc func(c *Configuration, args ...any) (any, error)

// ReadPolicy selects what an arbitrary configuration returns for properties
// that were never set and have no not-configured callback.
type ReadPolicy int

const (
	// ReadAsNil returns nil without error.
	ReadAsNil ReadPolicy = iota
	// ReadAsError returns an UnknownPropertyError.
	ReadAsError
)

// String returns the policy name.
func (r ReadPolicy) String() string {
	switch r {
	case ReadAsNil:
		return "nil"
	case ReadAsError:
		return "error"
	default:
		return fmt.Sprintf("ReadPolicy(%d)", int(r))
	}
}

// propertyMap records which paths are declared, and whether as leaf or namespace.
type propertyMap struct {
	t *trie[struct{}]
}

func newPropertyMap() propertyMap {
	return propertyMap{t: newTrie[struct{}]()}
}

func (m propertyMap) add(decls ...Declaration) error {
	return m.t.add(struct{}{}, decls...)
}

func (m propertyMap) configurable(p Path) bool {
	return m.t.configurable(p)
}

func (m propertyMap) empty() bool {
	return m.t.empty()
}

// isLeaf reports whether p is declared as an assignable property.
func (m propertyMap) isLeaf(p Path) bool {
	n := m.t.walk(p)
	return n != nil && n.leaf
}

func (m propertyMap) entriesAt(p Path) []trieEntry[struct{}] {
	return m.t.entriesAt(p)
}

// typeMap records the expected type of declared leaves. A nil type accepts anything.
type typeMap struct {
	t *trie[reflect.Type]
}

func newTypeMap() typeMap {
	return typeMap{t: newTrie[reflect.Type]()}
}

func (m typeMap) add(typ reflect.Type, decls ...Declaration) error {
	return m.t.add(typ, decls...)
}

func (m typeMap) expected(p Path) reflect.Type {
	typ, _ := m.t.lookup(p)
	return typ
}

// test fails when a type is declared at p and value does not satisfy it.
func (m typeMap) test(p Path, value any) error {
	typ := m.expected(p)
	if typ == nil || satisfies(typ, value) {
		return nil
	}
	return &ConfigurationError{
		Path:    p.String(),
		Message: fmt.Sprintf("must be configured with %s (got %v of type %T)", typ, value, value),
	}
}

// satisfies reports whether value can be stored in a variable of type typ.
// nil satisfies only types that have a nil value.
func satisfies(typ reflect.Type, value any) bool {
	if value == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(value).AssignableTo(typ)
}

// blockMap records transforms per leaf plus one fallback for leaves without their own.
type blockMap struct {
	t        *trie[TransformFunc]
	fallback TransformFunc
}

func newBlockMap() *blockMap {
	return &blockMap{t: newTrie[TransformFunc]()}
}

func (m *blockMap) add(fn TransformFunc, decls ...Declaration) error {
	return m.t.add(fn, decls...)
}

// evaluate applies the transform at p, the fallback, or nothing, in that order.
// A leaf declared without a transform uses the fallback.
func (m *blockMap) evaluate(p Path, value any) (any, error) {
	fn, _ := m.t.lookup(p)
	if fn == nil {
		fn = m.fallback
	}
	if fn == nil {
		return value, nil
	}
	out, err := fn(value)
	if err != nil {
		return nil, &ConfigurationError{Path: p.String(), Message: "transform rejected value", Err: err}
	}
	if out == nil {
		return value, nil
	}
	return out, nil
}

// callbackMap records not-configured callbacks per leaf plus one fallback.
type callbackMap struct {
	t        *trie[NotConfiguredFunc]
	fallback NotConfiguredFunc
}

func newCallbackMap() *callbackMap {
	return &callbackMap{t: newTrie[NotConfiguredFunc]()}
}

func (m *callbackMap) add(fn NotConfiguredFunc, decls ...Declaration) error {
	return m.t.add(fn, decls...)
}

func (m *callbackMap) lookup(p Path) NotConfiguredFunc {
	if fn, ok := m.t.lookup(p); ok && fn != nil {
		return fn
	}
	return m.fallback
}

// methodMap records configuration methods by the path they are callable at.
type methodMap struct {
	t *trie[MethodFunc]
}

func newMethodMap() methodMap {
	return methodMap{t: newTrie[MethodFunc]()}
}

func (m methodMap) add(fn MethodFunc, decls ...Declaration) error {
	return m.t.add(fn, decls...)
}

func (m methodMap) lookup(p Path) (MethodFunc, bool) {
	return m.t.lookup(p)
}

// schema bundles the declaration maps shared read-only by every configuration of a Host.
type schema struct {
	properties propertyMap
	types      typeMap
	transforms *blockMap
	callbacks  *callbackMap
	methods    methodMap
	reads      ReadPolicy
}

func newSchema() *schema {
	return &schema{
		properties: newPropertyMap(),
		types:      newTypeMap(),
		transforms: newBlockMap(),
		callbacks:  newCallbackMap(),
		methods:    newMethodMap(),
	}
}

func (s *schema) strict() bool {
	return !s.properties.empty()
}

// conflicts returns the first method path that is also a declared property.
func (s *schema) conflicts() error {
	for _, p := range s.methods.t.leaves() {
		if s.properties.configurable(p) {
			return &ConfigurationError{Path: p.String(), Message: "can not be a configuration property and a method"}
		}
	}
	return nil
}
