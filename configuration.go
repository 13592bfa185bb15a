// FILE: lixenwraith/configurations/configuration.go
package configurations

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ConfigureFunc populates a configuration while it is writeable.
type ConfigureFunc func(c *Configuration) error

// treeState is shared by every node of one configuration tree.
type treeState struct {
	writeable bool
}

// accessor describes a declared property of a strict node.
type accessor struct {
	namespace bool
}

// Configuration is one node of a configuration tree. The root is returned by
// Host.Configure; nested nodes are reached with Node or Get.
//
// A tree is writeable only while the configure functions run. Afterwards every
// node, including nodes reached later, is read-only and safe for concurrent reads.
type Configuration struct {
	path      Path
	schema    *schema
	data      *dataMap
	state     *treeState
	accessors map[string]accessor // nil for arbitrary configurations
	order     []string
}

func newConfiguration(s *schema, data *dataMap, state *treeState, p Path) *Configuration {
	c := &Configuration{path: p, schema: s, data: data, state: state}
	if s.strict() {
		entries := s.properties.entriesAt(p)
		c.accessors = make(map[string]accessor, len(entries))
		c.order = make([]string, 0, len(entries))
		for _, e := range entries {
			c.accessors[e.name] = accessor{namespace: !e.leaf}
			c.order = append(c.order, e.name)
		}
	}
	return c
}

// newRoot creates a writeable root configuration with an empty data map.
func newRoot(s *schema) *Configuration {
	return newConfiguration(s, newDataMap(), &treeState{writeable: true}, RootPath())
}

func (c *Configuration) valid() error {
	if c == nil || c.schema == nil || c.data == nil || c.state == nil {
		return ErrInvalidNode
	}
	return nil
}

// Path returns the path of this node. The root node has the root path.
func (c *Configuration) Path() Path {
	if c == nil {
		return RootPath()
	}
	return c.path
}

// Writeable reports whether the tree is still inside its configure functions.
func (c *Configuration) Writeable() bool {
	return c.valid() == nil && c.state.writeable
}

// Strict reports whether only declared properties are accessible.
func (c *Configuration) Strict() bool {
	return c.valid() == nil && c.accessors != nil
}

// Keys lists the property names of this node: declared names for strict
// configurations, assigned names for arbitrary ones.
func (c *Configuration) Keys() []string {
	if c.valid() != nil {
		return nil
	}
	if c.accessors != nil {
		out := make([]string, len(c.order))
		copy(out, c.order)
		return out
	}
	return c.data.keysAt(c.path)
}

// Get returns the value of the named property. Namespaces are returned as
// *Configuration. A declared property without a value yields the result of its
// not-configured callback, or nil.
func (c *Configuration) Get(name string) (any, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	p := c.path.Add(name)

	if c.accessors != nil {
		acc, ok := c.accessors[name]
		if !ok {
			return nil, &UnknownPropertyError{Path: p.String()}
		}
		if acc.namespace {
			return c.child(name), nil
		}
		if v, ok := c.data.read(p); ok {
			return v, nil
		}
		return c.notConfigured(p, false)
	}

	if !isValidKeySegment(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if v, ok := c.data.read(p); ok {
		return v, nil
	}
	return c.notConfigured(p, c.schema.reads == ReadAsError)
}

func (c *Configuration) notConfigured(p Path, unknown bool) (any, error) {
	if fn := c.schema.callbacks.lookup(p); fn != nil {
		return fn(p)
	}
	if unknown {
		return nil, &UnknownPropertyError{Path: p.String()}
	}
	return nil, nil
}

// Node returns the nested configuration at name.
// Arbitrary configurations create it on demand while writeable.
func (c *Configuration) Node(name string) (*Configuration, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	p := c.path.Add(name)

	if c.accessors != nil {
		acc, ok := c.accessors[name]
		if !ok {
			return nil, &UnknownPropertyError{Path: p.String()}
		}
		if !acc.namespace {
			return nil, &ConfigurationError{Path: p.String(), Message: "is a property, not a namespace"}
		}
		return c.child(name), nil
	}

	if err := testReserved(name); err != nil {
		return nil, err
	}
	if !isValidKeySegment(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if v, ok := c.data.read(p); ok {
		if _, nested := v.(*Configuration); !nested {
			return nil, &ConfigurationError{Path: p.String(), Message: fmt.Sprintf("holds a value of type %T, not a namespace", v)}
		}
	}
	return c.child(name), nil
}

// child returns the stored child node, creating it when missing. Children of a
// read-only tree are not stored.
func (c *Configuration) child(name string) *Configuration {
	p := c.path.Add(name)
	if n, ok := c.data.nested(p); ok {
		return n
	}
	n := newConfiguration(c.schema, c.data, c.state, p)
	if c.state.writeable {
		c.data.write(p, n)
	}
	return n
}

// Set assigns value to the named property after running the declared type
// check and transform. Arbitrary configurations turn map values into nested nodes.
func (c *Configuration) Set(name string, value any) error {
	if err := c.valid(); err != nil {
		return err
	}
	p := c.path.Add(name)

	if !c.state.writeable {
		return &NotWriteableError{Path: p.String()}
	}
	if err := testReserved(name); err != nil {
		return err
	}
	if !isValidKeySegment(name) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if c.accessors != nil {
		acc, ok := c.accessors[name]
		if !ok {
			return &UnknownPropertyError{Path: p.String()}
		}
		if acc.namespace {
			return &ConfigurationError{Path: p.String(), Message: "is a namespace and can not be assigned"}
		}
	}

	if nested, ok := value.(*Configuration); ok {
		value = nested.ToHash()
	}
	if err := c.schema.types.test(p, value); err != nil {
		return err
	}
	value, err := c.schema.transforms.evaluate(p, value)
	if err != nil {
		return err
	}

	if c.accessors == nil {
		if entries, ok := hashEntries(value); ok {
			return c.assignNested(name, entries)
		}
		if _, nested := c.data.nested(p); nested {
			c.data.deleteTree(p)
		}
	}
	c.data.write(p, value)
	return nil
}

// assignNested replaces whatever is stored at name with a node holding entries.
func (c *Configuration) assignNested(name string, entries []hashEntry) error {
	p := c.path.Add(name)
	if err := checkAmbiguity(p, entries); err != nil {
		return err
	}
	snapshot := c.data.clone()
	c.data.deleteTree(p)
	if err := c.child(name).fromEntries(entries); err != nil {
		c.data.restore(snapshot)
		return err
	}
	return nil
}

// Lookup resolves a dotted path relative to this node.
func (c *Configuration) Lookup(dotted string) (any, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	p, err := ParsePath(dotted)
	if err != nil {
		return nil, err
	}
	if p.IsRoot() {
		return c, nil
	}
	node, err := c.descend(p.Parent())
	if err != nil {
		return nil, err
	}
	return node.Get(p.Last())
}

// SetPath assigns value at a dotted path relative to this node.
func (c *Configuration) SetPath(dotted string, value any) error {
	if err := c.valid(); err != nil {
		return err
	}
	p, err := ParsePath(dotted)
	if err != nil {
		return err
	}
	if p.IsRoot() {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	node, err := c.descend(p.Parent())
	if err != nil {
		return err
	}
	return node.Set(p.Last(), value)
}

func (c *Configuration) descend(p Path) (*Configuration, error) {
	node := c
	for _, segment := range p.segments {
		next, err := node.Node(segment)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// Call invokes the configuration method declared at name for this node's path.
func (c *Configuration) Call(name string, args ...any) (any, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	p := c.path.Add(name)
	fn, ok := c.schema.methods.lookup(p)
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, p)
	}
	return fn(c, args...)
}

// configureWith runs fns in order against the writeable root and then freezes the tree.
func (c *Configuration) configureWith(fns ...ConfigureFunc) error {
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	c.freeze()
	return nil
}

func (c *Configuration) freeze() {
	c.state.writeable = false
}

// String renders the node as its plain map.
func (c *Configuration) String() string {
	if c.valid() != nil {
		return "<invalid configuration>"
	}
	return fmt.Sprint(c.ToHash())
}

// Inspect describes the node for diagnostics.
func (c *Configuration) Inspect() string {
	if c.valid() != nil {
		return "#<Configuration invalid>"
	}
	mode := "arbitrary"
	if c.accessors != nil {
		mode = "strict"
	}
	state := "read-only"
	if c.state.writeable {
		state = "writeable"
	}
	return fmt.Sprintf("#<Configuration %s %s %s %s>", mode, c.path.display(), state, c.String())
}

// Equal reports whether both nodes are of the same kind and hold equal data.
func (c *Configuration) Equal(other *Configuration) bool {
	if c.valid() != nil || other.valid() != nil {
		return c == other
	}
	return c.Strict() == other.Strict() && reflect.DeepEqual(c.ToHash(), other.ToHash())
}

// Debug lists every stored value below this node with its declared type.
func (c *Configuration) Debug() string {
	if c.valid() != nil {
		return "Configuration Debug Info: invalid node\n"
	}
	flat := flattenMap(c.ToHash(), c.path.String())
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	b.WriteString(fmt.Sprintf("Mode: %s, writeable: %t, undeclared reads: %s\n",
		map[bool]string{true: "strict", false: "arbitrary"}[c.Strict()], c.Writeable(), c.schema.reads))
	b.WriteString("Current values:\n")
	for _, path := range paths {
		b.WriteString(fmt.Sprintf("  %s: %v\n", path, flat[path]))
		if p, err := ParsePath(path); err == nil {
			if typ := c.schema.types.expected(p); typ != nil {
				b.WriteString(fmt.Sprintf("    Type: %s\n", typ))
			}
		}
	}
	return b.String()
}
