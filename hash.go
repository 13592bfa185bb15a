// FILE: lixenwraith/configurations/hash.go
package configurations

import (
	"fmt"
)

// ToHash returns the node as plain nested maps. Nested nodes become
// map[string]any; no *Configuration is contained in the result.
func (c *Configuration) ToHash() map[string]any {
	if c.valid() != nil {
		return nil
	}
	out := make(map[string]any)
	for _, key := range c.data.keysAt(c.path) {
		p := c.path.Add(key)
		v, ok := c.data.read(p)
		if !ok {
			continue
		}
		if nested, isNode := v.(*Configuration); isNode {
			out[key] = nested.ToHash()
			continue
		}
		out[key] = v
	}
	return out
}

// FromHash merges a map into the node. Keys may be string, Symbol, fmt.Stringer
// or integer kinds. Map values merge into existing namespaces and otherwise go
// through Set.
//
// The merge is atomic: keys whose canonical names collide anywhere in data are
// rejected up front, and any later failure restores the tree to its state
// before the call.
func (c *Configuration) FromHash(data any) error {
	if err := c.valid(); err != nil {
		return err
	}
	if !c.state.writeable {
		return &NotWriteableError{Path: c.path.display()}
	}
	entries, ok := hashEntries(data)
	if !ok {
		return &ConfigurationError{Path: c.path.String(), Message: fmt.Sprintf("can not merge a value of type %T", data)}
	}
	if err := checkAmbiguity(c.path, entries); err != nil {
		return err
	}

	snapshot := c.data.clone()
	if err := c.fromEntries(entries); err != nil {
		c.data.restore(snapshot)
		return err
	}
	return nil
}

func (c *Configuration) fromEntries(entries []hashEntry) error {
	for _, e := range entries {
		if sub, ok := hashEntries(e.value); ok && c.isNamespace(e.name) {
			node, err := c.Node(e.name)
			if err != nil {
				return err
			}
			if err := node.fromEntries(sub); err != nil {
				return err
			}
			continue
		}
		if err := c.Set(e.name, e.value); err != nil {
			return err
		}
	}
	return nil
}

// isNamespace reports whether name currently resolves to a nested node.
func (c *Configuration) isNamespace(name string) bool {
	if c.accessors != nil {
		return c.accessors[name].namespace
	}
	_, ok := c.data.nested(c.path.Add(name))
	return ok
}
