// FILE: lixenwraith/configurations/trie.go
package configurations

import (
	"fmt"
)

// trieNode is either a leaf carrying a payload or a namespace holding children.
type trieNode[T any] struct {
	leaf     bool
	payload  T
	children map[string]*trieNode[T]
	order    []string // declaration order of children
}

func newNamespaceNode[T any]() *trieNode[T] {
	return &trieNode[T]{children: make(map[string]*trieNode[T])}
}

func (n *trieNode[T]) child(name string) *trieNode[T] {
	if n == nil || n.leaf {
		return nil
	}
	return n.children[name]
}

func (n *trieNode[T]) attach(name string, c *trieNode[T]) {
	if _, exists := n.children[name]; !exists {
		n.order = append(n.order, name)
	}
	n.children[name] = c
}

// trieEntry is an immediate child of a trie node.
type trieEntry[T any] struct {
	name    string
	leaf    bool
	payload T
}

// trie stores declarations keyed by path. It is written by the Builder and read-only afterwards.
type trie[T any] struct {
	root *trieNode[T]
}

func newTrie[T any]() *trie[T] {
	return &trie[T]{root: newNamespaceNode[T]()}
}

// walk returns the node at p, or nil on the first missing segment.
func (t *trie[T]) walk(p Path) *trieNode[T] {
	n := t.root
	for _, segment := range p.segments {
		n = n.child(segment)
		if n == nil {
			return nil
		}
	}
	return n
}

// add resolves every leaf of decls and stores payload on it.
// Namespaces merge additively; a repeated leaf takes the latest payload.
func (t *trie[T]) add(payload T, decls ...Declaration) error {
	w := &trieWriter[T]{trie: t, payload: payload}
	for _, d := range decls {
		if err := d.accept(RootPath(), w); err != nil {
			return err
		}
	}
	return nil
}

// entriesAt lists the immediate children at p in declaration order.
func (t *trie[T]) entriesAt(p Path) []trieEntry[T] {
	n := t.walk(p)
	if n == nil || n.leaf {
		return nil
	}
	entries := make([]trieEntry[T], 0, len(n.order))
	for _, name := range n.order {
		c := n.children[name]
		entries = append(entries, trieEntry[T]{name: name, leaf: c.leaf, payload: c.payload})
	}
	return entries
}

// lookup returns the payload of the leaf at p.
func (t *trie[T]) lookup(p Path) (T, bool) {
	n := t.walk(p)
	if n == nil || !n.leaf {
		var zero T
		return zero, false
	}
	return n.payload, true
}

func (t *trie[T]) configurable(p Path) bool {
	return t.walk(p) != nil
}

func (t *trie[T]) empty() bool {
	return len(t.root.order) == 0
}

// leaves returns every leaf path in declaration order, depth first.
func (t *trie[T]) leaves() []Path {
	var out []Path
	var visit func(n *trieNode[T], p Path)
	visit = func(n *trieNode[T], p Path) {
		for _, name := range n.order {
			c := n.children[name]
			cp := p.Add(name)
			if c.leaf {
				out = append(out, cp)
				continue
			}
			visit(c, cp)
		}
	}
	visit(t.root, RootPath())
	return out
}

// trieWriter applies declarations to a trie.
type trieWriter[T any] struct {
	trie    *trie[T]
	payload T
}

// namespace walks p creating namespaces, failing if any segment is already a leaf.
func (w *trieWriter[T]) namespace(p Path) (*trieNode[T], error) {
	n := w.trie.root
	for i, segment := range p.segments {
		if err := testReserved(segment); err != nil {
			return nil, err
		}
		c, exists := n.children[segment]
		switch {
		case !exists:
			c = newNamespaceNode[T]()
			n.attach(segment, c)
		case c.leaf:
			return nil, &ConfigurationError{
				Path:    NewPath(p.segments[:i+1]...).String(),
				Message: "declared as a property, can not be redeclared as a namespace",
			}
		}
		n = c
	}
	return n, nil
}

func (w *trieWriter[T]) visitNamespace(p Path) error {
	_, err := w.namespace(p)
	return err
}

func (w *trieWriter[T]) visitLeaf(p Path) error {
	parent, err := w.namespace(p.Parent())
	if err != nil {
		return err
	}
	name := p.Last()
	if err := testReserved(name); err != nil {
		return err
	}
	if existing, ok := parent.children[name]; ok && !existing.leaf {
		return &ConfigurationError{
			Path:    p.String(),
			Message: fmt.Sprintf("declared as a namespace with %d children, can not be redeclared as a property", len(existing.order)),
		}
	}
	parent.attach(name, &trieNode[T]{leaf: true, payload: w.payload})
	return nil
}
