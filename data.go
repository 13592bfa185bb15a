// FILE: lixenwraith/configurations/data.go
package configurations

import (
	"maps"
	"slices"
	"strings"
)

// dataMap stores the values of one configuration tree keyed by path string.
// Children keeps the assignment order of keys under each parent path.
type dataMap struct {
	entries  map[string]any
	children map[string][]string
}

func newDataMap() *dataMap {
	return &dataMap{
		entries:  make(map[string]any),
		children: make(map[string][]string),
	}
}

func (d *dataMap) read(p Path) (any, bool) {
	v, ok := d.entries[p.String()]
	return v, ok
}

func (d *dataMap) write(p Path, value any) {
	key := p.String()
	if _, exists := d.entries[key]; !exists {
		parent := p.Parent().String()
		d.children[parent] = append(d.children[parent], p.Last())
	}
	d.entries[key] = value
}

// nested returns the child configuration stored at p, if any.
func (d *dataMap) nested(p Path) (*Configuration, bool) {
	v, ok := d.entries[p.String()]
	if !ok {
		return nil, false
	}
	c, ok := v.(*Configuration)
	return c, ok
}

// keysAt lists the stored keys directly under p in assignment order.
func (d *dataMap) keysAt(p Path) []string {
	return slices.Clone(d.children[p.String()])
}

// deleteTree removes p and everything stored below it.
func (d *dataMap) deleteTree(p Path) {
	key := p.String()
	if _, ok := d.entries[key]; !ok {
		return
	}
	delete(d.entries, key)
	prefix := key + "."
	for k := range d.entries {
		if strings.HasPrefix(k, prefix) {
			delete(d.entries, k)
		}
	}
	for k := range d.children {
		if k == key || strings.HasPrefix(k, prefix) {
			delete(d.children, k)
		}
	}
	parent := p.Parent().String()
	d.children[parent] = slices.DeleteFunc(d.children[parent], func(s string) bool { return s == p.Last() })
}

// clone snapshots the store. Stored *Configuration values are shared, not copied,
// since they hold no data of their own.
func (d *dataMap) clone() *dataMap {
	c := &dataMap{
		entries:  maps.Clone(d.entries),
		children: make(map[string][]string, len(d.children)),
	}
	for k, v := range d.children {
		c.children[k] = slices.Clone(v)
	}
	return c
}

// restore replaces the contents with a snapshot taken by clone.
func (d *dataMap) restore(snapshot *dataMap) {
	d.entries = snapshot.entries
	d.children = snapshot.children
}
