// FILE: lixenwraith/configurations/ambiguity.go
package configurations

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Symbol is a key kind distinct from string. A map holding both "p1" and
// Symbol("p1") is ambiguous and rejected by FromHash.
type Symbol string

// hashEntry is one key/value pair of a mapping with its canonical name.
type hashEntry struct {
	name  string
	key   any
	value any
}

// canonicalKey returns the property name a map key refers to.
func canonicalKey(key any) (string, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case Symbol:
		return string(k), true
	case fmt.Stringer:
		return k.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(k), true
	}
	return "", false
}

// displayKey renders a key so that string and Symbol keys are told apart.
func displayKey(key any) string {
	switch k := key.(type) {
	case string:
		return fmt.Sprintf("%q", k)
	case Symbol:
		return ":" + string(k)
	default:
		return fmt.Sprintf("%v (%T)", k, k)
	}
}

// hashEntries lists the entries of any map whose keys can be canonicalized,
// sorted by canonical name. It reports false for values that are not such maps.
func hashEntries(v any) ([]hashEntry, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		entries := make([]hashEntry, 0, len(m))
		for k, val := range m {
			entries = append(entries, hashEntry{name: k, key: k, value: val})
		}
		sortEntries(entries)
		return entries, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	entries := make([]hashEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().Interface()
		name, ok := canonicalKey(key)
		if !ok {
			return nil, false
		}
		entries = append(entries, hashEntry{name: name, key: key, value: iter.Value().Interface()})
	}
	sortEntries(entries)
	return entries, true
}

func sortEntries(entries []hashEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return displayKey(entries[i].key) < displayKey(entries[j].key)
	})
}

// checkAmbiguity fails when distinct keys share a canonical name anywhere in the mapping.
// All ambiguous keys are reported, prefixed with the path they were found at.
func checkAmbiguity(base Path, entries []hashEntry) error {
	var keys []string
	collectAmbiguous(base, entries, &keys)
	if len(keys) == 0 {
		return nil
	}
	return &ConfigurationError{
		Path:    base.String(),
		Message: "ambiguous keys " + strings.Join(keys, ", "),
		Keys:    keys,
	}
}

func collectAmbiguous(base Path, entries []hashEntry, keys *[]string) {
	for i := 0; i < len(entries); {
		j := i + 1
		for j < len(entries) && entries[j].name == entries[i].name {
			j++
		}
		if j-i > 1 {
			for _, e := range entries[i:j] {
				*keys = append(*keys, qualifiedKey(base, displayKey(e.key)))
			}
		}
		i = j
	}
	for _, e := range entries {
		if sub, ok := hashEntries(e.value); ok {
			collectAmbiguous(base.Add(e.name), sub, keys)
		}
	}
}

func qualifiedKey(base Path, key string) string {
	if base.IsRoot() {
		return key
	}
	return base.String() + "." + key
}
