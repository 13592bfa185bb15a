// FILE: lixenwraith/configurations/hash_test.go
package configurations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHash(t *testing.T) {
	h := fixtureBuilder().MustBuild()
	c := configure(t, h, func(c *Configuration) error {
		require.NoError(t, c.Set("p1", "one"))
		require.NoError(t, c.SetPath("p3.p4", 4))
		return c.SetPath("p3.p5.p7", []string{"x"})
	})

	hash := c.ToHash()
	assert.Equal(t, map[string]any{
		"p1": "one",
		"p3": map[string]any{
			"p4": 4,
			"p5": map[string]any{"p7": []string{"x"}},
		},
	}, hash)

	// The result is detached from the tree
	hash["p1"] = "changed"
	v, err := c.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	node, err := c.Node("p3")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"p4": 4, "p5": map[string]any{"p7": []string{"x"}}}, node.ToHash())
}

func TestFromHash(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		source := configure(t, h, func(c *Configuration) error {
			require.NoError(t, c.Set("p2", true))
			return c.SetPath("p3.p5.p6", 6)
		})

		copied := configure(t, h, func(c *Configuration) error {
			return c.FromHash(source.ToHash())
		})
		assert.Equal(t, source.ToHash(), copied.ToHash())
		assert.True(t, source.Equal(copied))
	})

	t.Run("SymbolAndStringKeys", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		c := configure(t, h, func(c *Configuration) error {
			return c.FromHash(map[any]any{
				"p1":         "a",
				Symbol("p2"): "b",
				Symbol("p3"): map[any]any{Symbol("p4"): 4},
			})
		})
		assert.Equal(t, map[string]any{"p1": "a", "p2": "b", "p3": map[string]any{"p4": 4}}, c.ToHash())
	})

	t.Run("AmbiguousKeys", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		_, err := h.Configure(func(c *Configuration) error {
			return c.FromHash(map[any]any{"p1": "a", Symbol("p1"): "b"})
		})
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.ElementsMatch(t, []string{`"p1"`, ":p1"}, cfgErr.Keys)
		assert.Contains(t, cfgErr.Message, "ambiguous")
	})

	t.Run("NestedAmbiguityReportsEveryKey", func(t *testing.T) {
		h := NewBuilder().MustBuild()
		_, err := h.Configure(func(c *Configuration) error {
			return c.FromHash(map[any]any{
				"ok":  1,
				"a":   map[any]any{"x": 1, Symbol("x"): 2},
				"b":   map[any]any{"y": 1, Symbol("y"): 2},
				"sub": map[string]any{"fine": true},
			})
		})
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.ElementsMatch(t, []string{`a."x"`, "a.:x", `b."y"`, "b.:y"}, cfgErr.Keys)
	})

	t.Run("Atomic", func(t *testing.T) {
		h := NewBuilder().MustBuild()
		c := configure(t, h, func(c *Configuration) error {
			require.NoError(t, c.Set("existing", "kept"))

			err := c.FromHash(map[string]any{
				"a": 1,
				"b": map[string]any{"inspect": 2},
			})
			assert.True(t, errors.Is(err, ErrReservedName))
			return nil
		})

		assert.Equal(t, map[string]any{"existing": "kept"}, c.ToHash())
		assert.Equal(t, []string{"existing"}, c.Keys())
	})

	t.Run("StrictUnknownKeyRollsBack", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		c := configure(t, h, func(c *Configuration) error {
			err := c.FromHash(map[string]any{
				"p1": 1,
				"p3": map[string]any{"p4": 4, "p9": 9},
			})
			assert.True(t, errors.Is(err, ErrUnknownProperty))
			return nil
		})
		assert.Empty(t, c.ToHash())
	})

	t.Run("MergesIntoExistingNamespace", func(t *testing.T) {
		h := NewBuilder().MustBuild()
		c := configure(t, h, func(c *Configuration) error {
			require.NoError(t, c.SetPath("db.host", "localhost"))
			return c.FromHash(map[string]any{"db": map[string]any{"port": 5432}})
		})
		assert.Equal(t, map[string]any{"db": map[string]any{"host": "localhost", "port": 5432}}, c.ToHash())
	})

	t.Run("NestedNodeMerge", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		c := configure(t, h, func(c *Configuration) error {
			node, err := c.Node("p3")
			if err != nil {
				return err
			}
			return node.FromHash(map[string]any{"p5": map[string]any{"p6": "six"}})
		})
		v, err := c.Lookup("p3.p5.p6")
		require.NoError(t, err)
		assert.Equal(t, "six", v)
	})

	t.Run("NotAMap", func(t *testing.T) {
		h := NewBuilder().MustBuild()
		_, err := h.Configure(func(c *Configuration) error {
			return c.FromHash([]string{"a"})
		})
		assert.True(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("ConfigurationValuesAreCopied", func(t *testing.T) {
		h := NewBuilder().MustBuild()
		source := configure(t, h, func(c *Configuration) error {
			return c.SetPath("db.host", "h")
		})
		db, err := source.Node("db")
		require.NoError(t, err)

		c := configure(t, h, func(c *Configuration) error {
			return c.Set("copy", db)
		})
		assert.Equal(t, map[string]any{"copy": map[string]any{"host": "h"}}, c.ToHash())
	})
}
