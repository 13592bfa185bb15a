// FILE: lixenwraith/configurations/builder_test.go
package configurations

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverDefaults struct {
	Server struct {
		Host    string        `toml:"host"`
		Port    int           `toml:"port"`
		Timeout time.Duration `toml:"timeout"`
	} `toml:"server"`
	Debug     bool      `toml:"debug"`
	Tags      []string  `toml:"tags"`
	StartedAt time.Time `toml:"started_at"`
	Ignored   string    `toml:"-"`
	NoTag     string
	internal  string
}

func newServerDefaults() *serverDefaults {
	d := &serverDefaults{}
	d.Server.Host = "localhost"
	d.Server.Port = 8080
	d.Server.Timeout = 5 * time.Second
	return d
}

func TestBuilderConfigurableStruct(t *testing.T) {
	h, err := NewBuilder().ConfigurableStruct("", newServerDefaults()).Build()
	require.NoError(t, err)

	t.Run("DeclaresFields", func(t *testing.T) {
		assert.Equal(t, []string{
			"server.host", "server.port", "server.timeout",
			"debug", "tags", "started_at", "NoTag",
		}, h.Properties())
		assert.False(t, h.Configurable("Ignored"))
		assert.False(t, h.Configurable("internal"))
	})

	t.Run("NonZeroFieldsAreDefaults", func(t *testing.T) {
		c := h.Configuration()
		require.NotNil(t, c)
		assert.Equal(t, map[string]any{
			"server": map[string]any{
				"host":    "localhost",
				"port":    8080,
				"timeout": 5 * time.Second,
			},
		}, c.ToHash())
	})

	t.Run("FieldTypesAreEnforced", func(t *testing.T) {
		_, err := h.Configure(func(c *Configuration) error {
			return c.SetPath("server.port", "9090")
		})
		assert.True(t, errors.Is(err, ErrConfiguration))

		c := configure(t, h, func(c *Configuration) error {
			return c.SetPath("server.port", 9090)
		})
		port, err := c.GetInt64("server.port")
		require.NoError(t, err)
		assert.Equal(t, int64(9090), port)
	})

	t.Run("Prefix", func(t *testing.T) {
		prefixed, err := NewBuilder().ConfigurableStruct("app.settings", newServerDefaults()).Build()
		require.NoError(t, err)
		assert.True(t, prefixed.Configurable("app.settings.server.port"))

		v, err := prefixed.Configuration().Lookup("app.settings.server.host")
		require.NoError(t, err)
		assert.Equal(t, "localhost", v)
	})

	t.Run("RejectsNonStruct", func(t *testing.T) {
		_, err := NewBuilder().ConfigurableStruct("", 42).Build()
		assert.Error(t, err)
	})
}

func TestBuilderErrors(t *testing.T) {
	t.Run("FirstErrorWins", func(t *testing.T) {
		_, err := NewBuilder().
			Configurable("to_h").
			Configurable("a..b").
			Build()
		assert.True(t, errors.Is(err, ErrReservedName))
	})

	t.Run("LeafNamespaceConflict", func(t *testing.T) {
		_, err := NewBuilder().
			Configurable("a").
			Configurable(Nest("a", Leaf("b"))).
			Build()
		assert.True(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("UnsupportedLiteral", func(t *testing.T) {
		_, err := NewBuilder().Configurable(1.5).Build()
		assert.True(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBuilder().Configurable("new").MustBuild()
		})
	})
}

func TestBuilderDeclarationForms(t *testing.T) {
	h := NewBuilder().
		Configurable(Leaf("a"), Group{"b", "c"}).
		Configurable(Nest("parent", Leaf("childA"))).
		Configurable(map[string]any{"parent": "childB"}).
		Configurable(Symbol("d")).
		MustBuild()

	assert.Equal(t, []string{"a", "b", "c", "parent.childA", "parent.childB", "d"}, h.Properties())
}

func TestBuilderRedeclaration(t *testing.T) {
	upper := func(v any) (any, error) { return strings.ToUpper(v.(string)), nil }

	t.Run("PlainDropsType", func(t *testing.T) {
		h := NewBuilder().
			ConfigurableType(TypeOf[string](), "a", Nest("ns", Leaf("b"))).
			Configurable("a").
			MustBuild()

		c := configure(t, h, func(c *Configuration) error {
			return c.Set("a", 5)
		})
		v, err := c.Get("a")
		require.NoError(t, err)
		assert.Equal(t, 5, v)

		_, err = h.Configure(func(c *Configuration) error {
			return c.SetPath("ns.b", 5)
		})
		assert.True(t, errors.Is(err, ErrConfiguration), "ns.b was not redeclared")
	})

	t.Run("PlainDropsTransform", func(t *testing.T) {
		h := NewBuilder().
			ConfigurableFunc(upper, "a").
			Configurable("a").
			MustBuild()

		c := configure(t, h, func(c *Configuration) error {
			return c.Set("a", "x")
		})
		v, err := c.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	})

	t.Run("LatestTypeWins", func(t *testing.T) {
		h := NewBuilder().
			ConfigurableType(TypeOf[string](), Nest("server", Leaf("port"))).
			ConfigurableType(TypeOf[int](), Nest("server", Leaf("port"))).
			MustBuild()

		c := configure(t, h, func(c *Configuration) error {
			return c.SetPath("server.port", 8080)
		})
		v, err := c.Lookup("server.port")
		require.NoError(t, err)
		assert.Equal(t, 8080, v)
	})

	t.Run("RedeclaredLeafUsesFallback", func(t *testing.T) {
		h := NewBuilder().
			ConfigurableFunc(func(v any) (any, error) { return "<" + v.(string) + ">", nil }).
			ConfigurableFunc(upper, "a").
			Configurable("a").
			MustBuild()

		c := configure(t, h, func(c *Configuration) error {
			return c.Set("a", "x")
		})
		v, err := c.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "<x>", v)
	})
}
