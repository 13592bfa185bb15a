// FILE: lixenwraith/configurations/path_test.go
package configurations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	t.Run("RootPath", func(t *testing.T) {
		p := RootPath()
		assert.True(t, p.IsRoot())
		assert.Equal(t, 0, p.Len())
		assert.Equal(t, "", p.String())
		assert.Equal(t, "", p.Last())
		assert.True(t, p.Parent().IsRoot())
	})

	t.Run("AddDoesNotMutate", func(t *testing.T) {
		base := NewPath("server")
		a := base.Add("host")
		b := base.Add("port")

		assert.Equal(t, "server", base.String())
		assert.Equal(t, "server.host", a.String())
		assert.Equal(t, "server.port", b.String())
		assert.Equal(t, []string{"server", "host"}, a.Segments())
	})

	t.Run("SegmentsIsACopy", func(t *testing.T) {
		p := NewPath("a", "b")
		s := p.Segments()
		s[0] = "changed"
		assert.Equal(t, "a.b", p.String())
	})

	t.Run("Equal", func(t *testing.T) {
		assert.True(t, NewPath("a", "b").Equal(RootPath().Add("a").Add("b")))
		assert.False(t, NewPath("a", "b").Equal(NewPath("a")))
		assert.False(t, NewPath("a", "b").Equal(NewPath("a", "c")))
	})

	t.Run("JoinAndParent", func(t *testing.T) {
		p := NewPath("a").Join(NewPath("b", "c"))
		assert.Equal(t, "a.b.c", p.String())
		assert.Equal(t, "a.b", p.Parent().String())
		assert.Equal(t, "c", p.Last())
		assert.Equal(t, "a", NewPath("a").Join(RootPath()).String())
	})

	t.Run("ParsePath", func(t *testing.T) {
		p, err := ParsePath("p3.p5.p6")
		require.NoError(t, err)
		assert.Equal(t, []string{"p3", "p5", "p6"}, p.Segments())

		root, err := ParsePath("")
		require.NoError(t, err)
		assert.True(t, root.IsRoot())

		for _, bad := range []string{"a..b", ".a", "a.", "a b", "a.\tb"} {
			_, err := ParsePath(bad)
			assert.True(t, errors.Is(err, ErrInvalidPath), "expected invalid path for %q", bad)
		}
	})
}

func TestRelativeTo(t *testing.T) {
	rel, ok := relativeTo(NewPath("a"), NewPath("a", "b", "c"))
	require.True(t, ok)
	assert.Equal(t, "b.c", rel.String())

	_, ok = relativeTo(NewPath("x"), NewPath("a", "b"))
	assert.False(t, ok)

	_, ok = relativeTo(NewPath("a", "b"), NewPath("a", "b"))
	assert.False(t, ok)

	rel, ok = relativeTo(RootPath(), NewPath("a"))
	require.True(t, ok)
	assert.Equal(t, "a", rel.String())
}
