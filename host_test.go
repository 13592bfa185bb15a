// FILE: lixenwraith/configurations/host_test.go
package configurations

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostConfigure(t *testing.T) {
	t.Run("NilWithoutDefaults", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		assert.Nil(t, h.Configuration())
	})

	t.Run("NilFuncRejected", func(t *testing.T) {
		h := fixtureBuilder().
			WithDefaults(func(c *Configuration) error { return c.Set("p1", "default") }).
			MustBuild()

		c, err := h.Configure(nil)
		assert.True(t, errors.Is(err, ErrNilConfigure))
		assert.Nil(t, c)

		c = h.Configuration()
		require.NotNil(t, c)
		v, err := c.Get("p1")
		require.NoError(t, err)
		assert.Equal(t, "default", v)
	})

	t.Run("LazyDefaults", func(t *testing.T) {
		calls := 0
		h := fixtureBuilder().
			WithDefaults(func(c *Configuration) error {
				calls++
				return c.Set("p1", "default")
			}).
			MustBuild()

		c := h.Configuration()
		require.NotNil(t, c)
		assert.Same(t, c, h.Configuration())
		assert.Equal(t, 1, calls)

		v, err := c.Get("p1")
		require.NoError(t, err)
		assert.Equal(t, "default", v)
	})

	t.Run("DefaultsRunBeforeEveryConfigure", func(t *testing.T) {
		h := fixtureBuilder().
			WithDefaults(func(c *Configuration) error { return c.Set("p1", "first") }).
			WithDefaults(func(c *Configuration) error { return c.Set("p2", "second") }).
			MustBuild()

		c := configure(t, h, func(c *Configuration) error {
			v, err := c.Get("p1")
			require.NoError(t, err)
			assert.Equal(t, "first", v)
			return c.Set("p2", "override")
		})
		assert.Equal(t, map[string]any{"p1": "first", "p2": "override"}, c.ToHash())
	})

	t.Run("FailingDefaultsYieldNil", func(t *testing.T) {
		h := fixtureBuilder().
			WithDefaults(func(c *Configuration) error { return c.Set("unknown", 1) }).
			MustBuild()
		assert.Nil(t, h.Configuration())
	})

	t.Run("Replaces", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		first := configure(t, h, func(c *Configuration) error { return c.Set("p1", 1) })
		second := configure(t, h, func(c *Configuration) error { return c.Set("p1", 2) })

		assert.NotSame(t, first, second)
		assert.Same(t, second, h.Configuration())

		// Earlier configurations stay readable
		v, err := first.Get("p1")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("Reset", func(t *testing.T) {
		h := fixtureBuilder().MustBuild()
		configure(t, h, func(c *Configuration) error { return nil })
		h.Reset()
		assert.Nil(t, h.Configuration())
	})

	t.Run("Validators", func(t *testing.T) {
		var order []string
		h := fixtureBuilder().
			WithValidator(func(c *Configuration) error {
				order = append(order, "first")
				assert.False(t, c.Writeable())
				return nil
			}).
			WithValidator(func(c *Configuration) error {
				order = append(order, "second")
				if v, _ := c.Get("p1"); v == nil {
					return errors.New("p1 is required")
				}
				return nil
			}).
			MustBuild()

		_, err := h.Configure(func(c *Configuration) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "p1 is required")
		assert.Nil(t, h.Configuration())
		assert.Equal(t, []string{"first", "second"}, order)

		configure(t, h, func(c *Configuration) error { return c.Set("p1", 1) })
	})
}

func TestHostConcurrentConfigure(t *testing.T) {
	h := NewBuilder().Configurable("id", "copy").MustBuild()

	const workers = 100
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := h.Configure(func(c *Configuration) error {
				if err := c.Set("id", id); err != nil {
					return err
				}
				return c.Set("copy", id)
			})
			errs <- err
		}(i)
	}

	var readers sync.WaitGroup
	for i := 0; i < 10; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for j := 0; j < 100; j++ {
				if c := h.Configuration(); c != nil {
					id, _ := c.Get("id")
					cp, _ := c.Get("copy")
					assert.Equal(t, id, cp)
				}
			}
		}()
	}

	wg.Wait()
	readers.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	c := h.Configuration()
	require.NotNil(t, c)
	id, err := c.Get("id")
	require.NoError(t, err)
	cp, err := c.Get("copy")
	require.NoError(t, err)
	assert.Equal(t, id, cp)
}

func TestHostIntrospection(t *testing.T) {
	h := fixtureBuilder().WithName("fixture").MustBuild()

	assert.Equal(t, "fixture", h.Name())
	assert.True(t, h.Configurable("p3.p5"))
	assert.True(t, h.Configurable("p3.p5.p7"))
	assert.False(t, h.Configurable("p3.p8"))
	assert.False(t, h.Configurable(""))
	assert.False(t, h.Configurable("p3..p5"))
	assert.Equal(t, []string{"p1", "p2", "p3.p4", "p3.p5.p6", "p3.p5.p7"}, h.Properties())
	assert.Equal(t, ReadAsNil, h.ReadPolicy())
}

func TestHostLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := fixtureBuilder().WithName("logged").WithLogger(logger).MustBuild()

	configure(t, h, func(c *Configuration) error { return c.Set("p1", 1) })
	assert.Contains(t, buf.String(), "configuration published")
	assert.Contains(t, buf.String(), "host=logged")

	_, err := h.Configure(func(c *Configuration) error { return c.Set("p9", 1) })
	require.Error(t, err)
	assert.Contains(t, buf.String(), "configure failed")
}
