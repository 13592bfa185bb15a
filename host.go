// FILE: lixenwraith/configurations/host.go
package configurations

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Host owns a schema and the single published configuration built from it.
// Configure calls are serialized; readers never observe an unfinished configuration.
type Host struct {
	name       string
	schema     *schema
	defaults   []ConfigureFunc
	validators []ValidatorFunc
	logger     *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[Configuration]
}

// Name returns the host name set with Builder.WithName.
func (h *Host) Name() string {
	return h.name
}

// IsStrict reports whether any property was declared.
func (h *Host) IsStrict() bool {
	return h.schema.strict()
}

// ReadPolicy returns the policy for unset reads of arbitrary configurations.
func (h *Host) ReadPolicy() ReadPolicy {
	return h.schema.reads
}

// Configurable reports whether the dotted path is a declared property or namespace.
func (h *Host) Configurable(dotted string) bool {
	p, err := ParsePath(dotted)
	if err != nil || p.IsRoot() {
		return false
	}
	return h.schema.properties.configurable(p)
}

// Properties returns every declared leaf path in declaration order.
func (h *Host) Properties() []string {
	leaves := h.schema.properties.t.leaves()
	out := make([]string, len(leaves))
	for i, p := range leaves {
		out[i] = p.String()
	}
	return out
}

// Configure builds a new configuration by running the defaults and then fn,
// freezes it, validates it and publishes it. On error the previously published
// configuration stays in place. A nil fn fails with ErrNilConfigure; use
// Configuration to get a configuration built from the defaults alone.
func (h *Host) Configure(fn ConfigureFunc) (*Configuration, error) {
	if fn == nil {
		return nil, ErrNilConfigure
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.configureLocked(fn)
}

func (h *Host) configureLocked(fns ...ConfigureFunc) (*Configuration, error) {
	c, err := h.build(fns...)
	if err != nil {
		h.logger.Debug("configure failed", "error", err)
		return nil, err
	}
	h.current.Store(c)
	h.logger.Debug("configuration published", "strict", c.Strict(), "keys", len(c.Keys()))
	return c, nil
}

// build creates a frozen and validated configuration without publishing it.
func (h *Host) build(fns ...ConfigureFunc) (*Configuration, error) {
	root := newRoot(h.schema)
	steps := make([]ConfigureFunc, 0, len(h.defaults)+len(fns))
	steps = append(steps, h.defaults...)
	steps = append(steps, fns...)
	if err := root.configureWith(steps...); err != nil {
		return nil, err
	}
	for _, validator := range h.validators {
		if err := validator(root); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return root, nil
}

// Configuration returns the published configuration. If none was published and
// defaults exist, it configures from the defaults alone; otherwise it returns nil.
func (h *Host) Configuration() *Configuration {
	if c := h.current.Load(); c != nil {
		return c
	}
	if len(h.defaults) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c := h.current.Load(); c != nil {
		return c
	}
	c, err := h.configureLocked()
	if err != nil {
		return nil
	}
	return c
}

// Reset drops the published configuration.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current.Store(nil)
}
