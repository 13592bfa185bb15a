// File: lixenwraith/configurations/builder.go
package configurations

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"
)

// ValidatorFunc checks a finished, read-only configuration before it is published.
type ValidatorFunc func(c *Configuration) error

// Builder declares the properties, methods and callbacks of a Host.
// Declaration errors are accumulated; the first one is returned by Build.
type Builder struct {
	name           string
	schema         *schema
	structDefaults map[string]any
	defaults       []ConfigureFunc
	validators     []ValidatorFunc
	logger         *slog.Logger
	err            error
}

// NewBuilder creates a new configuration builder
func NewBuilder() *Builder {
	return &Builder{
		schema:         newSchema(),
		structDefaults: make(map[string]any),
		validators:     make([]ValidatorFunc, 0),
	}
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil && err != nil {
		b.err = err
	}
	return b
}

func (b *Builder) parse(literals []any) ([]Declaration, bool) {
	decls, err := ParseDeclarations(literals)
	if err != nil {
		b.fail(err)
		return nil, false
	}
	return decls, true
}

// WithName sets the host name used in log records.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// Configurable declares assignable properties. Literals are property names,
// string slices, Nest namespaces, Declarations or nested maps of those.
// Declaring any property makes the configuration strict.
func (b *Builder) Configurable(literals ...any) *Builder {
	return b.ConfigurableTypeFunc(nil, nil, literals...)
}

// ConfigurableType declares properties that only accept values assignable to typ.
func (b *Builder) ConfigurableType(typ reflect.Type, literals ...any) *Builder {
	return b.ConfigurableTypeFunc(typ, nil, literals...)
}

// ConfigurableFunc declares properties whose values pass through fn before being stored.
// Without literals fn becomes the fallback transform for every property without its own.
func (b *Builder) ConfigurableFunc(fn TransformFunc, literals ...any) *Builder {
	if len(literals) == 0 {
		b.schema.transforms.fallback = fn
		return b
	}
	return b.ConfigurableTypeFunc(nil, fn, literals...)
}

// ConfigurableTypeFunc declares properties with both a type assertion and a transform.
// The type is checked against the value as assigned, before the transform runs.
func (b *Builder) ConfigurableTypeFunc(typ reflect.Type, fn TransformFunc, literals ...any) *Builder {
	if b.err != nil || len(literals) == 0 {
		return b
	}
	decls, ok := b.parse(literals)
	if !ok {
		return b
	}
	if err := b.schema.properties.add(decls...); err != nil {
		return b.fail(err)
	}
	// A redeclared leaf drops the type and transform of earlier declarations.
	if err := b.schema.types.add(typ, decls...); err != nil {
		return b.fail(err)
	}
	if err := b.schema.transforms.add(fn, decls...); err != nil {
		return b.fail(err)
	}
	return b
}

// ConfigurableStruct declares one typed property per exported field of a struct,
// named by its toml tag, below the dotted prefix. Nested structs become namespaces.
// Non-zero field values become configuration defaults.
func (b *Builder) ConfigurableStruct(prefix string, structWithDefaults any) *Builder {
	if b.err != nil {
		return b
	}
	v := reflect.ValueOf(structWithDefaults)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return b.fail(fmt.Errorf("ConfigurableStruct requires a struct, got %T", structWithDefaults))
	}
	base, err := ParsePath(prefix)
	if err != nil {
		return b.fail(err)
	}
	return b.registerFields(v, base)
}

var timeType = reflect.TypeOf(time.Time{})

func (b *Builder) registerFields(v reflect.Value, base Path) *Builder {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("toml")
		if tag == "-" {
			continue
		}
		key := field.Name
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				key = parts[0]
			}
		}

		if field.Type.Kind() == reflect.Struct && field.Type != timeType {
			b.ConfigurableTypeFunc(nil, nil, nestPath(base.Segments(), Nest(key)))
			b.registerFields(fieldValue, base.Add(key))
			continue
		}

		b.ConfigurableType(field.Type, nestPath(base.Segments(), Leaf(key)))
		if !fieldValue.IsZero() {
			setNestedValue(b.structDefaults, base.Add(key).String(), fieldValue.Interface())
		}
	}
	return b
}

// Method declares a configuration method callable with Configuration.Call on
// the node whose path contains the method name.
func (b *Builder) Method(fn MethodFunc, literals ...any) *Builder {
	if b.err != nil {
		return b
	}
	if fn == nil || len(literals) == 0 {
		return b.fail(&ConfigurationError{Message: "a configuration method needs a name and a function"})
	}
	decls, ok := b.parse(literals)
	if !ok {
		return b
	}
	return b.fail(b.schema.methods.add(fn, decls...))
}

// NotConfigured installs fn as the callback for reads of properties without a value.
// Without literals fn is the fallback for every property without its own callback.
func (b *Builder) NotConfigured(fn NotConfiguredFunc, literals ...any) *Builder {
	if b.err != nil {
		return b
	}
	if len(literals) == 0 {
		b.schema.callbacks.fallback = fn
		return b
	}
	decls, ok := b.parse(literals)
	if !ok {
		return b
	}
	return b.fail(b.schema.callbacks.add(fn, decls...))
}

// WithDefaults adds a function run before every configure function.
// Multiple defaults run in the order they are added.
func (b *Builder) WithDefaults(fn ConfigureFunc) *Builder {
	if fn != nil {
		b.defaults = append(b.defaults, fn)
	}
	return b
}

// WithValidator adds a validation function that runs after the configuration is frozen.
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithUndeclaredReads sets what arbitrary configurations return for unset properties.
func (b *Builder) WithUndeclaredReads(policy ReadPolicy) *Builder {
	b.schema.reads = policy
	return b
}

// WithLogger sets the logger of the Host. The default discards all records.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build creates the Host. The Builder must not be used afterwards.
func (b *Builder) Build() (*Host, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.schema.conflicts(); err != nil {
		return nil, err
	}

	defaults := make([]ConfigureFunc, 0, len(b.defaults)+1)
	if len(b.structDefaults) > 0 {
		structDefaults := b.structDefaults
		defaults = append(defaults, func(c *Configuration) error {
			if err := c.FromHash(structDefaults); err != nil {
				return fmt.Errorf("failed to apply struct defaults: %w", err)
			}
			return nil
		})
	}
	defaults = append(defaults, b.defaults...)

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if b.name != "" {
		logger = logger.With("host", b.name)
	}

	return &Host{
		name:       b.name,
		schema:     b.schema,
		defaults:   defaults,
		validators: b.validators,
		logger:     logger,
	}, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Host {
	h, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("configurations build failed: %v", err))
	}
	return h
}
