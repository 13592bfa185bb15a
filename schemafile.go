// FILE: lixenwraith/configurations/schemafile.go
package configurations

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// SchemaFile is the serialized form of a set of declarations, as read by
// NewBuilderFromSchema:
//
//	reads = "error"
//	properties = ["name", { server = ["host", "port"] }]
//	required = ["server.host"]
//
//	[types]
//	"server.port" = "int"
//
//	[defaults.server]
//	port = 8080
type SchemaFile struct {
	// Reads is "nil" or "error", the ReadPolicy of arbitrary configurations
	Reads string `toml:"reads"`
	// Properties is a declaration literal, see ParseDeclarations
	Properties any `toml:"properties"`
	// Types maps dotted leaf paths to type names, see TypeByName
	Types map[string]string `toml:"types"`
	// Required lists dotted paths that must have a value
	Required []string `toml:"required"`
	// Defaults is merged before every configure function
	Defaults map[string]any `toml:"defaults"`
}

var typeNames = map[string]reflect.Type{
	"any":      nil,
	"string":   TypeOf[string](),
	"bool":     TypeOf[bool](),
	"int":      TypeOf[int](),
	"int64":    TypeOf[int64](),
	"uint":     TypeOf[uint](),
	"float64":  TypeOf[float64](),
	"duration": durationType,
	"time":     timeType,
	"[]string": TypeOf[[]string](),
	"[]int":    TypeOf[[]int](),
	"map":      TypeOf[map[string]any](),
}

// TypeByName resolves a schema type name.
func TypeByName(name string) (reflect.Type, error) {
	typ, ok := typeNames[name]
	if !ok {
		return nil, fmt.Errorf("unknown type name %q", name)
	}
	return typ, nil
}

// ParseReadPolicy resolves "nil" or "error".
func ParseReadPolicy(s string) (ReadPolicy, error) {
	switch s {
	case "", "nil":
		return ReadAsNil, nil
	case "error":
		return ReadAsError, nil
	default:
		return ReadAsNil, fmt.Errorf("unknown read policy %q", s)
	}
}

// NewBuilderFromSchema parses a TOML, JSON or YAML schema into a Builder.
// Further declarations can be added before Build.
func NewBuilderFromSchema(data []byte, format Format) (*Builder, error) {
	raw, err := parseBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	var sf SchemaFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &sf,
		TagName:          DecodeTagName,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	policy, err := ParseReadPolicy(sf.Reads)
	if err != nil {
		return nil, err
	}

	b := NewBuilder().WithUndeclaredReads(policy)
	if sf.Properties != nil {
		b.Configurable(sf.Properties)
	}

	paths := make([]string, 0, len(sf.Types))
	for path := range sf.Types {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		typ, err := TypeByName(sf.Types[path])
		if err != nil {
			return nil, fmt.Errorf("type of %s: %w", path, err)
		}
		decl, err := LeafAt(path)
		if err != nil {
			return nil, err
		}
		b.ConfigurableType(typ, decl)
	}

	// Defaults are coerced to the declared types like file contents
	if len(sf.Defaults) > 0 {
		defaults := sf.Defaults
		b.WithDefaults(func(c *Configuration) error {
			return c.merge(defaults, false)
		})
	}
	if len(sf.Required) > 0 {
		b.WithValidator(Require(sf.Required...))
	}
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}
