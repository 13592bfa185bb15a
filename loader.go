// FILE: lixenwraith/configurations/loader.go
package configurations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a serialization format for files and encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	// MaxFileSize bounds configuration files read by LoadFile.
	MaxFileSize int64 = 10 << 20
	// MaxValueSize bounds single values read from the environment or command line.
	MaxValueSize = 1 << 20
)

// EnvTransformFunc converts a configuration path to an environment variable name
type EnvTransformFunc func(path string) string

// LoadFile merges a TOML, JSON or YAML file into the node. The format is taken
// from the extension, then sniffed from the content. A missing file returns
// ErrConfigNotFound. Strict configurations ignore undeclared keys.
func (c *Configuration) LoadFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if fileInfo.Size() > MaxFileSize {
		return fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, MaxFileSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, MaxFileSize))
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := c.LoadBytes(fileData, detectFileFormat(path)); err != nil {
		return fmt.Errorf("config file '%s': %w", path, err)
	}
	return nil
}

// LoadBytes merges serialized data into the node. FormatAuto sniffs the content.
func (c *Configuration) LoadBytes(data []byte, format Format) error {
	parsed, err := parseBytes(data, format)
	if err != nil {
		return err
	}
	return c.merge(parsed, false)
}

func parseBytes(data []byte, format Format) (map[string]any, error) {
	if format == "" || format == FormatAuto {
		format = detectFormatFromContent(data)
	}

	parsed := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFileFormat, format)
	}
	return parsed, nil
}

// LoadEnv merges environment variables into the node.
//
// Strict configurations look up every declared property below the node, with
// the path mapped by the default transform: "server.port" with prefix "APP_"
// reads APP_SERVER_PORT. Arbitrary configurations take every variable starting
// with prefix; the remainder is lowercased and split into segments at "__".
func (c *Configuration) LoadEnv(prefix string) error {
	return c.LoadEnvWith(defaultEnvTransform(prefix), prefix)
}

// LoadEnvWith is LoadEnv with a custom transform for strict configurations.
func (c *Configuration) LoadEnvWith(transform EnvTransformFunc, prefix string) error {
	if err := c.valid(); err != nil {
		return err
	}
	found := make(map[string]any)

	if c.Strict() {
		for _, p := range c.schema.properties.t.leaves() {
			rel, ok := relativeTo(c.path, p)
			if !ok {
				continue
			}
			value, exists := os.LookupEnv(transform(p.String()))
			if !exists {
				continue
			}
			if len(value) > MaxValueSize {
				return ErrValueSize
			}
			setNestedValue(found, rel.String(), value)
		}
	} else {
		if prefix == "" {
			return fmt.Errorf("%w: arbitrary configurations need an environment prefix", ErrInvalidPath)
		}
		for _, kv := range os.Environ() {
			name, value, _ := strings.Cut(kv, "=")
			if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
				continue
			}
			if len(value) > MaxValueSize {
				return ErrValueSize
			}
			key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix), "__", "."))
			if _, err := ParsePath(key); err != nil {
				continue
			}
			setNestedValue(found, key, value)
		}
	}

	if len(found) == 0 {
		return nil
	}
	return c.merge(found, true)
}

// LoadArgs merges command-line arguments of the form --a.b=v, --a.b v and --flag.
func (c *Configuration) LoadArgs(args []string) error {
	parsed, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCLIParse, err)
	}
	if len(parsed) == 0 {
		return nil
	}
	return c.merge(parsed, true)
}

// merge coerces loaded data to the declared types and applies it with FromHash.
// Raw data holds strings from the environment or command line; where no type
// is declared those are parsed with parseValue.
func (c *Configuration) merge(data map[string]any, raw bool) error {
	if err := c.valid(); err != nil {
		return err
	}
	coerced, err := c.coerceTree(c.path, data, raw)
	if err != nil {
		return err
	}
	return c.FromHash(coerced)
}

// coerceTree converts loaded values to the types declared at their paths and,
// for strict configurations, drops undeclared keys.
func (c *Configuration) coerceTree(base Path, data any, raw bool) (map[string]any, error) {
	entries, _ := hashEntries(data)
	out := make(map[string]any, len(entries))
	strict := c.Strict()

	for _, e := range entries {
		p := base.Add(e.name)
		if strict && !c.schema.properties.configurable(p) {
			continue
		}
		if _, isMap := hashEntries(e.value); isMap && (!strict || !c.schema.properties.isLeaf(p)) {
			sub, err := c.coerceTree(p, e.value, raw)
			if err != nil {
				return nil, err
			}
			out[e.name] = sub
			continue
		}

		value := normalizeNumber(e.value)
		typ := c.schema.types.expected(p)
		switch {
		case typ != nil:
			converted, err := coerceValue(typ, value)
			if err != nil {
				return nil, &ConfigurationError{Path: p.String(), Message: "invalid loaded value", Err: err}
			}
			value = converted
		case raw:
			if s, ok := value.(string); ok {
				value = parseValue(s)
			}
		}
		out[e.name] = value
	}
	return out, nil
}

// normalizeNumber turns json.Number into int64 or float64.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// relativeTo returns p without the leading base segments.
func relativeTo(base, p Path) (Path, bool) {
	if p.Len() <= base.Len() {
		return Path{}, false
	}
	for i, s := range base.segments {
		if p.segments[i] != s {
			return Path{}, false
		}
	}
	return NewPath(p.segments[base.Len():]...), true
}

// EnvNames returns the environment variable name of every declared property.
func (h *Host) EnvNames(prefix string) map[string]string {
	transform := defaultEnvTransform(prefix)
	names := make(map[string]string)
	for _, p := range h.Properties() {
		names[p] = transform(p)
	}
	return names
}

// DiscoverEnv returns the declared paths that have a set environment variable.
func (h *Host) DiscoverEnv(prefix string) []string {
	var found []string
	for path, env := range h.EnvNames(prefix) {
		if _, exists := os.LookupEnv(env); exists {
			found = append(found, path)
		}
	}
	sort.Strings(found)
	return found
}

// defaultEnvTransform creates the default environment variable transformer
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}

// parseValue attempts to parse a string into appropriate types
// Only basic parse, typed conversion is done against declared types
func parseValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}

// parseArgs collects "--key=value", "--key value" and bare "--flag" (true)
// arguments into a nested map of raw strings. Positional arguments and a lone
// "--" are skipped.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	for i := 0; i < len(args); i++ {
		key, ok := strings.CutPrefix(args[i], "--")
		if !ok || key == "" {
			continue
		}
		key, value, inline := strings.Cut(key, "=")
		if !inline {
			value = "true"
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				i++
				value = args[i]
			}
		}
		if key == "" {
			continue
		}
		if len(value) > MaxValueSize {
			return nil, ErrValueSize
		}
		if _, err := ParsePath(key); err != nil {
			return nil, err
		}
		setNestedValue(result, key, value)
	}
	return result, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) Format {
	// JSON first, YAML is a superset of it
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	return ""
}
