// File: lixenwraith/configurations/io.go
package configurations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Source represents a configuration source, used to define load precedence
type Source string

const (
	// SourceFile represents values loaded from a configuration file
	SourceFile Source = "file"
	// SourceEnv represents values loaded from environment variables
	SourceEnv Source = "env"
	// SourceCLI represents values loaded from command-line arguments
	SourceCLI Source = "cli"
)

// LoadOptions configures how Load layers its sources
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority)
	// Default: [SourceCLI, SourceEnv, SourceFile]
	Sources []Source

	// File is the configuration file; empty skips the file source
	File string

	// Args are command-line arguments; nil skips the command-line source
	Args []string

	// EnvPrefix is prepended to environment variable names
	EnvPrefix string

	// EnvTransform customizes how paths map to environment variables
	EnvTransform EnvTransformFunc
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources: []Source{SourceCLI, SourceEnv, SourceFile},
	}
}

// Load applies every source of opts, lowest precedence first, so that higher
// precedence sources overwrite. A missing file is reported as ErrConfigNotFound
// after the remaining sources were applied.
func (c *Configuration) Load(opts LoadOptions) error {
	sources := opts.Sources
	if len(sources) == 0 {
		sources = DefaultLoadOptions().Sources
	}

	var loadErrors []error
	for i := len(sources) - 1; i >= 0; i-- {
		switch sources[i] {
		case SourceFile:
			if opts.File == "" {
				continue
			}
			if err := c.LoadFile(opts.File); err != nil {
				if !errors.Is(err, ErrConfigNotFound) {
					return err
				}
				loadErrors = append(loadErrors, err)
			}

		case SourceEnv:
			transform := opts.EnvTransform
			if transform == nil {
				transform = defaultEnvTransform(opts.EnvPrefix)
			}
			if !c.Strict() && opts.EnvPrefix == "" {
				continue
			}
			if err := c.LoadEnvWith(transform, opts.EnvPrefix); err != nil {
				return err
			}

		case SourceCLI:
			if len(opts.Args) == 0 {
				continue
			}
			if err := c.LoadArgs(opts.Args); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown configuration source %q", sources[i])
		}
	}

	return errors.Join(loadErrors...)
}

// Encode writes the node in the given format. FormatAuto writes TOML.
func (c *Configuration) Encode(w io.Writer, format Format) error {
	data, err := c.Marshal(format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal serializes the node in the given format. FormatAuto produces TOML.
func (c *Configuration) Marshal(format Format) ([]byte, error) {
	if err := c.valid(); err != nil {
		return nil, err
	}
	data := c.ToHash()

	switch format {
	case FormatTOML, FormatAuto, "":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(withoutNil(data)); err != nil {
			return nil, fmt.Errorf("failed to marshal configuration to TOML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal configuration to JSON: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal configuration to YAML: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFileFormat, format)
	}
}

// Save writes the node to path atomically, in the format named by its extension.
func (c *Configuration) Save(path string) error {
	data, err := c.Marshal(detectFileFormat(path))
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data)
}

// ExportEnv returns every stored leaf as an environment variable assignment.
func (c *Configuration) ExportEnv(prefix string) map[string]string {
	transform := defaultEnvTransform(prefix)
	exports := make(map[string]string)
	for path, value := range flattenMap(c.ToHash(), c.path.String()) {
		if value == nil {
			continue
		}
		exports[transform(path)] = fmt.Sprintf("%v", value)
	}
	return exports
}

// withoutNil drops nil values, which TOML can not represent.
func withoutNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, value := range m {
		switch v := value.(type) {
		case nil:
		case map[string]any:
			out[k] = withoutNil(v)
		default:
			out[k] = v
		}
	}
	return out
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
