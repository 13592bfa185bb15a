// File: lixenwraith/configurations/convenience.go
package configurations

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Quick declares the fields of structDefaults, then configures the host from
// the file, the environment and the command line, in rising precedence.
// A missing file is not fatal: the configuration is returned with ErrConfigNotFound.
func Quick(structDefaults any, envPrefix, configFile string) (*Host, *Configuration, error) {
	b := NewBuilder()
	if structDefaults != nil {
		b.ConfigurableStruct("", structDefaults)
	}
	h, err := b.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register defaults: %w", err)
	}

	opts := DefaultLoadOptions()
	opts.EnvPrefix = envPrefix
	opts.File = configFile
	opts.Args = os.Args[1:]

	var notFound error
	c, err := h.Configure(func(c *Configuration) error {
		err := c.Load(opts)
		if errors.Is(err, ErrConfigNotFound) {
			notFound = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return h, c, notFound
}

// MustQuick is like Quick but panics on error
func MustQuick(structDefaults any, envPrefix, configFile string) (*Host, *Configuration) {
	h, c, err := Quick(structDefaults, envPrefix, configFile)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("configurations initialization failed: %v", err))
	}
	return h, c
}

var durationType = reflect.TypeOf(time.Duration(0))

// FlagSet creates a flag for every declared property, typed after its declared type.
func (h *Host) FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	for _, path := range h.Properties() {
		usage := fmt.Sprintf("Config: %s", path)
		p, _ := ParsePath(path)
		typ := h.schema.types.expected(p)
		if typ == nil {
			fs.String(path, "", usage)
			continue
		}
		switch {
		case typ == durationType:
			fs.Duration(path, 0, usage)
		case typ.Kind() == reflect.Bool:
			fs.Bool(path, false, usage)
		case typ.Kind() == reflect.Int:
			fs.Int(path, 0, usage)
		case typ.Kind() == reflect.Int64:
			fs.Int64(path, 0, usage)
		case typ.Kind() == reflect.Float64:
			fs.Float64(path, 0, usage)
		case typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.String:
			fs.StringSlice(path, nil, usage)
		default:
			fs.String(path, "", usage)
		}
	}

	return fs
}

// BindFlags applies every flag that was set on the command line.
// Flag names are dotted property paths relative to the node.
func (c *Configuration) BindFlags(fs *pflag.FlagSet) error {
	values := make(map[string]any)
	var errs []error

	fs.Visit(func(f *pflag.Flag) {
		if _, err := ParsePath(f.Name); err != nil {
			errs = append(errs, fmt.Errorf("flag %s: %w", f.Name, err))
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			setNestedValue(values, f.Name, sv.GetSlice())
			return
		}
		setNestedValue(values, f.Name, f.Value.String())
	})

	if len(errs) > 0 {
		return fmt.Errorf("failed to bind %d flags: %w", len(errs), errs[0])
	}
	if len(values) == 0 {
		return nil
	}
	return c.merge(values, true)
}

// Require returns a validator failing when any of the dotted paths has no value.
func Require(paths ...string) ValidatorFunc {
	return func(c *Configuration) error {
		var missing []string
		for _, path := range paths {
			v, err := c.Lookup(path)
			if err != nil || v == nil {
				missing = append(missing, path)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrNotConfigured, strings.Join(missing, ", "))
		}
		return nil
	}
}
