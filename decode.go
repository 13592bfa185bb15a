// FILE: lixenwraith/configurations/decode.go
package configurations

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DecodeTagName is the struct tag read by Decode, Scan and ConfigurableStruct.
const DecodeTagName = "toml"

// Decode copies the node into target, a non-nil pointer to a struct or map.
func (c *Configuration) Decode(target any) error {
	return c.Scan("", target)
}

// Scan decodes the namespace at the dotted basePath into target.
// A missing namespace decodes as empty.
func (c *Configuration) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}
	if err := c.valid(); err != nil {
		return err
	}

	section := map[string]any{}
	if basePath == "" {
		section = c.ToHash()
	} else {
		v, err := c.Lookup(basePath)
		if err != nil {
			return err
		}
		switch node := v.(type) {
		case *Configuration:
			section = node.ToHash()
		case map[string]any:
			section = node
		case nil:
		default:
			return fmt.Errorf("path %q refers to non-map value (type %T)", basePath, v)
		}
	}

	decoder, err := newDecoder(target, true)
	if err != nil {
		return err
	}
	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", basePath, err)
	}
	return nil
}

// coerceValue converts value to typ when it is not already assignable,
// using the same hooks as Decode. Loaders use it to turn strings and wide
// numbers from files, environment and flags into declared types.
func coerceValue(typ reflect.Type, value any) (any, error) {
	if typ == nil || value == nil || satisfies(typ, value) {
		return value, nil
	}
	out := reflect.New(typ)
	decoder, err := newDecoder(out.Interface(), false)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(value); err != nil {
		return nil, fmt.Errorf("cannot convert %v (%T) to %s: %w", value, value, typ, err)
	}
	return out.Elem().Interface(), nil
}

func newDecoder(result any, zeroFields bool) (*mapstructure.Decoder, error) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          DecodeTagName,
		WeaklyTypedInput: true,
		ZeroFields:       zeroFields,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			parseHook(45, "IP address", func(s string) (net.IP, error) {
				if ip := net.ParseIP(s); ip != nil {
					return ip, nil
				}
				return nil, fmt.Errorf("invalid IP address: %s", s)
			}),
			parseHook(49, "CIDR", func(s string) (net.IPNet, error) {
				_, ipnet, err := net.ParseCIDR(s)
				if err != nil {
					return net.IPNet{}, err
				}
				return *ipnet, nil
			}),
			parseHook(2048, "URL", func(s string) (url.URL, error) {
				u, err := url.Parse(s)
				if err != nil {
					return url.URL{}, err
				}
				return *u, nil
			}),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder, nil
}

// parseHook decodes strings into T or *T with parse. Inputs longer than
// maxLen are rejected before parsing.
func parseHook[T any](maxLen int, what string, parse func(string) (T, error)) mapstructure.DecodeHookFuncType {
	target := TypeOf[T]()
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		ptr := to.Kind() == reflect.Ptr && to.Elem() == target
		if to != target && !ptr {
			return data, nil
		}
		s := data.(string)
		if len(s) > maxLen {
			return nil, fmt.Errorf("invalid %s: %d bytes exceeds %d", what, len(s), maxLen)
		}
		v, err := parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", what, err)
		}
		if ptr {
			return &v, nil
		}
		return v, nil
	}
}
