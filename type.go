// File: lixenwraith/configurations/type.go
package configurations

import (
	"fmt"
	"strconv"
	"time"
)

// lookupAs reads path and converts the value to T with the loader coercion
// rules: weak typing plus the duration, time, net and URL decode hooks.
func lookupAs[T any](c *Configuration, path string) (T, error) {
	var zero T
	val, err := c.Lookup(path)
	if err != nil {
		return zero, err
	}
	switch v := val.(type) {
	case nil:
		return zero, fmt.Errorf("value for path %s is nil, cannot convert to %T", path, zero)
	case T:
		return v, nil
	case *Configuration:
		return zero, fmt.Errorf("path %s is a namespace, cannot convert to %T", path, zero)
	}
	out, err := coerceValue(TypeOf[T](), val)
	if err != nil {
		return zero, fmt.Errorf("path %s: %w", path, err)
	}
	return out.(T), nil
}

// GetString returns the value at path as a string. Unset paths read as "".
// Stringers and errors are rendered; other scalars are formatted.
func (c *Configuration) GetString(path string) (string, error) {
	val, err := c.Lookup(path)
	if err != nil {
		return "", err
	}
	switch v := val.(type) {
	case nil:
		return "", nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		if _, ns := v.(*Configuration); !ns {
			return v.String(), nil
		}
	case error:
		return v.Error(), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return lookupAs[string](c, path)
}

// GetInt64 accepts any numeric value, booleans, and integer strings in any
// base strconv understands ("0x10").
func (c *Configuration) GetInt64(path string) (int64, error) {
	return lookupAs[int64](c, path)
}

// GetBool accepts numbers (non-zero is true) and strconv.ParseBool strings.
func (c *Configuration) GetBool(path string) (bool, error) {
	return lookupAs[bool](c, path)
}

// GetFloat64 accepts integers, booleans and strconv.ParseFloat strings.
func (c *Configuration) GetFloat64(path string) (float64, error) {
	return lookupAs[float64](c, path)
}

// GetDuration parses strings with time.ParseDuration; integers are nanoseconds.
func (c *Configuration) GetDuration(path string) (time.Duration, error) {
	return lookupAs[time.Duration](c, path)
}
