// FILE: lixenwraith/configurations/errors.go
package configurations

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches one of these with errors.Is.
var (
	// ErrConfiguration indicates a misconfiguration: type mismatch, ambiguous keys,
	// conflicting declarations or an assignment to a namespace.
	ErrConfiguration = errors.New("configuration error")

	// ErrReservedName indicates a property or method name collides with a reserved name.
	ErrReservedName = errors.New("reserved name")

	// ErrUnknownProperty indicates access to a property that is not declared (strict)
	// or not configured under the ReadAsError policy (arbitrary).
	ErrUnknownProperty = errors.New("unknown property")

	// ErrNotWriteable indicates a write after the configure function returned.
	ErrNotWriteable = errors.New("not writeable")

	// ErrUnknownMethod indicates a call to an undeclared configuration method.
	ErrUnknownMethod = errors.New("unknown configuration method")

	// ErrInvalidPath indicates an empty or malformed path segment.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotConfigured can be returned by not-configured callbacks to report a
	// required property without a value.
	ErrNotConfigured = errors.New("property not configured")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrNilConfigure indicates Host.Configure was called without a function.
	ErrNilConfigure = errors.New("configure needs a function")

	// ErrInvalidNode indicates a Configuration that was not created by a Host.
	ErrInvalidNode = errors.New("configuration was not created by a host")

	// ErrCLIParse indicates a malformed command-line argument.
	ErrCLIParse = errors.New("failed to parse command-line arguments")

	// ErrValueSize indicates an environment or command-line value above MaxValueSize.
	ErrValueSize = errors.New("value size exceeds maximum")

	// ErrFileFormat indicates an unknown or undetectable file format.
	ErrFileFormat = errors.New("unsupported configuration format")
)

// ConfigurationError describes a failed assignment, merge or declaration.
type ConfigurationError struct {
	// Path is the dotted property path the error refers to.
	Path string
	// Message describes the problem.
	Message string
	// Keys lists the offending keys of an ambiguous merge, if any.
	Keys []string
	// Err is an optional underlying error.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ReservedNameError is returned when a reserved name is declared or assigned.
type ReservedNameError struct {
	Name string
}

// Error implements the error interface.
func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("%s is a reserved name and can not be assigned", e.Name)
}

// Is implements error matching for ReservedNameError.
func (e *ReservedNameError) Is(target error) bool {
	return target == ErrReservedName
}

// UnknownPropertyError is returned when an undeclared property is accessed.
type UnknownPropertyError struct {
	Path string
}

// Error implements the error interface.
func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %s", e.Path)
}

// Is implements error matching for UnknownPropertyError.
func (e *UnknownPropertyError) Is(target error) bool {
	return target == ErrUnknownProperty
}

// NotWriteableError is returned when a write happens outside the configure function.
type NotWriteableError struct {
	Path string
}

// Error implements the error interface.
func (e *NotWriteableError) Error() string {
	return fmt.Sprintf("%s is not writeable outside the configure function", e.Path)
}

// Is implements error matching for NotWriteableError.
func (e *NotWriteableError) Is(target error) bool {
	return target == ErrNotWriteable
}
