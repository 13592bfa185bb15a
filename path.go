// FILE: lixenwraith/configurations/path.go
package configurations

import (
	"fmt"
	"strings"
)

// Path is an immutable, ordered sequence of property name segments.
// The zero value is the root path.
type Path struct {
	segments []string
}

// RootPath returns the empty path addressing the root configuration.
func RootPath() Path {
	return Path{}
}

// NewPath creates a path from the given segments without validating them.
func NewPath(segments ...string) Path {
	if len(segments) == 0 {
		return Path{}
	}
	s := make([]string, len(segments))
	copy(s, segments)
	return Path{segments: s}
}

// ParsePath splits a dot-separated path and validates every segment.
// An empty string yields the root path.
func ParsePath(dotted string) (Path, error) {
	if dotted == "" {
		return Path{}, nil
	}
	segments := strings.Split(dotted, ".")
	for _, segment := range segments {
		if !isValidKeySegment(segment) {
			return Path{}, fmt.Errorf("%w: segment %q in path %q", ErrInvalidPath, segment, dotted)
		}
	}
	return Path{segments: segments}, nil
}

// Add returns a new path with segment appended. The receiver is not modified.
func (p Path) Add(segment string) Path {
	s := make([]string, len(p.segments)+1)
	copy(s, p.segments)
	s[len(p.segments)] = segment
	return Path{segments: s}
}

// Join returns a new path with all segments of other appended.
func (p Path) Join(other Path) Path {
	if other.IsRoot() {
		return p
	}
	s := make([]string, 0, len(p.segments)+len(other.segments))
	s = append(s, p.segments...)
	s = append(s, other.segments...)
	return Path{segments: s}
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	s := make([]string, len(p.segments))
	copy(s, p.segments)
	return s
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Last returns the final segment, or "" for the root path.
func (p Path) Last() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path without its final segment. The parent of root is root.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Equal reports whether both paths have the same segment sequence.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, s := range p.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// String joins the segments with dots.
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// display is String with a readable name for the root path, used in messages.
func (p Path) display() string {
	if p.IsRoot() {
		return "<root>"
	}
	return p.String()
}
