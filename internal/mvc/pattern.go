package mvc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPattern is returned for malformed path patterns.
var ErrInvalidPattern = errors.New("mvc: invalid path pattern")

type segment struct {
	value string // literal text, or the variable name when isVar
	isVar bool
}

// PathPattern is a parsed route path made of literal and template segments.
// The zero value matches only "/".
type PathPattern struct {
	segments []segment
}

// ParsePattern parses a path pattern such as "/users/{id}".
// Empty segments are dropped, so "/users/" and "//users" equal "/users".
func ParsePattern(raw string) (PathPattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return PathPattern{}, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}

	parts := splitPath(raw)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)
	for _, part := range parts {
		if name, ok := templateName(part); ok {
			if name == "" {
				return PathPattern{}, fmt.Errorf("%w: %q has an unnamed template", ErrInvalidPattern, raw)
			}
			if seen[name] {
				return PathPattern{}, fmt.Errorf("%w: %q repeats template {%s}", ErrInvalidPattern, raw, name)
			}
			seen[name] = true
			segs = append(segs, segment{value: name, isVar: true})
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return PathPattern{}, fmt.Errorf("%w: %q has a malformed segment %q", ErrInvalidPattern, raw, part)
		}
		segs = append(segs, segment{value: part})
	}
	return PathPattern{segments: segs}, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(raw string) PathPattern {
	p, err := ParsePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Join appends the segments of other to p.
func (p PathPattern) Join(other PathPattern) (PathPattern, error) {
	segs := make([]segment, 0, len(p.segments)+len(other.segments))
	segs = append(segs, p.segments...)
	segs = append(segs, other.segments...)
	joined := PathPattern{segments: segs}
	// re-check duplicate variable names across the two halves
	if _, err := ParsePattern(joined.String()); err != nil {
		return PathPattern{}, err
	}
	return joined, nil
}

// String returns the canonical form of the pattern.
func (p PathPattern) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.isVar {
			b.WriteString("{" + s.value + "}")
			continue
		}
		b.WriteString(s.value)
	}
	return b.String()
}

// Shape returns the pattern with template names erased. Two patterns with the
// same shape match exactly the same paths.
func (p PathPattern) Shape() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.isVar {
			b.WriteString("{}")
			continue
		}
		b.WriteString(s.value)
	}
	return b.String()
}

// IsLiteral reports whether the pattern has no template segments.
func (p PathPattern) IsLiteral() bool {
	for _, s := range p.segments {
		if s.isVar {
			return false
		}
	}
	return true
}

// Literals returns the literal segments in order.
func (p PathPattern) Literals() []string {
	out := make([]string, 0, len(p.segments))
	for _, s := range p.segments {
		if !s.isVar {
			out = append(out, s.value)
		}
	}
	return out
}

// Match reports whether path matches the pattern and returns the captured
// template values. Literal comparison is case-sensitive.
func (p PathPattern) Match(path string) (PathVars, bool) {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}

	var vars PathVars
	for i, s := range p.segments {
		if s.isVar {
			if vars == nil {
				vars = make(PathVars, 2)
			}
			vars[s.value] = parts[i]
			continue
		}
		if s.value != parts[i] {
			return nil, false
		}
	}
	if vars == nil {
		vars = PathVars{}
	}
	return vars, true
}

// MoreSpecific reports whether p should be tried before other when both could
// match the same path: at the first position where one has a literal and the
// other a template, the literal wins.
func (p PathPattern) MoreSpecific(other PathPattern) bool {
	n := min(len(p.segments), len(other.segments))
	for i := 0; i < n; i++ {
		a, b := p.segments[i], other.segments[i]
		if a.isVar != b.isVar {
			return !a.isVar
		}
	}
	return len(p.segments) > len(other.segments)
}

// CanonicalPath collapses empty segments of a request path, so that it can be
// compared with the String form of a literal pattern.
func CanonicalPath(path string) string {
	parts := splitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// splitPath splits a path into its non-empty segments.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	parts := raw[:0]
	for _, part := range raw {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func templateName(part string) (string, bool) {
	if len(part) >= 2 && part[0] == '{' && part[len(part)-1] == '}' {
		name := part[1 : len(part)-1]
		if strings.ContainsAny(name, "{}") {
			return "", false
		}
		return name, true
	}
	return "", false
}
