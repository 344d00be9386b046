package mvc

import (
	"fmt"
	"net/http"
	"strings"
)

// MethodAny is the wildcard method used by mappings that accept every method.
const MethodAny = "*"

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	MethodAny:          true,
}

// NormalizeMethod upper-cases m and maps "" to MethodAny. It returns an error
// for names that are not HTTP methods.
func NormalizeMethod(m string) (string, error) {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return MethodAny, nil
	}
	if !knownMethods[m] {
		return "", fmt.Errorf("mvc: unknown HTTP method %q", m)
	}
	return m, nil
}

// RouteKey identifies one handler binding: an HTTP method and a path pattern.
type RouteKey struct {
	Method  string
	Pattern PathPattern
}

// NewRouteKey normalizes method and parses pattern.
func NewRouteKey(method, pattern string) (RouteKey, error) {
	m, err := NormalizeMethod(method)
	if err != nil {
		return RouteKey{}, err
	}
	p, err := ParsePattern(pattern)
	if err != nil {
		return RouteKey{}, err
	}
	return RouteKey{Method: m, Pattern: p}, nil
}

// ID returns a comparable identity for the key. Keys with equal IDs are
// structurally equal.
func (k RouteKey) ID() string {
	return k.Method + " " + k.Pattern.Shape()
}

// String returns "METHOD /pattern".
func (k RouteKey) String() string {
	return k.Method + " " + k.Pattern.String()
}

// Outcome classifies a resolution.
type Outcome int

const (
	// Miss means no pattern matched the request path.
	Miss Outcome = iota
	// Found means a handler was resolved.
	Found
	// MethodNotAllowed means a pattern matched the path but not the method.
	MethodNotAllowed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "miss"
	}
}

// Resolution is the result of resolving a request against a mapping.
// Misses are ordinary values, not errors.
type Resolution struct {
	Outcome  Outcome
	Handler  any
	Key      RouteKey
	PathVars PathVars

	// Allowed lists the methods registered for the path on MethodNotAllowed.
	Allowed []string

	// Method and Path echo the request on a miss, for diagnostics.
	Method string
	Path   string
}

// Resolved reports whether a handler was found.
func (r Resolution) Resolved() bool { return r.Outcome == Found }

// MissFor builds a Miss resolution for the request.
func MissFor(req *http.Request) Resolution {
	return Resolution{Outcome: Miss, Method: req.Method, Path: req.URL.Path}
}

// RouteInfo describes one entry of a routing table.
type RouteInfo struct {
	Registry string `json:"registry"`
	Method   string `json:"method"`
	Pattern  string `json:"pattern"`
	Handler  string `json:"handler"`
}
