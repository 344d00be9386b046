// Package mapping resolves requests to handlers.
//
// A HandlerMapping owns one routing table built by one discovery strategy:
//
//   - AnnotationMapping scans controllers registered in a component catalog
//     and reads their RequestMapping struct tags.
//   - ManualMapping takes explicit Register calls.
//
// Both follow the same lifecycle: populate, Initialize (which seals an
// immutable table), then concurrent read-only Resolve calls. Registering the
// same route key twice in one mapping is a startup error.
//
// Mappings composes several mappings in priority order; the first mapping
// that resolves a request wins.
package mapping

import (
	"errors"
	"fmt"
	"net/http"

	"webmvc/internal/mvc"
)

// HandlerMapping resolves requests to handler references.
type HandlerMapping interface {
	// Name identifies the mapping in logs and route listings.
	Name() string
	// Initialize builds the routing table. It must be called once before
	// the first Resolve.
	Initialize() error
	// Resolve looks the request up. A nil Handler is never returned with
	// Outcome Found.
	Resolve(r *http.Request) mvc.Resolution
	// Routes lists the routing table in registration order.
	Routes() []mvc.RouteInfo
}

var (
	// ErrDuplicateRoute indicates two handlers bound to the same route key
	// within one mapping.
	ErrDuplicateRoute = errors.New("mapping: duplicate route")
	// ErrSealed indicates a registration after Initialize.
	ErrSealed = errors.New("mapping: mapping is sealed")
	// ErrNotController indicates a scanned component without the mvc.Controller marker.
	ErrNotController = errors.New("mapping: component is not a controller")
	// ErrInvalidMapping indicates malformed RequestMapping metadata.
	ErrInvalidMapping = errors.New("mapping: invalid request mapping")
	// ErrUnsupportedSignature indicates a handler method the adapter cannot call.
	ErrUnsupportedSignature = errors.New("mapping: unsupported handler signature")
)

// RouteConflictError reports a duplicate route key and both handlers claiming it.
type RouteConflictError struct {
	Registry  string
	Key       mvc.RouteKey
	Existing  string
	Duplicate string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("mapping: duplicate route %s in %s mapping: %s conflicts with %s",
		e.Key, e.Registry, e.Duplicate, e.Existing)
}

// Unwrap returns ErrDuplicateRoute.
func (e *RouteConflictError) Unwrap() error { return ErrDuplicateRoute }

// describe names a handler reference for logs and listings.
func describe(handler any) string {
	if s, ok := handler.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", handler)
}
