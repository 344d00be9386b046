package mvc

import (
	"context"
	"net/http"
)

// Handler is the calling convention for manually registered handlers.
type Handler interface {
	Handle(w http.ResponseWriter, r *http.Request) (*ModelAndView, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) (*ModelAndView, error)

// Handle calls f(w, r).
func (f HandlerFunc) Handle(w http.ResponseWriter, r *http.Request) (*ModelAndView, error) {
	return f(w, r)
}

// Controller marks a struct as a scannable controller when embedded.
// The struct tag on the embedded field may carry a path prefix:
//
//	mvc.Controller `path:"/users"`
type Controller struct{}

// RequestMapping declares one route of a controller through its struct tags:
//
//	method   comma separated HTTP methods, empty for any method
//	path     path pattern, appended to the controller prefix
//	handler  name of the exported method serving the route
type RequestMapping struct{}

// PathVars holds the values captured by template segments.
type PathVars map[string]string

// Get returns the value of the named variable or "".
func (v PathVars) Get(name string) string {
	return v[name]
}

type pathVarsKey struct{}

// WithPathVars returns a copy of ctx carrying vars.
func WithPathVars(ctx context.Context, vars PathVars) context.Context {
	return context.WithValue(ctx, pathVarsKey{}, vars)
}

// PathVarsFrom returns the path variables stored in ctx, never nil.
func PathVarsFrom(ctx context.Context) PathVars {
	if vars, ok := ctx.Value(pathVarsKey{}).(PathVars); ok && vars != nil {
		return vars
	}
	return PathVars{}
}

// PathVar returns a single path variable of the request.
func PathVar(r *http.Request, name string) string {
	return PathVarsFrom(r.Context()).Get(name)
}
