package mapping

import (
	"net/http"
	"sort"

	"webmvc/internal/mvc"
)

type route struct {
	key     mvc.RouteKey
	handler any
	name    string
}

// patternGroup collects the routes sharing one pattern shape.
type patternGroup struct {
	pattern  mvc.PathPattern
	byMethod map[string]*route
}

func (g *patternGroup) lookup(method string) *route {
	if r, ok := g.byMethod[method]; ok {
		return r
	}
	if method == http.MethodHead {
		if r, ok := g.byMethod[http.MethodGet]; ok {
			return r
		}
	}
	return g.byMethod[mvc.MethodAny]
}

// tableBuilder accumulates routes before they are frozen into a table.
type tableBuilder struct {
	registry string
	byID     map[string]*route
	routes   []*route
}

func newTableBuilder(registry string) *tableBuilder {
	return &tableBuilder{registry: registry, byID: make(map[string]*route)}
}

func (b *tableBuilder) add(key mvc.RouteKey, handler any) error {
	name := describe(handler)
	if existing, ok := b.byID[key.ID()]; ok {
		return &RouteConflictError{
			Registry:  b.registry,
			Key:       key,
			Existing:  existing.name,
			Duplicate: name,
		}
	}
	r := &route{key: key, handler: handler, name: name}
	b.byID[key.ID()] = r
	b.routes = append(b.routes, r)
	return nil
}

// build freezes the accumulated routes. The builder must not be used after.
func (b *tableBuilder) build() *table {
	t := &table{
		registry: b.registry,
		literal:  make(map[string]*patternGroup),
		routes:   b.routes,
	}

	groups := make(map[string]*patternGroup)
	for _, r := range b.routes {
		shape := r.key.Pattern.Shape()
		g, ok := groups[shape]
		if !ok {
			g = &patternGroup{pattern: r.key.Pattern, byMethod: make(map[string]*route)}
			groups[shape] = g
			if r.key.Pattern.IsLiteral() {
				t.literal[shape] = g
			} else {
				t.templated = append(t.templated, g)
			}
		}
		g.byMethod[r.key.Method] = r
	}

	// stable, so equally specific patterns keep registration order
	sort.SliceStable(t.templated, func(i, j int) bool {
		return t.templated[i].pattern.MoreSpecific(t.templated[j].pattern)
	})
	return t
}

// table is an immutable routing table. It is safe for concurrent reads.
type table struct {
	registry  string
	literal   map[string]*patternGroup
	templated []*patternGroup
	routes    []*route
}

// resolve tries literal patterns first, then templated patterns from most to
// least specific. The first pattern that matches both path and method wins.
// If patterns matched only the path, the result is MethodNotAllowed with the
// union of their methods.
func (t *table) resolve(method, path string) mvc.Resolution {
	var allowed []string

	if g, ok := t.literal[mvc.CanonicalPath(path)]; ok {
		if r := g.lookup(method); r != nil {
			return found(r, mvc.PathVars{}, method, path)
		}
		allowed = appendMethods(allowed, g)
	}

	for _, g := range t.templated {
		vars, ok := g.pattern.Match(path)
		if !ok {
			continue
		}
		if r := g.lookup(method); r != nil {
			return found(r, vars, method, path)
		}
		allowed = appendMethods(allowed, g)
	}

	if len(allowed) > 0 {
		return mvc.Resolution{
			Outcome: mvc.MethodNotAllowed,
			Allowed: normalizeAllowed(allowed),
			Method:  method,
			Path:    path,
		}
	}
	return mvc.Resolution{Outcome: mvc.Miss, Method: method, Path: path}
}

func (t *table) info() []mvc.RouteInfo {
	out := make([]mvc.RouteInfo, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, mvc.RouteInfo{
			Registry: t.registry,
			Method:   r.key.Method,
			Pattern:  r.key.Pattern.String(),
			Handler:  r.name,
		})
	}
	return out
}

func found(r *route, vars mvc.PathVars, method, path string) mvc.Resolution {
	return mvc.Resolution{
		Outcome:  mvc.Found,
		Handler:  r.handler,
		Key:      r.key,
		PathVars: vars,
		Method:   method,
		Path:     path,
	}
}

func appendMethods(dst []string, g *patternGroup) []string {
	for m := range g.byMethod {
		dst = append(dst, m)
	}
	return dst
}

// normalizeAllowed sorts and dedupes methods. MethodAny is dropped because a
// wildcard route would have matched.
func normalizeAllowed(methods []string) []string {
	seen := make(map[string]bool, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if m == mvc.MethodAny || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
