package mapping

import (
	"fmt"
	"net/http"

	"webmvc/internal/mvc"
)

// Mappings consults several mappings in priority order.
type Mappings struct {
	mappings []HandlerMapping
}

// NewMappings creates a composite over mappings, highest priority first.
func NewMappings(mappings ...HandlerMapping) *Mappings {
	return &Mappings{mappings: append([]HandlerMapping(nil), mappings...)}
}

// Name implements HandlerMapping.
func (m *Mappings) Name() string { return "composite" }

// Initialize initializes every mapping in order, stopping at the first error.
func (m *Mappings) Initialize() error {
	for _, hm := range m.mappings {
		if err := hm.Initialize(); err != nil {
			return fmt.Errorf("initialize %s mapping: %w", hm.Name(), err)
		}
	}
	return nil
}

// Resolve returns the first Found resolution. Otherwise it returns a Miss, or a
// MethodNotAllowed carrying the union of methods allowed by the mappings that
// matched the path.
func (m *Mappings) Resolve(r *http.Request) mvc.Resolution {
	var allowed []string
	for _, hm := range m.mappings {
		res := hm.Resolve(r)
		switch res.Outcome {
		case mvc.Found:
			return res
		case mvc.MethodNotAllowed:
			allowed = append(allowed, res.Allowed...)
		}
	}

	res := mvc.MissFor(r)
	if len(allowed) > 0 {
		res.Outcome = mvc.MethodNotAllowed
		res.Allowed = normalizeAllowed(allowed)
	}
	return res
}

// Routes lists every mapping's routes in priority order.
func (m *Mappings) Routes() []mvc.RouteInfo {
	var out []mvc.RouteInfo
	for _, hm := range m.mappings {
		out = append(out, hm.Routes()...)
	}
	return out
}

// Shadow describes a route hidden by a higher priority mapping. Only the
// Winner is ever dispatched to.
type Shadow struct {
	Route    string        `json:"route"`
	Winner   mvc.RouteInfo `json:"winner"`
	Shadowed mvc.RouteInfo `json:"shadowed"`
}

type claim struct {
	info  mvc.RouteInfo
	owner int
}

// Shadowed reports routes that can never be dispatched to: a key declared by
// an earlier mapping, or any method of a pattern shape an earlier mapping
// binds with MethodAny. Inside one mapping an exact method beats MethodAny, so
// only earlier mappings shadow. It is meant for startup diagnostics.
func (m *Mappings) Shadowed() []Shadow {
	exact := make(map[string]claim)
	wildcard := make(map[string]claim)
	var out []Shadow
	for i, hm := range m.mappings {
		for _, info := range hm.Routes() {
			key, err := mvc.NewRouteKey(info.Method, info.Pattern)
			if err != nil {
				continue
			}
			shape := key.Pattern.Shape()
			if c, ok := exact[key.ID()]; ok && c.owner != i {
				out = append(out, Shadow{Route: key.String(), Winner: c.info, Shadowed: info})
				continue
			}
			if c, ok := wildcard[shape]; ok && c.owner != i {
				out = append(out, Shadow{Route: key.String(), Winner: c.info, Shadowed: info})
				continue
			}
			if _, ok := exact[key.ID()]; !ok {
				exact[key.ID()] = claim{info: info, owner: i}
			}
			if key.Method == mvc.MethodAny {
				if _, ok := wildcard[shape]; !ok {
					wildcard[shape] = claim{info: info, owner: i}
				}
			}
		}
	}
	return out
}
