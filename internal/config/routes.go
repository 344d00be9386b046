package config

import (
	"fmt"
	"strings"
)

// ManualRoute binds a method and path to a named manual handler.
type ManualRoute struct {
	Method  string `yaml:"method" validate:"omitempty,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS *"`
	Path    string `yaml:"path" validate:"required,startswith=/"`
	Handler string `yaml:"handler" validate:"required"`
}

func (r ManualRoute) String() string {
	return fmt.Sprintf("%s %s=%s", r.Method, r.Path, r.Handler)
}

// RouteList is a list of manual routes. In the environment it is written as
// "METHOD /path=handler" entries separated by semicolons:
//
//	WEBMVC_DISPATCH_MANUAL_ROUTES="GET /=index;GET /logout=logout"
type RouteList []ManualRoute

// Decode implements envconfig.Decoder.
func (l *RouteList) Decode(value string) error {
	var routes RouteList
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		route, err := parseRoute(entry)
		if err != nil {
			return err
		}
		routes = append(routes, route)
	}
	*l = routes
	return nil
}

func parseRoute(entry string) (ManualRoute, error) {
	binding, handler, ok := strings.Cut(entry, "=")
	if !ok {
		return ManualRoute{}, fmt.Errorf("manual route %q: missing =handler", entry)
	}
	fields := strings.Fields(binding)
	var r ManualRoute
	switch len(fields) {
	case 1:
		r.Path = fields[0]
	case 2:
		r.Method, r.Path = strings.ToUpper(fields[0]), fields[1]
	default:
		return ManualRoute{}, fmt.Errorf("manual route %q: want \"METHOD /path=handler\"", entry)
	}
	r.Handler = strings.TrimSpace(handler)
	return r, nil
}
