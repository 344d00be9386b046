package mapping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmvc/internal/component"
	"webmvc/internal/mvc"
)

type userController struct {
	mvc.Controller `path:"/users"`

	_      mvc.RequestMapping `method:"GET" path:"/{id}" handler:"Show"`
	_      mvc.RequestMapping `method:"GET" path:"/new" handler:"NewForm"`
	_      mvc.RequestMapping `method:"POST,PUT" path:"/" handler:"Save"`
	search mvc.RequestMapping `path:"/search"`
}

type userForm struct {
	Name string `param:"name"`
}

func (c *userController) Show(ctx context.Context, vars mvc.PathVars) (*mvc.ModelAndView, error) {
	return mvc.NewModelAndView("user"), nil
}

func (c *userController) NewForm() string { return "register" }

func (c *userController) Save(form *userForm) (mvc.Model, error) { return mvc.Model{}, nil }

func (c *userController) Search(q url.Values) []string { return q["q"] }

type duplicateController struct {
	mvc.Controller

	_ mvc.RequestMapping `method:"GET" path:"/users/{id}" handler:"A"`
	_ mvc.RequestMapping `method:"GET" path:"/users/{uid}" handler:"B"`
}

func (c *duplicateController) A() string { return "a" }
func (c *duplicateController) B() string { return "b" }

type notController struct{}

type badSignatureController struct {
	mvc.Controller

	_ mvc.RequestMapping `path:"/bad" handler:"Bad"`
}

func (c *badSignatureController) Bad(n int) string { return "" }

func newCatalog(t *testing.T, instances ...any) *component.Catalog {
	t.Helper()
	c := component.NewCatalog()
	for _, i := range instances {
		require.NoError(t, c.Register(i))
	}
	return c
}

func request(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func TestAnnotationMappingResolve(t *testing.T) {
	m := NewAnnotationMapping([]string{"webmvc/internal/mapping"},
		WithCatalog(newCatalog(t, &userController{})))
	require.NoError(t, m.Initialize())

	tests := []struct {
		name    string
		method  string
		path    string
		outcome mvc.Outcome
		handler string
		vars    mvc.PathVars
		allowed []string
	}{
		{name: "template", method: "GET", path: "/users/42", outcome: mvc.Found, handler: "Show", vars: mvc.PathVars{"id": "42"}},
		{name: "literal beats template", method: "GET", path: "/users/new", outcome: mvc.Found, handler: "NewForm", vars: mvc.PathVars{}},
		{name: "head falls back to get", method: "HEAD", path: "/users/new", outcome: mvc.Found, handler: "NewForm", vars: mvc.PathVars{}},
		{name: "multiple methods", method: "PUT", path: "/users", outcome: mvc.Found, handler: "Save", vars: mvc.PathVars{}},
		{name: "any method", method: "DELETE", path: "/users/search", outcome: mvc.Found, handler: "Search", vars: mvc.PathVars{}},
		{name: "trailing slash", method: "POST", path: "/users/", outcome: mvc.Found, handler: "Save", vars: mvc.PathVars{}},
		{name: "wrong method", method: "DELETE", path: "/users", outcome: mvc.MethodNotAllowed, allowed: []string{"POST", "PUT"}},
		{name: "unknown path", method: "GET", path: "/orders", outcome: mvc.Miss},
		{name: "too deep", method: "GET", path: "/users/1/edit", outcome: mvc.Miss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Resolve(request(tt.method, tt.path))
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.path, res.Path)

			switch tt.outcome {
			case mvc.Found:
				hm, ok := res.Handler.(*HandlerMethod)
				require.True(t, ok)
				assert.Equal(t, tt.handler, hm.Name)
				assert.Equal(t, tt.vars, res.PathVars)
			case mvc.MethodNotAllowed:
				assert.Nil(t, res.Handler)
				assert.Equal(t, tt.allowed, res.Allowed)
			default:
				assert.Nil(t, res.Handler)
			}
		})
	}
}

func TestAnnotationMappingSignatureAnalysis(t *testing.T) {
	m := NewAnnotationMapping([]string{"webmvc/internal/..."},
		WithCatalog(newCatalog(t, &userController{})))
	require.NoError(t, m.Initialize())

	show := m.Resolve(request("GET", "/users/1")).Handler.(*HandlerMethod)
	assert.Equal(t, []Param{
		{Kind: ParamContext, Type: contextType},
		{Kind: ParamPathVars, Type: pathVarsType},
	}, show.Params)
	assert.Equal(t, ResultModelAndView, show.Result)
	assert.True(t, show.ReturnsError)
	assert.Equal(t, "mapping.userController.Show", show.String())

	save := m.Resolve(request("POST", "/users")).Handler.(*HandlerMethod)
	require.Len(t, save.Params, 1)
	assert.Equal(t, ParamBinding, save.Params[0].Kind)
	assert.Equal(t, ResultModel, save.Result)

	search := m.Resolve(request("GET", "/users/search")).Handler.(*HandlerMethod)
	assert.Equal(t, ResultValue, search.Result)
	assert.False(t, search.ReturnsError)
}

func TestAnnotationMappingFailsFast(t *testing.T) {
	tests := []struct {
		name     string
		instance any
		want     error
	}{
		{name: "duplicate key", instance: &duplicateController{}, want: ErrDuplicateRoute},
		{name: "missing marker", instance: &notController{}, want: ErrNotController},
		{name: "bad signature", instance: &badSignatureController{}, want: ErrUnsupportedSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAnnotationMapping([]string{"webmvc/internal/mapping"},
				WithCatalog(newCatalog(t, tt.instance)))

			err := m.Initialize()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, m.Routes(), "table must not be published")
			assert.Equal(t, mvc.Miss, m.Resolve(request("GET", "/users/1")).Outcome)
		})
	}
}

func TestRouteConflictErrorNamesBothHandlers(t *testing.T) {
	m := NewAnnotationMapping([]string{"webmvc/internal/mapping"},
		WithCatalog(newCatalog(t, &duplicateController{})))

	var conflict *RouteConflictError
	require.True(t, errors.As(m.Initialize(), &conflict))
	assert.Equal(t, AnnotationName, conflict.Registry)
	assert.Equal(t, "mapping.duplicateController.A", conflict.Existing)
	assert.Equal(t, "mapping.duplicateController.B", conflict.Duplicate)
}

func TestAnnotationMappingScanScope(t *testing.T) {
	m := NewAnnotationMapping([]string{"webmvc/internal/app/..."},
		WithCatalog(newCatalog(t, &userController{})))
	require.NoError(t, m.Initialize())

	assert.Empty(t, m.Routes())
	assert.Equal(t, mvc.Miss, m.Resolve(request("GET", "/users/1")).Outcome)
}

func TestManualMapping(t *testing.T) {
	m := NewManualMapping(nil)
	h := mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
		return mvc.NewModelAndView("index"), nil
	})

	require.NoError(t, m.Register("GET", "/", h))
	require.NoError(t, m.Register("", "/logout", h))

	assert.Equal(t, mvc.Miss, m.Resolve(request("GET", "/")).Outcome, "unsealed mapping resolves nothing")

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Initialize())
	assert.ErrorIs(t, m.Register("GET", "/late", h), ErrSealed)
	assert.Panics(t, func() { m.MustRegister("GET", "/late", h) })

	res := m.Resolve(request("GET", "/"))
	require.True(t, res.Resolved())
	assert.NotNil(t, res.Handler)

	res = m.Resolve(request("PATCH", "/logout"))
	assert.True(t, res.Resolved())

	routes := m.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, mvc.RouteInfo{Registry: ManualName, Method: "GET", Pattern: "/", Handler: "mvc.HandlerFunc"}, routes[0])
	assert.Equal(t, "*", routes[1].Method)
}

func TestManualMappingRejectedRouteBlocksInitialize(t *testing.T) {
	h := mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
		return mvc.NewModelAndView("index"), nil
	})

	tests := []struct {
		name    string
		method  string
		pattern string
		handler any
		want    error
	}{
		{name: "duplicate key", method: "get", pattern: "//", handler: h, want: ErrDuplicateRoute},
		{name: "nil handler", method: "GET", pattern: "/x", handler: nil, want: ErrInvalidMapping},
		{name: "relative pattern", method: "GET", pattern: "no-slash", handler: h, want: ErrInvalidMapping},
		{name: "unknown method", method: "BREW", pattern: "/coffee", handler: h, want: ErrInvalidMapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManualMapping(nil)
			require.NoError(t, m.Register("GET", "/", h))

			assert.ErrorIs(t, m.Register(tt.method, tt.pattern, tt.handler), tt.want)
			require.NoError(t, m.Register("POST", "/after", h), "later valid routes are still accepted")

			require.ErrorIs(t, m.Initialize(), tt.want)
			require.ErrorIs(t, m.Initialize(), tt.want, "the mapping never seals")

			assert.Equal(t, mvc.Miss, m.Resolve(request("GET", "/")).Outcome)
			assert.Empty(t, m.Routes())
		})
	}

	t.Run("composite initialize fails", func(t *testing.T) {
		m := NewManualMapping(nil)
		m.MustRegister("GET", "/x", h)
		assert.Error(t, m.Register("GET", "/x", h))

		err := NewMappings(m).Initialize()
		require.ErrorIs(t, err, ErrDuplicateRoute)
		var conflict *RouteConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "GET /x", conflict.Key.String())
		assert.Equal(t, mvc.Miss, m.Resolve(request("GET", "/x")).Outcome)
	})
}

func TestMappingsRegistryOrder(t *testing.T) {
	// A: scanned, GET /users/{id}; B: manual, GET /users/new
	newRegistries := func(t *testing.T) (*AnnotationMapping, *ManualMapping) {
		scanned := NewAnnotationMapping([]string{"webmvc/internal/mapping"},
			WithCatalog(newCatalog(t, &idOnlyController{})))
		manual := NewManualMapping(nil)
		h2 := mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
			return mvc.NewModelAndView("register"), nil
		})
		manual.MustRegister("GET", "/users/new", h2)
		return scanned, manual
	}

	t.Run("manual first", func(t *testing.T) {
		scanned, manual := newRegistries(t)
		m := NewMappings(manual, scanned)
		require.NoError(t, m.Initialize())

		res := m.Resolve(request("GET", "/users/new"))
		require.True(t, res.Resolved())
		_, isHandler := res.Handler.(mvc.Handler)
		assert.True(t, isHandler, "manual H2 must win")

		res = m.Resolve(request("GET", "/users/7"))
		require.True(t, res.Resolved())
		assert.IsType(t, &HandlerMethod{}, res.Handler)
	})

	t.Run("scanned first", func(t *testing.T) {
		scanned, manual := newRegistries(t)
		m := NewMappings(scanned, manual)
		require.NoError(t, m.Initialize())

		res := m.Resolve(request("GET", "/users/new"))
		require.True(t, res.Resolved())
		hm, ok := res.Handler.(*HandlerMethod)
		require.True(t, ok, "scanned H1 must win")
		assert.Equal(t, "Show", hm.Name)
		assert.Equal(t, mvc.PathVars{"id": "new"}, res.PathVars)
	})
}

type idOnlyController struct {
	mvc.Controller

	_ mvc.RequestMapping `method:"GET" path:"/users/{id}" handler:"Show"`
}

func (c *idOnlyController) Show(vars mvc.PathVars) string { return "user" }

func TestMappingsMissAndMethodNotAllowed(t *testing.T) {
	h := mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) { return nil, nil })
	a := NewManualMapping(nil)
	a.MustRegister("GET", "/login", h)
	b := NewManualMapping(nil)
	b.MustRegister("POST", "/login", h)
	b.MustRegister("GET", "/login", h)

	m := NewMappings(a, b)
	require.NoError(t, m.Initialize())

	res := m.Resolve(request("DELETE", "/login"))
	assert.Equal(t, mvc.MethodNotAllowed, res.Outcome)
	assert.Equal(t, []string{"GET", "POST"}, res.Allowed)
	assert.Equal(t, "DELETE", res.Method)
	assert.Equal(t, "/login", res.Path)

	res = m.Resolve(request("GET", "/nowhere"))
	assert.Equal(t, mvc.Miss, res.Outcome)
	assert.Nil(t, res.Handler)
	assert.Equal(t, "/nowhere", res.Path)

	shadows := m.Shadowed()
	require.Len(t, shadows, 1)
	assert.Equal(t, "GET /login", shadows[0].Route)
	assert.Equal(t, ManualName, shadows[0].Winner.Registry)

	assert.Len(t, m.Routes(), 3)
}

func TestMappingsShadowed(t *testing.T) {
	h := mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) { return nil, nil })
	type route struct{ method, pattern string }

	tests := []struct {
		name   string
		first  []route
		second []route
		want   []string // shadowed route, winner method
	}{
		{
			name:   "same key",
			first:  []route{{"GET", "/x"}},
			second: []route{{"GET", "/x"}, {"POST", "/x"}},
			want:   []string{"GET /x", "GET"},
		},
		{
			name:   "earlier wildcard hides every method",
			first:  []route{{"", "/x"}},
			second: []route{{"GET", "/x"}, {"DELETE", "/x"}},
			want:   []string{"GET /x", "*", "DELETE /x", "*"},
		},
		{
			name:   "wildcard matches by template shape",
			first:  []route{{"", "/users/{id}"}},
			second: []route{{"PUT", "/users/{uid}"}},
			want:   []string{"PUT /users/{uid}", "*"},
		},
		{
			name:   "later wildcard hides nothing it does not duplicate",
			first:  []route{{"GET", "/x"}},
			second: []route{{"", "/x"}},
		},
		{
			name:  "wildcard and exact method in one mapping",
			first: []route{{"", "/x"}, {"GET", "/x"}},
		},
		{
			name:   "different shapes",
			first:  []route{{"", "/x"}},
			second: []route{{"GET", "/x/{id}"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := NewManualMapping(nil), NewManualMapping(nil)
			for _, r := range tt.first {
				a.MustRegister(r.method, r.pattern, h)
			}
			for _, r := range tt.second {
				b.MustRegister(r.method, r.pattern, h)
			}
			m := NewMappings(a, b)
			require.NoError(t, m.Initialize())

			var got []string
			for _, s := range m.Shadowed() {
				got = append(got, s.Route, s.Winner.Method)
				assert.Equal(t, ManualName, s.Shadowed.Registry)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("wildcard winner is dispatched", func(t *testing.T) {
		wild := mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
			return mvc.NewModelAndView("any"), nil
		})
		a, b := NewManualMapping(nil), NewManualMapping(nil)
		a.MustRegister("", "/x", wild)
		b.MustRegister("GET", "/x", h)
		m := NewMappings(a, b)
		require.NoError(t, m.Initialize())

		res := m.Resolve(request("GET", "/x"))
		require.True(t, res.Resolved())
		assert.Equal(t, mvc.MethodAny, res.Key.Method)
		require.Len(t, m.Shadowed(), 1)
	})
}

func TestMappingsInitializeStopsAtFirstError(t *testing.T) {
	bad := NewAnnotationMapping([]string{"webmvc/internal/mapping"},
		WithCatalog(newCatalog(t, &duplicateController{})))
	manual := NewManualMapping(nil)

	err := NewMappings(bad, manual).Initialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateRoute)
	assert.Contains(t, err.Error(), "initialize annotation mapping")

	assert.NoError(t, manual.Register("GET", "/", mvc.HandlerFunc(nil)), "later mappings stay unsealed")
}
