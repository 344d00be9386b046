package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmvc/internal/dispatch"
	apierrors "webmvc/internal/errors"
	"webmvc/internal/mapping"
	"webmvc/internal/mvc"
	"webmvc/internal/shared/testutil"
)

func page(view string) mvc.Handler {
	return mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
		return mvc.NewModelAndView(view), nil
	})
}

func newTable(t *testing.T) *mapping.Mappings {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	primary := mapping.NewManualMapping(logger)
	primary.MustRegister(http.MethodGet, "/users/{id}", page("/user.html"))
	primary.MustRegister(http.MethodPost, "/login", page("/index.html"))

	fallback := mapping.NewManualMapping(logger)
	fallback.MustRegister(http.MethodGet, "/users/{id}", page("/legacy.html"))
	fallback.MustRegister(http.MethodGet, "/", page("/index.html"))

	m := mapping.NewMappings(primary, fallback)
	require.NoError(t, m.Initialize())
	return m
}

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	table := newTable(t)

	r := chi.NewRouter()
	r.Mount("/api/routes", NewRoutesHandler(table, apierrors.NewErrorHandler(logger, false), logger).Routes())
	r.Mount("/api/health", NewHealthHandler("1.2.3", table, map[string]HealthCheck{
		"mappings": func(context.Context) error { return nil },
	}, logger).Routes())
	return r
}

func getJSON(t *testing.T, h http.Handler, target string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func TestRoutesHandler_List(t *testing.T) {
	r := newRouter(t)

	code, body := getJSON(t, r, "/api/routes")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(4), body["count"])

	first := body["routes"].([]any)[0].(map[string]any)
	assert.Equal(t, "manual", first["registry"])
	assert.Equal(t, "/users/{id}", first["pattern"])

	_, body = getJSON(t, r, "/api/routes?registry=none")
	assert.Equal(t, float64(0), body["count"])
}

func TestRoutesHandler_Shadowed(t *testing.T) {
	_, body := getJSON(t, newRouter(t), "/api/routes/shadowed")
	shadows := body["shadowed"].([]any)
	require.Len(t, shadows, 1)
	assert.Equal(t, "GET /users/{id}", shadows[0].(map[string]any)["route"])
}

func TestRoutesHandler_Resolve(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name    string
		target  string
		status  int
		outcome string
		check   func(*testing.T, map[string]any)
	}{
		{
			name:    "found with vars",
			target:  "/api/routes/resolve?path=/users/7",
			status:  http.StatusOK,
			outcome: "found",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "GET /users/{id}", body["route"])
				assert.Equal(t, map[string]any{"id": "7"}, body["path_vars"])
			},
		},
		{
			name:    "method mismatch",
			target:  "/api/routes/resolve?method=delete&path=/login",
			status:  http.StatusOK,
			outcome: "method_not_allowed",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"POST"}, body["allowed"])
			},
		},
		{
			name:    "miss",
			target:  "/api/routes/resolve?path=/nowhere",
			status:  http.StatusOK,
			outcome: "miss",
		},
		{
			name:   "relative path rejected",
			target: "/api/routes/resolve?path=users",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := getJSON(t, r, tt.target)
			assert.Equal(t, tt.status, code)
			if tt.outcome != "" {
				assert.Equal(t, tt.outcome, body["outcome"])
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	r := newRouter(t)

	code, body := getJSON(t, r, "/api/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, float64(4), body["routes"])

	code, body = getJSON(t, r, "/api/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])

	code, body = getJSON(t, r, "/api/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewHealthHandler("dev", newTable(t), map[string]HealthCheck{
		"views": func(context.Context) error { return errors.New("no templates") },
		"ok":    func(context.Context) error { return nil },
	}, logger)

	code, body := getJSON(t, h.Routes(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, map[string]any{"views": "no templates", "ok": "ok"}, body["checks"])
	assert.True(t, handler.ContainsAttr("check", "views"))
}

type stubDispatcher func(w http.ResponseWriter, r *http.Request) error

func (f stubDispatcher) Dispatch(w http.ResponseWriter, r *http.Request) error { return f(w, r) }

func TestDispatchHandler(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	errs := apierrors.NewErrorHandler(logger, false)

	t.Run("success passes through", func(t *testing.T) {
		h := NewDispatchHandler(stubDispatcher(func(w http.ResponseWriter, _ *http.Request) error {
			w.WriteHeader(http.StatusCreated)
			return nil
		}), errs, logger)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("failure becomes problem", func(t *testing.T) {
		h := NewDispatchHandler(stubDispatcher(func(http.ResponseWriter, *http.Request) error {
			return &dispatch.Error{Type: dispatch.ErrorTypeAdapterMiss, State: dispatch.StateAdapting}
		}), errs, logger)
		code, body := getJSON(t, h, "/users/1")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, apierrors.TypeDispatchAdapterMiss, body["type"])
	})

	t.Run("failure after response started is only logged", func(t *testing.T) {
		handler.Clear()
		h := NewDispatchHandler(stubDispatcher(func(w http.ResponseWriter, _ *http.Request) error {
			w.WriteHeader(http.StatusOK)
			return errors.New("late")
		}), errs, logger)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, w.Body.Len())
		assert.True(t, handler.ContainsMessage("dispatch failed after response started"))
	})
}
