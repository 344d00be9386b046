package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"webmvc/internal/adapter"
	"webmvc/internal/component"
	"webmvc/internal/mapping"
	"webmvc/internal/mvc"
	"webmvc/internal/shared/testutil"
)

var errLookup = errors.New("user lookup failed")

type pageController struct {
	mvc.Controller

	_ mvc.RequestMapping `method:"GET" path:"/users/{id}" handler:"Show"`
	_ mvc.RequestMapping `method:"GET" path:"/broken" handler:"Broken"`
	_ mvc.RequestMapping `method:"GET" path:"/panics" handler:"Panics"`
	_ mvc.RequestMapping `method:"POST" path:"/login" handler:"Login"`
}

func (c *pageController) Show(vars mvc.PathVars) mvc.Model {
	return mvc.Model{"id": vars.Get("id")}
}

func (c *pageController) Broken() error { return errLookup }

func (c *pageController) Panics() string { panic("kaboom") }

func (c *pageController) Login() string { return "redirect:/login" }

type fixture struct {
	dispatcher *Dispatcher
	renderer   *testutil.RecordingRenderer
	logs       *testutil.BufferedSlogHandler
	spans      *tracetest.SpanRecorder
	reader     *sdkmetric.ManualReader
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	catalog := component.NewCatalog()
	require.NoError(t, catalog.Register(&pageController{}))
	manual := mapping.NewManualMapping(nil)
	manual.MustRegister("GET", "/", mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
		return mvc.NewModelAndView("/index.html"), nil
	}))
	manual.MustRegister("GET", "/logout", mvc.HandlerFunc(func(http.ResponseWriter, *http.Request) (*mvc.ModelAndView, error) {
		return mvc.RedirectTo("/"), nil
	}))
	mappings := mapping.NewMappings(
		mapping.NewAnnotationMapping([]string{"webmvc/internal/dispatch"}, mapping.WithCatalog(catalog)),
		manual,
	)
	require.NoError(t, mappings.Initialize())

	logger, logs := testutil.NewTestLogger(t)
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	opts.Logger = logger
	opts.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")
	opts.Metrics = metrics

	renderer := &testutil.RecordingRenderer{}
	finder := adapter.NewFinder(adapter.NewAnnotationAdapter(), adapter.NewManualAdapter())
	return &fixture{
		dispatcher: New(mappings, finder, renderer, opts),
		renderer:   renderer,
		logs:       logs,
		spans:      spans,
		reader:     reader,
	}
}

func (f *fixture) dispatch(method, path string) (*httptest.ResponseRecorder, error) {
	w := httptest.NewRecorder()
	err := f.dispatcher.Dispatch(w, httptest.NewRequest(method, path, nil))
	return w, err
}

func (f *fixture) counter(t *testing.T, name, key, value string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestDispatchForwardsHandlerView(t *testing.T) {
	f := newFixture(t, Options{})

	w, err := f.dispatch("GET", "/users/42")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)

	forwards := f.renderer.Forwards()
	require.Len(t, forwards, 1)
	assert.Equal(t, "/users.html", forwards[0].View)
	assert.Equal(t, mvc.Model{"id": "42"}, forwards[0].Model)
	assert.Empty(t, f.renderer.Redirects())

	assert.Equal(t, int64(1), f.counter(t, "dispatch_requests_total", "outcome", "found"))
	testutil.AssertNoErrors(t, f.logs)
}

func TestDispatchRoutingMissRendersNotFound(t *testing.T) {
	f := newFixture(t, Options{})

	w, err := f.dispatch("GET", "/nowhere")
	require.NoError(t, err, "a routing miss is never an error")
	assert.Equal(t, http.StatusNotFound, w.Code)

	forwards := f.renderer.Forwards()
	require.Len(t, forwards, 1)
	assert.Equal(t, DefaultNotFoundView, forwards[0].View)
	assert.Equal(t, "/nowhere", forwards[0].Model["path"])
	assert.Equal(t, int64(1), f.counter(t, "dispatch_requests_total", "outcome", "not_found"))
}

func TestDispatchMethodMismatch(t *testing.T) {
	t.Run("without a 405 view", func(t *testing.T) {
		f := newFixture(t, Options{NotFoundView: "/missing.html"})

		w, err := f.dispatch("DELETE", "/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "/missing.html", f.renderer.Forwards()[0].View)
		assert.Empty(t, w.Header().Get("Allow"))
	})

	t.Run("with a 405 view", func(t *testing.T) {
		f := newFixture(t, Options{MethodNotAllowedView: "/405.html"})

		w, err := f.dispatch("DELETE", "/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "POST", w.Header().Get("Allow"))

		mv := f.renderer.Forwards()[0]
		assert.Equal(t, "/405.html", mv.View)
		assert.Equal(t, []string{"POST"}, mv.Model["allowed"])
	})
}

func TestDispatchRedirect(t *testing.T) {
	f := newFixture(t, Options{})

	w, err := f.dispatch("POST", "/login")
	require.NoError(t, err)

	assert.Equal(t, []string{"/login"}, f.renderer.Redirects())
	assert.Empty(t, f.renderer.Forwards(), "redirects are never forwarded")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestDispatchManualHandlers(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.dispatch("GET", "/")
	require.NoError(t, err)
	_, err = f.dispatch("GET", "/logout")
	require.NoError(t, err)

	assert.Equal(t, "/index.html", f.renderer.Forwards()[0].View)
	assert.Equal(t, []string{"/"}, f.renderer.Redirects())
}

func TestDispatchInvocationFailurePreservesCause(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.dispatch("GET", "/broken")
	require.Error(t, err)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrorTypeInvocation, de.Type)
	assert.Equal(t, StateInvoking, de.State)
	assert.Equal(t, "GET", de.Method)
	assert.Equal(t, "/broken", de.Path)
	assert.False(t, de.Fatal)
	assert.Same(t, errLookup, errors.Unwrap(err))
	assert.ErrorIs(t, err, errLookup)

	assert.Empty(t, f.renderer.Forwards())
	assert.Equal(t, int64(1), f.counter(t, "dispatch_failures_total", "type", "invocation"))
	testutil.AssertLogContains(t, f.logs, slog.LevelError, "dispatch failed")
}

func TestDispatchHandlerPanic(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.dispatch("GET", "/panics")
	require.True(t, IsType(err, ErrorTypeInvocation))

	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

type stubResolver struct{ handler any }

func (s stubResolver) Resolve(r *http.Request) mvc.Resolution {
	return mvc.Resolution{Outcome: mvc.Found, Handler: s.handler, PathVars: mvc.PathVars{}}
}

func TestDispatchAdapterMiss(t *testing.T) {
	renderer := &testutil.RecordingRenderer{}
	logger, _ := testutil.NewTestLogger(t)
	d := New(stubResolver{handler: struct{}{}}, adapter.NewFinder(adapter.NewManualAdapter()), renderer, Options{Logger: logger})

	err := d.Dispatch(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeAdapterMiss))
	assert.ErrorIs(t, err, adapter.ErrAdapterMiss)
	assert.False(t, IsFatal(err))
	assert.Empty(t, renderer.Forwards(), "an adapter miss is not a not-found")
}

func TestDispatchRenderFailure(t *testing.T) {
	errRender := errors.New("template exploded")

	t.Run("handler view", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.renderer.ForwardErr = errRender

		_, err := f.dispatch("GET", "/users/1")
		require.True(t, IsType(err, ErrorTypeRender))
		assert.False(t, IsFatal(err))
		assert.ErrorIs(t, err, errRender)
	})

	t.Run("redirect", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.renderer.RedirectErr = errRender

		_, err := f.dispatch("POST", "/login")
		require.True(t, IsType(err, ErrorTypeRender))
		assert.False(t, IsFatal(err))
	})

	t.Run("not-found fallback is fatal", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.renderer.ForwardErr = errRender

		_, err := f.dispatch("GET", "/nowhere")
		require.True(t, IsType(err, ErrorTypeRender))
		assert.True(t, IsFatal(err))

		var de *Error
		require.True(t, errors.As(err, &de))
		assert.Contains(t, de.Error(), "(fatal)")
	})
}

func TestDispatchRecordsSpan(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.dispatch("GET", "/users/5")
	require.NoError(t, err)
	_, _ = f.dispatch("GET", "/broken")

	ended := f.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "dispatch", ended[0].Name())
	assert.Equal(t, "Ok", ended[0].Status().Code.String())
	assert.Equal(t, "Error", ended[1].Status().Code.String())
	assert.NotEmpty(t, ended[1].Events(), "failure is recorded on the span")
}

func TestServeHTTPAnswers500OnFailure(t *testing.T) {
	f := newFixture(t, Options{})

	w := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(w, httptest.NewRequest("GET", "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
