// Package dispatch drives one request through routing, adaptation,
// invocation and rendering.
//
// A dispatch moves through ROUTING, ADAPTING, INVOKING and RENDERING to DONE.
// Any state may move to FAILED, in which case Dispatch returns an *Error and
// the caller decides the response status. A routing miss is not a failure:
// it renders the reserved not-found view.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"webmvc/internal/adapter"
	"webmvc/internal/infrastructure"
	"webmvc/internal/mvc"
)

// State is a dispatch state.
type State string

const (
	StateRouting   State = "ROUTING"
	StateAdapting  State = "ADAPTING"
	StateInvoking  State = "INVOKING"
	StateRendering State = "RENDERING"
	StateDone      State = "DONE"
	StateFailed    State = "FAILED"
)

// DefaultNotFoundView is the reserved view rendered on a routing miss.
const DefaultNotFoundView = "/404.html"

// ErrNoRenderInstruction is the invocation cause when an adapter returns
// neither a ModelAndView nor an error.
var ErrNoRenderInstruction = errors.New("dispatch: adapter returned no render instruction")

// Resolver resolves requests to handlers.
type Resolver interface {
	Resolve(r *http.Request) mvc.Resolution
}

// AdapterFinder selects the adapter for a handler.
type AdapterFinder interface {
	Find(handler any) (adapter.HandlerAdapter, error)
}

// Renderer realizes render instructions.
type Renderer interface {
	Forward(w http.ResponseWriter, r *http.Request, mv *mvc.ModelAndView) error
	Redirect(w http.ResponseWriter, r *http.Request, target string) error
}

// Options configures a Dispatcher. Zero values select defaults.
type Options struct {
	// NotFoundView is rendered with status 404 on a routing miss.
	NotFoundView string
	// MethodNotAllowedView, when set, is rendered with status 405 when the
	// path matched but the method did not.
	MethodNotAllowedView string

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *Metrics
}

// Dispatcher is immutable after construction and safe for concurrent use.
type Dispatcher struct {
	resolver Resolver
	finder   AdapterFinder
	renderer Renderer

	notFoundView         string
	methodNotAllowedView string

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// New creates a Dispatcher.
func New(resolver Resolver, finder AdapterFinder, renderer Renderer, opts Options) *Dispatcher {
	d := &Dispatcher{
		resolver:             resolver,
		finder:               finder,
		renderer:             renderer,
		notFoundView:         opts.NotFoundView,
		methodNotAllowedView: opts.MethodNotAllowedView,
		logger:               opts.Logger,
		tracer:               opts.Tracer,
		metrics:              opts.Metrics,
	}
	if d.notFoundView == "" {
		d.notFoundView = DefaultNotFoundView
	}
	d.logger = infrastructure.WithComponent(d.logger, "dispatcher")
	if d.tracer == nil {
		d.tracer = otel.Tracer("webmvc/dispatch")
	}
	return d
}

// ServeHTTP dispatches r and answers failures with a bare 500. Servers that
// want structured error responses call Dispatch directly.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := d.Dispatch(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Dispatch processes one request.
func (d *Dispatcher) Dispatch(w http.ResponseWriter, r *http.Request) error {
	start := time.Now()
	ctx, span := d.tracer.Start(r.Context(), "dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		))
	defer span.End()
	r = r.WithContext(ctx)

	d.logger.DebugContext(ctx, "dispatching",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	// ROUTING
	res := d.resolver.Resolve(r)
	if !res.Resolved() {
		outcome := "not_found"
		mv := mvc.NewModelAndView(d.notFoundView).WithStatus(http.StatusNotFound)
		if res.Outcome == mvc.MethodNotAllowed && d.methodNotAllowedView != "" {
			outcome = "method_not_allowed"
			mv = mvc.NewModelAndView(d.methodNotAllowedView).
				WithStatus(http.StatusMethodNotAllowed).
				AddObject("allowed", res.Allowed)
			w.Header().Set("Allow", strings.Join(res.Allowed, ", "))
		}
		mv.AddObject("path", r.URL.Path)

		span.SetAttributes(attribute.String("dispatch.outcome", outcome))
		if err := d.render(w, r, mv); err != nil {
			return d.fail(ctx, span, start, &Error{
				Type: ErrorTypeRender, State: StateRendering,
				Method: r.Method, Path: r.URL.Path, Cause: err, Fatal: true,
			})
		}
		d.done(ctx, span, start, outcome)
		return nil
	}

	span.SetAttributes(attribute.String("dispatch.route", res.Key.String()))
	r = r.WithContext(mvc.WithPathVars(ctx, res.PathVars))

	// ADAPTING
	a, err := d.finder.Find(res.Handler)
	if err != nil {
		return d.fail(ctx, span, start, d.failure(r, ErrorTypeAdapterMiss, StateAdapting, err))
	}

	// INVOKING
	mv, err := d.invoke(a, w, r, res.Handler)
	if err == nil && mv == nil {
		err = ErrNoRenderInstruction
	}
	if err != nil {
		return d.fail(ctx, span, start, d.failure(r, ErrorTypeInvocation, StateInvoking, err))
	}

	// RENDERING
	if err := d.render(w, r, mv); err != nil {
		return d.fail(ctx, span, start, d.failure(r, ErrorTypeRender, StateRendering, err))
	}

	d.done(ctx, span, start, "found")
	return nil
}

// invoke calls the adapter, turning a handler panic into a *PanicError.
func (d *Dispatcher) invoke(a adapter.HandlerAdapter, w http.ResponseWriter, r *http.Request, handler any) (mv *mvc.ModelAndView, err error) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			mv, err = nil, &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return a.Handle(w, r, handler)
}

func (d *Dispatcher) render(w http.ResponseWriter, r *http.Request, mv *mvc.ModelAndView) error {
	if mv.Redirect {
		return d.renderer.Redirect(w, r, mv.View)
	}
	return d.renderer.Forward(w, r, mv)
}

func (d *Dispatcher) failure(r *http.Request, t ErrorType, s State, cause error) *Error {
	return &Error{Type: t, State: s, Method: r.Method, Path: r.URL.Path, Cause: cause}
}

func (d *Dispatcher) done(ctx context.Context, span trace.Span, start time.Time, outcome string) {
	span.SetStatus(codes.Ok, "")
	d.metrics.record(ctx, outcome, "", time.Since(start))
	d.logger.DebugContext(ctx, "dispatch complete",
		slog.String("state", string(StateDone)),
		slog.String("outcome", outcome),
		slog.Duration("duration", time.Since(start)))
}

func (d *Dispatcher) fail(ctx context.Context, span trace.Span, start time.Time, err *Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Type))
	d.metrics.record(ctx, "failed", err.Type, time.Since(start))
	d.logger.ErrorContext(ctx, "dispatch failed",
		slog.String("state", string(StateFailed)),
		slog.String("failed_in", string(err.State)),
		slog.String("type", string(err.Type)),
		slog.String("method", err.Method),
		slog.String("path", err.Path),
		slog.Bool("fatal", err.Fatal),
		slog.String("error", err.Cause.Error()))
	return err
}
