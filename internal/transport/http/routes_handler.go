package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "webmvc/internal/errors"
	"webmvc/internal/mapping"
	"webmvc/internal/mvc"
)

// RouteTable is the read side of the composite handler mapping.
type RouteTable interface {
	Routes() []mvc.RouteInfo
	Shadowed() []mapping.Shadow
	Resolve(r *http.Request) mvc.Resolution
}

// RoutesHandler exposes the routing table for diagnostics.
type RoutesHandler struct {
	table  RouteTable
	errors *apierrors.ErrorHandler
	logger *slog.Logger
}

// NewRoutesHandler creates a new routes handler
func NewRoutesHandler(table RouteTable, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RoutesHandler {
	return &RoutesHandler{
		table:  table,
		errors: errorHandler,
		logger: logger.With(slog.String("handler", "routes")),
	}
}

// Routes sets up the routes endpoints
func (h *RoutesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/shadowed", h.Shadowed)
	r.Get("/resolve", h.Resolve)
	return r
}

// List handles GET /api/routes
func (h *RoutesHandler) List(w http.ResponseWriter, r *http.Request) {
	routes := h.table.Routes()
	if registry := r.URL.Query().Get("registry"); registry != "" {
		filtered := routes[:0:0]
		for _, info := range routes {
			if info.Registry == registry {
				filtered = append(filtered, info)
			}
		}
		routes = filtered
	}
	render.JSON(w, r, map[string]interface{}{
		"routes": routes,
		"count":  len(routes),
	})
}

// Shadowed handles GET /api/routes/shadowed
func (h *RoutesHandler) Shadowed(w http.ResponseWriter, r *http.Request) {
	shadows := h.table.Shadowed()
	if shadows == nil {
		shadows = []mapping.Shadow{}
	}
	render.JSON(w, r, map[string]interface{}{"shadowed": shadows})
}

// ResolveResponse describes how a request would be routed.
type ResolveResponse struct {
	Outcome  string            `json:"outcome"`
	Route    string            `json:"route,omitempty"`
	Handler  string            `json:"handler,omitempty"`
	PathVars map[string]string `json:"path_vars,omitempty"`
	Allowed  []string          `json:"allowed,omitempty"`
}

// Resolve handles GET /api/routes/resolve?method=GET&path=/users/7
func (h *RoutesHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if !strings.HasPrefix(path, "/") {
		h.errors.HandleError(w, r, apierrors.ErrValidation("path", "path must start with /"))
		return
	}
	method := strings.ToUpper(q.Get("method"))
	if method == "" {
		method = http.MethodGet
	}

	target, err := http.NewRequestWithContext(r.Context(), method, path, nil)
	if err != nil {
		h.errors.HandleError(w, r, apierrors.ErrValidation("path", err.Error()))
		return
	}

	res := h.table.Resolve(target)
	out := ResolveResponse{
		Outcome: res.Outcome.String(),
		Allowed: res.Allowed,
	}
	if res.Resolved() {
		out.Route = res.Key.String()
		out.Handler = describeHandler(res.Handler)
		out.PathVars = res.PathVars
	}
	render.JSON(w, r, out)
}

func describeHandler(handler any) string {
	if s, ok := handler.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", handler)
}
