package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "webmvc/internal/errors"
)

// Dispatcher processes one request through the handler mappings.
type Dispatcher interface {
	Dispatch(w http.ResponseWriter, r *http.Request) error
}

// DispatchHandler mounts a Dispatcher on the router and turns its failures
// into problem responses.
type DispatchHandler struct {
	dispatcher Dispatcher
	errors     *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatcher Dispatcher, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
		errors:     errorHandler,
		logger:     logger.With(slog.String("handler", "dispatch")),
	}
}

func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	err := h.dispatcher.Dispatch(ww, r)
	if err == nil {
		return
	}
	if ww.Status() != 0 {
		h.logger.ErrorContext(r.Context(), "dispatch failed after response started",
			slog.String("error", err.Error()),
			slog.Int("status", ww.Status()))
		return
	}
	h.errors.HandleError(ww, r, err)
}
