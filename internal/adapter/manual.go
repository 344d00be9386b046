package adapter

import (
	"errors"
	"fmt"
	"net/http"

	"webmvc/internal/mvc"
)

// ErrNoView is returned when a manual handler succeeds without naming a view.
var ErrNoView = errors.New("adapter: handler returned no view")

// ManualName is the name of ManualAdapter.
const ManualName = "manual"

// ManualAdapter calls handlers implementing mvc.Handler.
type ManualAdapter struct{}

// NewManualAdapter creates a ManualAdapter.
func NewManualAdapter() *ManualAdapter { return &ManualAdapter{} }

// Name implements HandlerAdapter.
func (a *ManualAdapter) Name() string { return ManualName }

// Supports implements HandlerAdapter.
func (a *ManualAdapter) Supports(handler any) bool {
	_, ok := handler.(mvc.Handler)
	return ok
}

// Handle implements HandlerAdapter.
func (a *ManualAdapter) Handle(w http.ResponseWriter, r *http.Request, handler any) (*mvc.ModelAndView, error) {
	h, ok := handler.(mvc.Handler)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedHandler, handler)
	}
	mv, err := h.Handle(w, r)
	if err != nil {
		return nil, err
	}
	if mv == nil {
		return nil, fmt.Errorf("%w: %T", ErrNoView, handler)
	}
	return mv, nil
}
