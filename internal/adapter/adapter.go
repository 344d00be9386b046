// Package adapter invokes resolved handlers through one calling protocol.
//
// Each HandlerAdapter knows one handler representation. The Finder picks the
// first adapter whose Supports predicate accepts a handler; the predicates of
// the adapters shipped here are mutually exclusive.
package adapter

import (
	"errors"
	"fmt"
	"net/http"

	"webmvc/internal/mvc"
)

// ErrAdapterMiss means no configured adapter supports a handler. It points at
// a registration defect and is never retried.
var ErrAdapterMiss = errors.New("adapter: no adapter supports handler")

// ErrUnsupportedHandler is returned by Handle for a handler the adapter does
// not support.
var ErrUnsupportedHandler = errors.New("adapter: unsupported handler")

// HandlerAdapter invokes one kind of handler and normalizes its result.
type HandlerAdapter interface {
	Name() string
	// Supports must depend only on the dynamic type of handler.
	Supports(handler any) bool
	// Handle invokes handler. Path variables are read from the request context.
	Handle(w http.ResponseWriter, r *http.Request, handler any) (*mvc.ModelAndView, error)
}

// Finder selects adapters in configured order.
type Finder struct {
	adapters []HandlerAdapter
}

// NewFinder creates a finder trying adapters in the given order.
func NewFinder(adapters ...HandlerAdapter) *Finder {
	return &Finder{adapters: append([]HandlerAdapter(nil), adapters...)}
}

// Find returns the first adapter supporting handler.
func (f *Finder) Find(handler any) (HandlerAdapter, error) {
	for _, a := range f.adapters {
		if a.Supports(handler) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrAdapterMiss, handler)
}

// Names lists the adapters in order.
func (f *Finder) Names() []string {
	names := make([]string, 0, len(f.adapters))
	for _, a := range f.adapters {
		names = append(names, a.Name())
	}
	return names
}
