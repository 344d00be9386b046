package testutil

import (
	"net/http"
	"sync"

	"webmvc/internal/mvc"
)

// RecordingRenderer records render instructions instead of producing pages.
// Forward writes the instruction's status and view name; Redirect answers 302.
type RecordingRenderer struct {
	mu        sync.Mutex
	forwards  []*mvc.ModelAndView
	redirects []string

	// ForwardErr and RedirectErr, when set, are returned instead of rendering.
	ForwardErr  error
	RedirectErr error
}

// Forward implements dispatch.Renderer.
func (rr *RecordingRenderer) Forward(w http.ResponseWriter, _ *http.Request, mv *mvc.ModelAndView) error {
	rr.mu.Lock()
	rr.forwards = append(rr.forwards, mv)
	rr.mu.Unlock()
	if rr.ForwardErr != nil {
		return rr.ForwardErr
	}
	w.WriteHeader(mv.StatusCode())
	_, err := w.Write([]byte(mv.View))
	return err
}

// Redirect implements dispatch.Renderer.
func (rr *RecordingRenderer) Redirect(w http.ResponseWriter, r *http.Request, target string) error {
	rr.mu.Lock()
	rr.redirects = append(rr.redirects, target)
	rr.mu.Unlock()
	if rr.RedirectErr != nil {
		return rr.RedirectErr
	}
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

// Forwards returns the forwarded instructions in order.
func (rr *RecordingRenderer) Forwards() []*mvc.ModelAndView {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]*mvc.ModelAndView(nil), rr.forwards...)
}

// Redirects returns the redirect targets in order.
func (rr *RecordingRenderer) Redirects() []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]string(nil), rr.redirects...)
}
