package mvc

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	// RedirectPrefix marks a view name as a redirect target.
	RedirectPrefix = "redirect:"

	// JSONView is the reserved view name rendered by encoding the model as JSON.
	JSONView = "json"
)

// Model is the data handed to a view.
type Model map[string]any

// ModelAndView is the render instruction produced by a dispatch.
type ModelAndView struct {
	View     string
	Model    Model
	Redirect bool

	// Status is the response status to use when forwarding. Zero means 200.
	Status int
}

// NewModelAndView creates a render instruction for the given view name.
// A name starting with RedirectPrefix becomes a redirect instruction.
func NewModelAndView(viewName string) *ModelAndView {
	mv := &ModelAndView{Model: Model{}}
	if target, ok := strings.CutPrefix(viewName, RedirectPrefix); ok {
		mv.View = target
		mv.Redirect = true
		return mv
	}
	mv.View = viewName
	return mv
}

// RedirectTo creates a redirect instruction to target.
func RedirectTo(target string) *ModelAndView {
	return &ModelAndView{View: target, Model: Model{}, Redirect: true}
}

// JSON creates an instruction that renders model as a JSON document.
func JSON(model Model) *ModelAndView {
	if model == nil {
		model = Model{}
	}
	return &ModelAndView{View: JSONView, Model: model}
}

// AddObject stores value under name and returns the receiver.
func (mv *ModelAndView) AddObject(name string, value any) *ModelAndView {
	if mv.Model == nil {
		mv.Model = Model{}
	}
	mv.Model[name] = value
	return mv
}

// WithStatus sets the forward status and returns the receiver.
func (mv *ModelAndView) WithStatus(status int) *ModelAndView {
	mv.Status = status
	return mv
}

// StatusCode returns the status to use when forwarding.
func (mv *ModelAndView) StatusCode() int {
	if mv.Status == 0 {
		return http.StatusOK
	}
	return mv.Status
}

// String renders the instruction for logs.
func (mv *ModelAndView) String() string {
	if mv == nil {
		return "<nil>"
	}
	if mv.Redirect {
		return RedirectPrefix + mv.View
	}
	return fmt.Sprintf("forward:%s", mv.View)
}
