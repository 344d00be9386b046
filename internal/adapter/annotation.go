package adapter

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"webmvc/internal/mapping"
	"webmvc/internal/mvc"
)

// AnnotationName is the name of AnnotationAdapter.
const AnnotationName = "annotation"

// DefaultViewSuffix is appended to derived view names.
const DefaultViewSuffix = ".html"

// AnnotationAdapter calls scanned controller methods by reflection, binding
// their parameters from the request and normalizing their results.
type AnnotationAdapter struct {
	binder     binder
	viewSuffix string
}

// AnnotationOption configures an AnnotationAdapter.
type AnnotationOption func(*AnnotationAdapter)

// WithValidator replaces the validator used for binding targets.
func WithValidator(v *validator.Validate) AnnotationOption {
	return func(a *AnnotationAdapter) { a.binder.validate = v }
}

// WithViewSuffix sets the suffix of derived view names.
func WithViewSuffix(suffix string) AnnotationOption {
	return func(a *AnnotationAdapter) { a.viewSuffix = suffix }
}

// NewAnnotationAdapter creates an AnnotationAdapter.
func NewAnnotationAdapter(opts ...AnnotationOption) *AnnotationAdapter {
	a := &AnnotationAdapter{
		binder:     binder{validate: validator.New(validator.WithRequiredStructEnabled())},
		viewSuffix: DefaultViewSuffix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements HandlerAdapter.
func (a *AnnotationAdapter) Name() string { return AnnotationName }

// Supports implements HandlerAdapter.
func (a *AnnotationAdapter) Supports(handler any) bool {
	_, ok := handler.(*mapping.HandlerMethod)
	return ok
}

// Handle implements HandlerAdapter.
func (a *AnnotationAdapter) Handle(w http.ResponseWriter, r *http.Request, handler any) (*mvc.ModelAndView, error) {
	hm, ok := handler.(*mapping.HandlerMethod)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedHandler, handler)
	}

	args := make([]reflect.Value, len(hm.Params))
	for i, p := range hm.Params {
		arg, err := a.argument(w, r, p)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	return a.result(hm, hm.Call(args))
}

func (a *AnnotationAdapter) argument(w http.ResponseWriter, r *http.Request, p mapping.Param) (reflect.Value, error) {
	switch p.Kind {
	case mapping.ParamContext:
		return reflect.ValueOf(r.Context()), nil
	case mapping.ParamResponseWriter:
		return reflect.ValueOf(w), nil
	case mapping.ParamRequest:
		return reflect.ValueOf(r), nil
	case mapping.ParamPathVars:
		return reflect.ValueOf(mvc.PathVarsFrom(r.Context())), nil
	case mapping.ParamQuery:
		return reflect.ValueOf(r.URL.Query()), nil
	case mapping.ParamBinding:
		return a.binder.bind(r, p.Type)
	default:
		return reflect.Value{}, fmt.Errorf("adapter: unknown parameter kind %s", p.Kind)
	}
}

// result turns the values returned by a handler method into a ModelAndView.
// A non-nil trailing error is returned unchanged.
func (a *AnnotationAdapter) result(hm *mapping.HandlerMethod, out []reflect.Value) (*mvc.ModelAndView, error) {
	if hm.ReturnsError {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}

	switch hm.Result {
	case mapping.ResultModelAndView:
		if mv := out[0].Interface().(*mvc.ModelAndView); mv != nil {
			return mv, nil
		}
	case mapping.ResultViewName:
		if name := out[0].String(); name != "" {
			return mvc.NewModelAndView(name), nil
		}
	case mapping.ResultModel:
		mv := a.defaultView(hm)
		if !out[0].IsNil() {
			mv.Model = out[0].Convert(reflect.TypeOf(mvc.Model(nil))).Interface().(mvc.Model)
		}
		return mv, nil
	case mapping.ResultValue:
		mv := a.defaultView(hm)
		if v := out[0]; !isNilValue(v) {
			mv.AddObject(AttributeName(hm.ResultType), v.Interface())
		}
		return mv, nil
	}
	return a.defaultView(hm), nil
}

func (a *AnnotationAdapter) defaultView(hm *mapping.HandlerMethod) *mvc.ModelAndView {
	return mvc.NewModelAndView(DefaultViewName(hm.Key.Pattern, a.viewSuffix))
}

// DefaultViewName derives a view name from the literal segments of a route
// pattern: "/users/{id}/edit" becomes "/users/edit" plus suffix, and a pattern
// without literals becomes "/index" plus suffix.
func DefaultViewName(p mvc.PathPattern, suffix string) string {
	literals := p.Literals()
	if len(literals) == 0 {
		return "/index" + suffix
	}
	return "/" + strings.Join(literals, "/") + suffix
}

// AttributeName derives a model attribute name from a type: User and *User
// become "user", []User becomes "userList".
func AttributeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	suffix := ""
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		suffix = "List"
		t = t.Elem()
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
	}

	name := t.Name()
	if name == "" {
		name = t.Kind().String()
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:] + suffix
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
