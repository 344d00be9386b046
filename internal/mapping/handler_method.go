package mapping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"webmvc/internal/mvc"
)

// ParamKind classifies a handler method parameter.
type ParamKind int

const (
	ParamContext ParamKind = iota
	ParamResponseWriter
	ParamRequest
	ParamPathVars
	ParamQuery
	// ParamBinding is a pointer to a struct populated from the request.
	ParamBinding
)

func (k ParamKind) String() string {
	switch k {
	case ParamContext:
		return "context"
	case ParamResponseWriter:
		return "response_writer"
	case ParamRequest:
		return "request"
	case ParamPathVars:
		return "path_vars"
	case ParamQuery:
		return "query"
	case ParamBinding:
		return "binding"
	default:
		return "unknown"
	}
}

// ResultKind classifies the non-error result of a handler method.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultModelAndView
	ResultViewName
	ResultModel
	ResultValue
)

// Param describes one parameter of a handler method.
type Param struct {
	Kind ParamKind
	Type reflect.Type
}

var (
	contextType        = reflect.TypeOf((*context.Context)(nil)).Elem()
	responseWriterType = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	requestType        = reflect.TypeOf((*http.Request)(nil))
	pathVarsType       = reflect.TypeOf(mvc.PathVars(nil))
	queryType          = reflect.TypeOf(url.Values(nil))
	errorType          = reflect.TypeOf((*error)(nil)).Elem()
	modelAndViewType   = reflect.TypeOf((*mvc.ModelAndView)(nil))
	modelType          = reflect.TypeOf(mvc.Model(nil))
	anyType            = reflect.TypeOf((*any)(nil)).Elem()
)

// HandlerMethod is a controller method discovered by scanning, with its
// signature analysed once at startup.
type HandlerMethod struct {
	Controller any
	Name       string
	Key        mvc.RouteKey

	Params       []Param
	Result       ResultKind
	ResultType   reflect.Type
	ReturnsError bool

	fn reflect.Value
}

// NewHandlerMethod binds the exported method name of controller and checks
// that its signature can be called by reflection.
func NewHandlerMethod(controller any, name string, key mvc.RouteKey) (*HandlerMethod, error) {
	ctype := reflect.TypeOf(controller)
	method, ok := ctype.MethodByName(name)
	if !ok || !method.IsExported() {
		return nil, fmt.Errorf("%w: %s has no exported method %q", ErrInvalidMapping, ctype, name)
	}

	hm := &HandlerMethod{
		Controller: controller,
		Name:       name,
		Key:        key,
		fn:         reflect.ValueOf(controller).Method(method.Index),
	}
	if err := hm.analyse(hm.fn.Type()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedSignature, hm, err)
	}
	return hm, nil
}

func (h *HandlerMethod) analyse(ft reflect.Type) error {
	if ft.IsVariadic() {
		return fmt.Errorf("variadic methods are not supported")
	}

	seen := make(map[ParamKind]bool)
	for i := 0; i < ft.NumIn(); i++ {
		kind, err := paramKind(ft.In(i))
		if err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
		if kind != ParamBinding && seen[kind] {
			return fmt.Errorf("parameter %d: more than one %s parameter", i, kind)
		}
		seen[kind] = true
		h.Params = append(h.Params, Param{Kind: kind, Type: ft.In(i)})
	}

	outs := ft.NumOut()
	if outs > 0 && ft.Out(outs-1) == errorType {
		h.ReturnsError = true
		outs--
	}
	switch outs {
	case 0:
		h.Result = ResultNone
	case 1:
		rt := ft.Out(0)
		kind, err := resultKind(rt)
		if err != nil {
			return err
		}
		h.Result = kind
		h.ResultType = rt
	default:
		return fmt.Errorf("too many results")
	}
	return nil
}

func paramKind(t reflect.Type) (ParamKind, error) {
	switch t {
	case contextType:
		return ParamContext, nil
	case responseWriterType:
		return ParamResponseWriter, nil
	case requestType:
		return ParamRequest, nil
	case pathVarsType:
		return ParamPathVars, nil
	case queryType:
		return ParamQuery, nil
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		return ParamBinding, nil
	}
	return 0, fmt.Errorf("unsupported type %s", t)
}

func resultKind(t reflect.Type) (ResultKind, error) {
	switch {
	case t == modelAndViewType:
		return ResultModelAndView, nil
	case t.Kind() == reflect.String:
		return ResultViewName, nil
	case t == modelType,
		t.Kind() == reflect.Map && t.Key().Kind() == reflect.String && t.Elem() == anyType:
		return ResultModel, nil
	case t == errorType:
		return 0, fmt.Errorf("error must be the last result")
	}
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return 0, fmt.Errorf("unsupported result type %s", t)
	}
	return ResultValue, nil
}

// Call invokes the method with already bound arguments.
func (h *HandlerMethod) Call(args []reflect.Value) []reflect.Value {
	return h.fn.Call(args)
}

// String returns "pkg.Type.Method".
func (h *HandlerMethod) String() string {
	t := reflect.TypeOf(h.Controller)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return fmt.Sprintf("%s.%s", t.String(), h.Name)
}
