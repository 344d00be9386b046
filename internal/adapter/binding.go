package adapter

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"webmvc/internal/mvc"
)

// BindingError reports a request that could not be bound to a handler
// argument. It maps to 400 Bad Request.
type BindingError struct {
	Target string
	Field  string
	Err    error
}

func (e *BindingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("binding %s.%s: %v", e.Target, e.Field, e.Err)
	}
	return fmt.Sprintf("binding %s: %v", e.Target, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// ValidationErrors returns the validator failures carried by the error, if any.
func (e *BindingError) ValidationErrors() validator.ValidationErrors {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) {
		return verrs
	}
	return nil
}

// binder populates pointer-to-struct handler arguments.
type binder struct {
	validate *validator.Validate
}

// bind allocates a value of type t (a struct pointer) and fills it from the
// JSON body, then from `param` tagged fields, then validates it.
func (b *binder) bind(r *http.Request, t reflect.Type) (reflect.Value, error) {
	target := reflect.New(t.Elem())
	name := t.Elem().String()

	if isJSON(r) && r.Body != nil {
		if err := render.DecodeJSON(r.Body, target.Interface()); err != nil && !errors.Is(err, io.EOF) {
			return reflect.Value{}, &BindingError{Target: name, Err: err}
		}
	}

	if err := r.ParseForm(); err != nil {
		return reflect.Value{}, &BindingError{Target: name, Err: err}
	}
	vars := mvc.PathVarsFrom(r.Context())

	st := t.Elem()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		key, ok := f.Tag.Lookup("param")
		if !ok || key == "-" || !f.IsExported() {
			continue
		}

		var values []string
		if v, ok := vars[key]; ok {
			values = []string{v}
		} else if v, ok := r.Form[key]; ok {
			values = v
		} else {
			continue
		}
		if err := setField(target.Elem().Field(i), values); err != nil {
			return reflect.Value{}, &BindingError{Target: name, Field: f.Name, Err: err}
		}
	}

	if err := b.validate.Struct(target.Interface()); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return reflect.Value{}, &BindingError{Target: name, Err: err}
		}
	}
	return target, nil
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && (mt == "application/json" || mt == "text/json")
}

// setField assigns the request values to a struct field.
func setField(v reflect.Value, values []string) error {
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.String {
		v.Set(reflect.ValueOf(append([]string(nil), values...)).Convert(v.Type()))
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	raw := values[0]

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(n)
	default:
		return fmt.Errorf("unsupported field type %s", v.Type())
	}
	return nil
}
