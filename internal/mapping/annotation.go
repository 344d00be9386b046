package mapping

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"webmvc/internal/component"
	"webmvc/internal/infrastructure"
	"webmvc/internal/mvc"
)

var (
	controllerType     = reflect.TypeOf(mvc.Controller{})
	requestMappingType = reflect.TypeOf(mvc.RequestMapping{})
)

// AnnotationName is the registry name of AnnotationMapping.
const AnnotationName = "annotation"

// AnnotationMapping builds its table from controllers found in a component
// catalog under a set of package patterns.
type AnnotationMapping struct {
	packages []string
	catalog  *component.Catalog
	logger   *slog.Logger
	table    atomic.Pointer[table]
}

// AnnotationOption configures an AnnotationMapping.
type AnnotationOption func(*AnnotationMapping)

// WithCatalog scans c instead of component.Default.
func WithCatalog(c *component.Catalog) AnnotationOption {
	return func(m *AnnotationMapping) { m.catalog = c }
}

// WithAnnotationLogger sets the logger.
func WithAnnotationLogger(l *slog.Logger) AnnotationOption {
	return func(m *AnnotationMapping) { m.logger = l }
}

// NewAnnotationMapping creates a mapping scanning the given package patterns.
func NewAnnotationMapping(packages []string, opts ...AnnotationOption) *AnnotationMapping {
	m := &AnnotationMapping{
		packages: append([]string(nil), packages...),
		catalog:  component.Default,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = infrastructure.WithComponent(m.logger, "annotation_mapping")
	return m
}

// Name implements HandlerMapping.
func (m *AnnotationMapping) Name() string { return AnnotationName }

// Initialize scans the catalog once and publishes the table. Later calls are
// no-ops.
func (m *AnnotationMapping) Initialize() error {
	if m.table.Load() != nil {
		return nil
	}

	entries := m.catalog.Scan(m.packages...)
	if len(entries) == 0 {
		m.logger.Warn("no controllers found", slog.Any("packages", m.packages))
	}

	b := newTableBuilder(AnnotationName)
	for _, e := range entries {
		n, err := m.register(b, e)
		if err != nil {
			return fmt.Errorf("scan %s: %w", e.Type, err)
		}
		m.logger.Debug("controller mapped",
			slog.String("controller", e.Type.String()),
			slog.Int("routes", n))
	}

	t := b.build()
	m.table.Store(t)
	m.logger.Info("annotation mapping initialized",
		slog.Int("controllers", len(entries)),
		slog.Int("routes", len(t.routes)))
	return nil
}

// register adds every RequestMapping of one controller and returns how many
// route keys it produced.
func (m *AnnotationMapping) register(b *tableBuilder, e component.Entry) (int, error) {
	st := e.Type.Elem()

	marker, ok := findMarker(st)
	if !ok {
		return 0, fmt.Errorf("%w: %s does not embed mvc.Controller", ErrNotController, e.Type)
	}
	prefix, err := mvc.ParsePattern(tagOr(marker.Tag, "path", "/"))
	if err != nil {
		return 0, fmt.Errorf("%w: controller prefix: %v", ErrInvalidMapping, err)
	}

	count := 0
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if f.Type != requestMappingType {
			continue
		}
		keys, handler, err := parseRequestMapping(prefix, f)
		if err != nil {
			return count, err
		}
		for _, key := range keys {
			hm, err := NewHandlerMethod(e.Instance, handler, key)
			if err != nil {
				return count, err
			}
			if err := b.add(key, hm); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// parseRequestMapping reads the tags of one RequestMapping field.
func parseRequestMapping(prefix mvc.PathPattern, f reflect.StructField) ([]mvc.RouteKey, string, error) {
	raw, ok := f.Tag.Lookup("path")
	if !ok {
		return nil, "", fmt.Errorf("%w: field %s has no path tag", ErrInvalidMapping, f.Name)
	}
	p, err := mvc.ParsePattern(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: field %s: %v", ErrInvalidMapping, f.Name, err)
	}
	full, err := prefix.Join(p)
	if err != nil {
		return nil, "", fmt.Errorf("%w: field %s: %v", ErrInvalidMapping, f.Name, err)
	}

	handler := f.Tag.Get("handler")
	if handler == "" {
		if f.Name == "_" {
			return nil, "", fmt.Errorf("%w: blank field for %s needs a handler tag", ErrInvalidMapping, full)
		}
		handler = upperFirst(f.Name)
	}

	methods, err := parseMethods(f.Tag.Get("method"))
	if err != nil {
		return nil, "", fmt.Errorf("%w: field %s: %v", ErrInvalidMapping, f.Name, err)
	}

	keys := make([]mvc.RouteKey, 0, len(methods))
	for _, method := range methods {
		keys = append(keys, mvc.RouteKey{Method: method, Pattern: full})
	}
	return keys, handler, nil
}

func parseMethods(tag string) ([]string, error) {
	if strings.TrimSpace(tag) == "" {
		return []string{mvc.MethodAny}, nil
	}
	var methods []string
	for _, part := range strings.Split(tag, ",") {
		m, err := mvc.NormalizeMethod(part)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func findMarker(st reflect.Type) (reflect.StructField, bool) {
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if f.Anonymous && f.Type == controllerType {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func tagOr(tag reflect.StructTag, key, fallback string) string {
	if v, ok := tag.Lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Resolve implements HandlerMapping. Before Initialize every request misses.
func (m *AnnotationMapping) Resolve(r *http.Request) mvc.Resolution {
	t := m.table.Load()
	if t == nil {
		return mvc.MissFor(r)
	}
	return t.resolve(r.Method, r.URL.Path)
}

// Routes implements HandlerMapping.
func (m *AnnotationMapping) Routes() []mvc.RouteInfo {
	t := m.table.Load()
	if t == nil {
		return nil
	}
	return t.info()
}
