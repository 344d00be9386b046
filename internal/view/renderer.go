// Package view renders ModelAndView instructions with html/template.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"webmvc/internal/infrastructure"
	"webmvc/internal/mvc"
)

var (
	// ErrViewNotFound is returned when no template exists for a view name.
	ErrViewNotFound = errors.New("view: template not found")
	// ErrEmptyRedirect is returned for a redirect without a target.
	ErrEmptyRedirect = errors.New("view: empty redirect target")
)

// DefaultSuffix is the extension of template files.
const DefaultSuffix = ".html"

// Renderer forwards to templates loaded from a file system and issues
// redirects. Templates are swapped atomically on Reload.
type Renderer struct {
	fsys      fs.FS
	suffix    string
	logger    *slog.Logger
	templates atomic.Pointer[map[string]*template.Template]
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSuffix sets the template file extension.
func WithSuffix(suffix string) Option {
	return func(r *Renderer) { r.suffix = suffix }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New loads every template under fsys.
func New(fsys fs.FS, opts ...Option) (*Renderer, error) {
	r := &Renderer{fsys: fsys, suffix: DefaultSuffix, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = infrastructure.WithComponent(r.logger, "view_renderer")
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload parses all templates again and publishes them if every one parses.
func (r *Renderer) Reload() error {
	set := make(map[string]*template.Template)
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, r.suffix) {
			return nil
		}
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(r.fsys, p)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		set["/"+p] = t
		return nil
	})
	if err != nil {
		return err
	}

	r.templates.Store(&set)
	r.logger.Info("templates loaded", slog.Int("count", len(set)))
	return nil
}

// Views lists the loaded view names.
func (r *Renderer) Views() []string {
	set := *r.templates.Load()
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// Forward renders the view of mv with its model and status. The JSON view
// encodes the model instead of executing a template.
func (r *Renderer) Forward(w http.ResponseWriter, req *http.Request, mv *mvc.ModelAndView) error {
	if mv.View == mvc.JSONView {
		return r.writeJSON(w, mv)
	}

	t, ok := r.lookup(mv.View)
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, mv.View)
	}

	// execute into a buffer so a failing template leaves the response untouched
	var buf bytes.Buffer
	if err := t.Execute(&buf, mv.Model); err != nil {
		return fmt.Errorf("execute %s: %w", mv.View, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(mv.StatusCode())
	_, err := buf.WriteTo(w)
	return err
}

// Redirect answers 302 Found with target as the location.
func (r *Renderer) Redirect(w http.ResponseWriter, req *http.Request, target string) error {
	if target == "" {
		return ErrEmptyRedirect
	}
	http.Redirect(w, req, target, http.StatusFound)
	return nil
}

// lookup accepts "/index.html", "index.html" and "index".
func (r *Renderer) lookup(view string) (*template.Template, bool) {
	set := *r.templates.Load()
	name := "/" + strings.TrimPrefix(view, "/")
	if t, ok := set[name]; ok {
		return t, true
	}
	t, ok := set[name+r.suffix]
	return t, ok
}

func (r *Renderer) writeJSON(w http.ResponseWriter, mv *mvc.ModelAndView) error {
	body, err := json.Marshal(mv.Model)
	if err != nil {
		return fmt.Errorf("encode json view: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(mv.StatusCode())
	_, err = w.Write(body)
	return err
}

var funcs = template.FuncMap{
	"join": strings.Join,
}
