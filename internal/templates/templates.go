// Package templates renders the site's HTML pages.
//
// Every page is parsed together with html/base.html and executed through
// the "base" template. Pages override the "title" and "content" blocks.
// Before a page runs, the registered context processors contribute shared
// values; the view's own context is merged last so its keys win.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

//go:embed html
var files embed.FS

const baseTemplate = "base.html"

// Context is the set of values handed to a template
type Context map[string]any

// Processor contributes values to every rendered page
type Processor func(r *http.Request) Context

// Reverser turns a route name and its parameters into a path
type Reverser interface {
	Reverse(name string, pairs ...string) (string, error)
}

// ErrNoReverser is returned by the url template function when no
// router has been attached to the renderer.
var ErrNoReverser = errors.New("no URL reverser configured")

// Renderer renders named pages. It is safe for concurrent use.
type Renderer struct {
	pages      map[string]*template.Template
	processors []Processor
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.RWMutex
	reverser Reverser
}

// Option configures a Renderer
type Option func(*Renderer)

// WithProcessors appends context processors, applied in order
func WithProcessors(p ...Processor) Option {
	return func(r *Renderer) {
		r.processors = append(r.processors, p...)
	}
}

// WithLogger sets the logger used for render failures
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithClock overrides the clock behind the now template function
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// New parses the embedded pages
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	root, err := fs.Sub(files, "html")
	if err != nil {
		return nil, err
	}

	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" || p == baseTemplate {
			return nil
		}

		t, err := template.New(p).Funcs(r.funcs()).ParseFS(root, baseTemplate, p)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", p, err)
		}
		r.pages[p] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SetReverser attaches the router used by the url template function
func (r *Renderer) SetReverser(rv Reverser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reverser = rv
}

// Pages returns the names of all parsed pages, sorted
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named page with ctx and writes it with status.
// Nothing is written if the template fails.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, ctx Context, status int) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q does not exist", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", r.context(req, ctx)); err != nil {
		r.logger.Error("Template render failed", zap.String("template", name), zap.Error(err))
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) context(req *http.Request, view Context) Context {
	merged := Context{}
	for _, p := range r.processors {
		for k, v := range p(req) {
			merged[k] = v
		}
	}
	for k, v := range view {
		merged[k] = v
	}
	return merged
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"now": func(layout string) string {
			return r.now().Format(layout)
		},
		"url": func(name string, pairs ...string) (string, error) {
			r.mu.RLock()
			rv := r.reverser
			r.mu.RUnlock()
			if rv == nil {
				return "", ErrNoReverser
			}
			return rv.Reverse(name, pairs...)
		},
		"join": strings.Join,
	}
}

// Debug exposes the debug flag to templates
func Debug(debug bool) Processor {
	return func(*http.Request) Context {
		return Context{"debug": debug}
	}
}

// Request exposes the request path and query to templates
func Request() Processor {
	return func(r *http.Request) Context {
		return Context{
			"request_path":  r.URL.Path,
			"request_query": r.URL.Query(),
		}
	}
}
