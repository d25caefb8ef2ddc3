package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/models"
	"github.com/jikku/coffeehouse/internal/templates"
	"github.com/jikku/coffeehouse/internal/urls"
)

// Renderer renders a named template with a context
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, ctx templates.Context, status int) error
}

// Reverser turns a route name into a path
type Reverser interface {
	Reverse(name string, pairs ...string) (string, error)
}

// VisitRecorder stores store page views
type VisitRecorder interface {
	RecordVisit(ctx context.Context, v models.Visit) error
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StoreMetrics counts store page views
type StoreMetrics interface {
	StoreViewed(storeID string)
}

// Handler holds the collaborators shared by all views
type Handler struct {
	renderer Renderer
	visits   VisitRecorder
	health   HealthChecker
	metrics  StoreMetrics
	logger   *zap.Logger

	mu       sync.RWMutex
	reverser Reverser
}

// Option configures a Handler
type Option func(*Handler)

// WithVisits records store page views
func WithVisits(v VisitRecorder) Option {
	return func(h *Handler) { h.visits = v }
}

// WithHealth enables the health view
func WithHealth(c HealthChecker) Option {
	return func(h *Handler) { h.health = c }
}

// WithMetrics counts store page views
func WithMetrics(m StoreMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// New creates the view handlers
func New(renderer Renderer, opts ...Option) *Handler {
	h := &Handler{renderer: renderer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetReverser attaches the router used for redirects
func (h *Handler) SetReverser(rv Reverser) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reverser = rv
}

func (h *Handler) reverse(name string, pairs ...string) (string, error) {
	h.mu.RLock()
	rv := h.reverser
	h.mu.RUnlock()
	if rv == nil {
		return "", fmt.Errorf("cannot reverse %q: no router attached", name)
	}
	return rv.Reverse(name, pairs...)
}

// Views returns every view keyed by the name the route table binds it to
func (h *Handler) Views() map[string]http.Handler {
	return map[string]http.Handler{
		urls.ViewHomepage:     http.HandlerFunc(h.Homepage),
		urls.ViewAboutIndex:   http.HandlerFunc(h.AboutIndex),
		urls.ViewAboutContact: http.HandlerFunc(h.ContactRedirect),
		urls.ViewContactPage:  http.HandlerFunc(h.ContactPage),
		urls.ViewStoresIndex:  http.HandlerFunc(h.StoresIndex),
		urls.ViewStoreDetail:  http.HandlerFunc(h.StoreDetail),
		urls.ViewDrinksIndex:  http.HandlerFunc(h.DrinksIndex),
		urls.ViewDrinkDetail:  http.HandlerFunc(h.DrinkDetail),
		urls.ViewBannerIndex:  http.HandlerFunc(h.BannerIndex),
		urls.ViewHealth:       http.HandlerFunc(h.Health),

		urls.ViewBadRequest:       http.HandlerFunc(h.BadRequest),
		urls.ViewPermissionDenied: http.HandlerFunc(h.PermissionDenied),
		urls.ViewNotFound:         http.HandlerFunc(h.NotFound),
		urls.ViewMethodNotAllowed: http.HandlerFunc(h.MethodNotAllowed),
		urls.ViewServerError:      http.HandlerFunc(h.ServerError),
	}
}

// render writes the page or, if the template fails, the 500 page
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, ctx templates.Context) {
	if err := h.renderer.Render(w, r, name, ctx, http.StatusOK); err != nil {
		h.logger.Error("Failed to render page", zap.String("template", name), zap.Error(err))
		h.ServerError(w, r)
	}
}

// Health reports whether the database is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
