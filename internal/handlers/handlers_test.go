package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jikku/coffeehouse/internal/models"
	"github.com/jikku/coffeehouse/internal/stores"
	"github.com/jikku/coffeehouse/internal/templates"
	"github.com/jikku/coffeehouse/internal/urls"
)

// recordingRenderer remembers the last render instead of producing HTML
type recordingRenderer struct {
	name   string
	ctx    templates.Context
	status int
	fail   map[string]bool
}

func (r *recordingRenderer) Render(w http.ResponseWriter, req *http.Request, name string, ctx templates.Context, status int) error {
	if r.fail[name] {
		return errors.New("template exploded")
	}
	r.name, r.ctx, r.status = name, ctx, status
	w.WriteHeader(status)
	w.Write([]byte(name))
	return nil
}

type fakeVisits struct {
	mu     sync.Mutex
	visits []models.Visit
	err    error
}

func (f *fakeVisits) RecordVisit(_ context.Context, v models.Visit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.visits = append(f.visits, v)
	return nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type countingMetrics struct{ views map[string]int }

func (c *countingMetrics) StoreViewed(id string) { c.views[id]++ }

type testSite struct {
	renderer *recordingRenderer
	visits   *fakeVisits
	metrics  *countingMetrics
	handler  *Handler
	router   *urls.Router
}

func newTestSite(t *testing.T, opts ...Option) *testSite {
	t.Helper()
	s := &testSite{
		renderer: &recordingRenderer{fail: map[string]bool{}},
		visits:   &fakeVisits{},
		metrics:  &countingMetrics{views: map[string]int{}},
	}
	opts = append([]Option{WithVisits(s.visits), WithMetrics(s.metrics)}, opts...)
	s.handler = New(s.renderer, opts...)

	views := s.handler.Views()
	views[urls.ViewMetrics] = http.NotFoundHandler()
	rt, err := urls.New(urls.Root(), views)
	require.NoError(t, err)
	s.handler.SetReverser(rt)
	s.router = rt
	return s
}

func (s *testSite) do(method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func keys(ctx templates.Context) []string {
	out := make([]string, 0, len(ctx))
	for k := range ctx {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestAboutIndexSelectsStore(t *testing.T) {
	tests := []struct {
		path string
		id   string
	}{
		{"/about/", ""},
		{"/about/1/", "1"},
		{"/about/2/", "2"},
		{"/about/3/", "3"},
		{"/stores/2/about/", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s := newTestSite(t)
			rr := s.do("GET", tt.path)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "about/index.html", s.renderer.name)

			want, err := stores.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, want, s.renderer.ctx["store"])
		})
	}
}

func TestAboutIndexNotFound(t *testing.T) {
	for _, path := range []string{"/about/99/", "/about/0/", "/about/abc/", "/stores/7/about/"} {
		t.Run(path, func(t *testing.T) {
			s := newTestSite(t)
			rr := s.do("GET", path)

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, "errors/404.html", s.renderer.name)
			assert.Equal(t, http.StatusNotFound, s.renderer.ctx["status"])
		})
	}
}

func TestAboutContextShape(t *testing.T) {
	s := newTestSite(t)

	s.do("GET", "/about/")
	defaultCtx := s.renderer.ctx
	s.do("GET", "/about/1/")
	firstCtx := s.renderer.ctx

	assert.Equal(t, keys(defaultCtx), keys(firstCtx))
	assert.NotEqual(t, defaultCtx["store"], firstCtx["store"])
}

func TestContactRedirect(t *testing.T) {
	paths := []string{"/about/contact/", "/about/contact/?store=2", "/stores/3/about/contact/"}
	methods := []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete}

	for _, path := range paths {
		for _, method := range methods {
			t.Run(method+" "+path, func(t *testing.T) {
				s := newTestSite(t)
				rr := s.do(method, path)

				assert.Equal(t, http.StatusMovedPermanently, rr.Code)
				assert.Equal(t, "/about/", rr.Header().Get("Location"))
			})
		}
	}
}

func TestMethodNotAllowedPage(t *testing.T) {
	s := newTestSite(t)
	rr := s.do(http.MethodDelete, "/about/1/")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "errors/405.html", s.renderer.name)
	assert.Equal(t, http.StatusMethodNotAllowed, s.renderer.ctx["status"])
}

func TestContactRedirectWithoutRouter(t *testing.T) {
	renderer := &recordingRenderer{}
	h := New(renderer)

	rr := httptest.NewRecorder()
	h.ContactRedirect(rr, httptest.NewRequest("GET", "/about/contact/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "errors/500.html", renderer.name)
}

func TestContactPage(t *testing.T) {
	s := newTestSite(t)

	rr := s.do("GET", "/about/2/contact/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "about/contact.html", s.renderer.name)
	store, _ := stores.Lookup("2")
	assert.Equal(t, store, s.renderer.ctx["store"])

	rr = s.do("POST", "/about/2/contact/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, UnsupportedOperation, rr.Body.String())

	rr = s.do("GET", "/about/9/contact/")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStoreDetail(t *testing.T) {
	s := newTestSite(t)
	rr := s.do("GET", "/stores/1/?hours=sunday&map=flash")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "stores/detail.html", s.renderer.name)

	store, _ := stores.Lookup("1")
	assert.Equal(t, store, s.renderer.ctx["store"])
	assert.Equal(t, "1", s.renderer.ctx["store_id"])
	assert.Equal(t, "sunday", s.renderer.ctx["hours"])
	assert.Equal(t, "flash", s.renderer.ctx["map"])
	assert.Equal(t, "headquarters", s.renderer.ctx["location"])

	require.Len(t, s.visits.visits, 1)
	assert.Equal(t, "1", s.visits.visits[0].StoreID)
	assert.Equal(t, "sunday", s.visits.visits[0].Hours)
	assert.Equal(t, 1, s.metrics.views["1"])
}

func TestStoreDetailNotFound(t *testing.T) {
	s := newTestSite(t)
	rr := s.do("GET", "/stores/99/")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, s.visits.visits)
	assert.Empty(t, s.metrics.views)
}

func TestStoreDetailVisitFailureIsNotFatal(t *testing.T) {
	s := newTestSite(t)
	s.visits.err = errors.New("disk full")

	rr := s.do("GET", "/stores/3/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "stores/detail.html", s.renderer.name)
}

func TestStoresIndex(t *testing.T) {
	s := newTestSite(t)
	rr := s.do("GET", "/stores/")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "stores/index.html", s.renderer.name)
	assert.Len(t, s.renderer.ctx["stores"], 3)
}

func TestDrinks(t *testing.T) {
	s := newTestSite(t)

	rr := s.do("GET", "/drinks/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "drinks/index.html", s.renderer.name)
	assert.Equal(t, true, s.renderer.ctx["onsale"])

	rr = s.do("GET", "/drinks/latte/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "drinks/detail.html", s.renderer.name)
	assert.Equal(t, "latte", s.renderer.ctx["drink_type"])
	assert.Equal(t, true, s.renderer.ctx["onsale"])
	assert.Contains(t, s.renderer.ctx, "drink")

	rr = s.do("GET", "/drinks/pumpkin-spice/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pumpkin-spice", s.renderer.ctx["drink_type"])
	assert.NotContains(t, s.renderer.ctx, "drink")

	rr = s.do("GET", "/drinks/7up/")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBanners(t *testing.T) {
	for _, category := range urls.BannerCategories {
		t.Run(category, func(t *testing.T) {
			s := newTestSite(t)
			rr := s.do("GET", "/"+category+"banners/")

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "banners/index.html", s.renderer.name)
			assert.Equal(t, category, s.renderer.ctx["banner"])
		})
	}
}

func TestHomepage(t *testing.T) {
	s := newTestSite(t)
	rr := s.do("GET", "/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "homepage.html", s.renderer.name)
}

func TestRenderFailureFallsBackToServerError(t *testing.T) {
	s := newTestSite(t)
	s.renderer.fail["homepage.html"] = true

	rr := s.do("GET", "/")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "errors/500.html", s.renderer.name)
}

func TestErrorPageFallback(t *testing.T) {
	s := newTestSite(t)
	s.renderer.fail["errors/404.html"] = true

	rr := s.do("GET", "/nowhere/")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not Found", strings.TrimSpace(rr.Body.String()))
}

func TestErrorViews(t *testing.T) {
	tests := []struct {
		name   string
		view   func(h *Handler) http.HandlerFunc
		status int
	}{
		{"bad request", func(h *Handler) http.HandlerFunc { return h.BadRequest }, http.StatusBadRequest},
		{"permission denied", func(h *Handler) http.HandlerFunc { return h.PermissionDenied }, http.StatusForbidden},
		{"not found", func(h *Handler) http.HandlerFunc { return h.NotFound }, http.StatusNotFound},
		{"method not allowed", func(h *Handler) http.HandlerFunc { return h.MethodNotAllowed }, http.StatusMethodNotAllowed},
		{"server error", func(h *Handler) http.HandlerFunc { return h.ServerError }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &recordingRenderer{}
			h := New(renderer)
			rr := httptest.NewRecorder()
			tt.view(h)(rr, httptest.NewRequest("GET", "/", nil))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.status, renderer.status)
			assert.Equal(t, tt.status, renderer.ctx["status"])
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestSite(t, WithHealth(fakeHealth{}))
		rr := s.do("GET", "/health")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		s := newTestSite(t, WithHealth(fakeHealth{err: errors.New("connection refused")}))
		rr := s.do("GET", "/health")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
