package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestBodySizeLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.Write(body)
	})

	limited := BodySizeLimit(100)(handler)

	tests := []struct {
		name       string
		bodySize   int
		wantStatus int
	}{
		{"small body", 50, http.StatusOK},
		{"exact limit", 100, http.StatusOK},
		{"over limit", 200, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", tt.bodySize)
			req := httptest.NewRequest("POST", "/about/1/contact/", strings.NewReader(body))
			rr := httptest.NewRecorder()

			limited.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRequestTracing(t *testing.T) {
	var captured string
	traced := RequestTracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Get("X-Request-ID")
	}))

	t.Run("generates request ID", func(t *testing.T) {
		rr := httptest.NewRecorder()
		traced.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		responseID := rr.Header().Get("X-Request-ID")
		assert.Len(t, responseID, 16)
		assert.Equal(t, responseID, captured)
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "existing-id-123")
		rr := httptest.NewRecorder()

		traced.ServeHTTP(rr, req)
		assert.Equal(t, "existing-id-123", rr.Header().Get("X-Request-ID"))
	})

	t.Run("unique IDs for different requests", func(t *testing.T) {
		rr1 := httptest.NewRecorder()
		traced.ServeHTTP(rr1, httptest.NewRequest("GET", "/stores/", nil))
		rr2 := httptest.NewRecorder()
		traced.ServeHTTP(rr2, httptest.NewRequest("GET", "/drinks/", nil))

		assert.NotEqual(t, rr1.Header().Get("X-Request-ID"), rr2.Header().Get("X-Request-ID"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		rr := httptest.NewRecorder()
		SecurityHeaders(false)(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
		assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	})

	t.Run("production adds HSTS", func(t *testing.T) {
		rr := httptest.NewRecorder()
		SecurityHeaders(true)(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		assert.Contains(t, rr.Header().Get("Strict-Transport-Security"), "max-age=")
	})
}

func TestAllowedHosts(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		host    string
		want    int
	}{
		{"wildcard", []string{"*"}, "anything.example", http.StatusOK},
		{"exact", []string{"coffeehouse.com"}, "coffeehouse.com", http.StatusOK},
		{"exact with port", []string{"localhost"}, "localhost:8000", http.StatusOK},
		{"case insensitive", []string{"coffeehouse.com"}, "CoffeeHouse.com", http.StatusOK},
		{"subdomain pattern matches domain", []string{".coffeehouse.com"}, "coffeehouse.com", http.StatusOK},
		{"subdomain pattern matches subdomain", []string{".coffeehouse.com"}, "www.coffeehouse.com", http.StatusOK},
		{"not listed", []string{"coffeehouse.com"}, "evil.com", http.StatusBadRequest},
		{"suffix without dot is not a subdomain", []string{".coffeehouse.com"}, "evilcoffeehouse.com", http.StatusBadRequest},
		{"empty list", nil, "coffeehouse.com", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowedHosts(tt.allowed, statusHandler(http.StatusBadRequest), zap.NewNop())(okHandler())
			req := httptest.NewRequest("GET", "/", nil)
			req.Host = tt.host
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		origin  string
		referer string
		want    int
	}{
		{"safe method ignores origin", "GET", "https://evil.com", "", http.StatusOK},
		{"post same origin", "POST", "http://coffeehouse.test", "", http.StatusOK},
		{"post cross origin", "POST", "https://evil.com", "", http.StatusForbidden},
		{"post cross referer", "POST", "", "https://evil.com/form", http.StatusForbidden},
		{"post same referer", "POST", "", "http://coffeehouse.test/about/1/contact/", http.StatusOK},
		{"post without headers", "POST", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := SameOrigin(statusHandler(http.StatusForbidden), zap.NewNop())(okHandler())
			req := httptest.NewRequest(tt.method, "http://coffeehouse.test/about/1/contact/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(statusHandler(http.StatusNotFound))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/about/99/", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Request", entry.Message)
	assert.Equal(t, int64(http.StatusNotFound), entry.ContextMap()["status"])
	assert.Equal(t, "/about/99/", entry.ContextMap()["path"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("spilled the coffee")
	})
	h := Recovery(statusHandler(http.StatusInternalServerError), zap.New(core))(panicky)

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic while serving request").Len())
}

func TestRecoveryAfterResponseStarted(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		panic("spilled the coffee")
	})

	var called bool
	serverError := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server error page"))
	})
	h := Recovery(serverError, zap.New(core))(panicky)

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	})
	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())

	entries := logs.FilterMessage("Panic while serving request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].ContextMap()["response_started"])
}

func TestRecoveryRepanicsAbort(t *testing.T) {
	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	h := Recovery(okHandler(), zap.NewNop())(aborting)

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestMaxBodySizeConstant(t *testing.T) {
	assert.Equal(t, int64(1<<20), int64(MaxBodySize))
}
