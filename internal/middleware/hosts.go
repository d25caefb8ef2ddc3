package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// AllowedHosts rejects requests whose Host header is not listed. A "*"
// entry allows every host and an entry starting with "." matches the
// domain and all of its subdomains. Rejected requests are answered by
// badRequest.
func AllowedHosts(hosts []string, badRequest http.Handler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := stripPort(r.Host)
			if !hostAllowed(host, hosts) {
				logger.Warn("Invalid Host header", zap.String("host", r.Host), zap.String("path", r.URL.Path))
				badRequest.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, pattern := range allowed {
		pattern = strings.ToLower(pattern)
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

func stripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}

var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// SameOrigin rejects state-changing requests whose Origin (or, failing
// that, Referer) names a different host than the request itself.
// Requests carrying neither header are let through.
func SameOrigin(forbidden http.Handler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethods[r.Method] {
				next.ServeHTTP(w, r)
				return
			}

			source := r.Header.Get("Origin")
			if source == "" {
				source = r.Header.Get("Referer")
			}
			if source == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := url.Parse(source)
			if err != nil || !strings.EqualFold(u.Host, r.Host) {
				logger.Warn("Cross-origin request rejected",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("origin", source))
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
