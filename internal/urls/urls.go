// Package urls maps URL patterns to named views and reverses names back
// to paths.
//
// Patterns are grouped into includes. An include contributes a path
// prefix, a namespace and optional extra arguments that are handed to
// every view it matches. Route names are namespaced with ":", so the
// "index" pattern of the "about" include nested under "stores" is named
// "stores:about:index". Several patterns may share a name; Reverse picks
// the one whose variables match the supplied parameters.
package urls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
)

// ErrNoReverseMatch is returned when no route fits a name and parameters
var ErrNoReverseMatch = errors.New("no reverse match")

// Pattern maps one path pattern to a view
type Pattern struct {
	// Path is relative to the enclosing include, e.g. "{store_id:[0-9]+}/"
	Path    string
	Name    string
	View    string
	Methods []string
}

// Include groups patterns under a prefix and namespace
type Include struct {
	Prefix    string
	Namespace string
	Extra     map[string]any
	Patterns  []Pattern
	Includes  []Include
}

// Route is a resolved entry of the route table
type Route struct {
	Name     string
	Path     string
	View     string
	Methods  []string
	Extra    map[string]any
	muxRoute *mux.Route
}

// Router dispatches requests to views and reverses route names
type Router struct {
	mux    *mux.Router
	routes []*Route
	named  map[string][]*Route
}

type extraKey struct{}

// Extra returns the extra arguments of the include that matched r
func Extra(r *http.Request) map[string]any {
	if extra, ok := r.Context().Value(extraKey{}).(map[string]any); ok {
		return extra
	}
	return nil
}

// New builds a router from the root include and binds each pattern to the
// view of the same name in views. Every view a pattern names must exist.
func New(root Include, views map[string]http.Handler) (*Router, error) {
	rt := &Router{
		mux:   mux.NewRouter().StrictSlash(true),
		named: make(map[string][]*Route),
	}

	var flat []*Route
	flatten(root, "/", "", nil, &flat)

	for _, route := range flat {
		view, ok := views[route.View]
		if !ok {
			return nil, fmt.Errorf("route %s: view %q is not registered", route.Name, route.View)
		}

		mr := rt.mux.Handle(route.Path, withExtra(view, route.Extra))
		if len(route.Methods) > 0 {
			mr = mr.Methods(route.Methods...)
		}
		if err := mr.GetError(); err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Name, err)
		}
		route.muxRoute = mr

		rt.routes = append(rt.routes, route)
		rt.named[route.Name] = append(rt.named[route.Name], route)
	}

	if h, ok := views[ViewNotFound]; ok {
		rt.mux.NotFoundHandler = h
	}
	if h, ok := views[ViewMethodNotAllowed]; ok {
		rt.mux.MethodNotAllowedHandler = h
	}
	return rt, nil
}

func flatten(inc Include, prefix, namespace string, extra map[string]any, out *[]*Route) {
	prefix += inc.Prefix
	if inc.Namespace != "" {
		namespace += inc.Namespace + ":"
	}
	merged := make(map[string]any, len(extra)+len(inc.Extra))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range inc.Extra {
		merged[k] = v
	}

	for _, nested := range inc.Includes {
		flatten(nested, prefix, namespace, merged, out)
	}
	for _, p := range inc.Patterns {
		*out = append(*out, &Route{
			Name:    namespace + p.Name,
			Path:    prefix + p.Path,
			View:    p.View,
			Methods: p.Methods,
			Extra:   merged,
		})
	}
}

func withExtra(next http.Handler, extra map[string]any) http.Handler {
	if len(extra) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), extraKey{}, extra)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ServeHTTP dispatches the request to the matching view
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Use appends middleware that runs after a route matched
func (rt *Router) Use(mwf ...mux.MiddlewareFunc) {
	rt.mux.Use(mwf...)
}

// Reverse builds the path of the named route. pairs are alternating
// variable names and values, e.g. Reverse("stores:detail", "store_id", "1").
func (rt *Router) Reverse(name string, pairs ...string) (string, error) {
	candidates, ok := rt.named[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown route %q", ErrNoReverseMatch, name)
	}
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("%w: odd number of parameters for %q", ErrNoReverseMatch, name)
	}

	given := make([]string, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		given = append(given, pairs[i])
	}
	sort.Strings(given)

	for _, route := range candidates {
		vars, err := route.muxRoute.GetVarNames()
		if err != nil {
			continue
		}
		sort.Strings(vars)
		if strings.Join(vars, ",") != strings.Join(given, ",") {
			continue
		}
		u, err := route.muxRoute.URLPath(pairs...)
		if err != nil {
			continue
		}
		return u.Path, nil
	}
	return "", fmt.Errorf("%w: %q with parameters %v", ErrNoReverseMatch, name, pairs)
}

// Routes returns the route table in registration order
func (rt *Router) Routes() []Route {
	out := make([]Route, 0, len(rt.routes))
	for _, r := range rt.routes {
		out = append(out, *r)
	}
	return out
}

// Vars returns the path variables captured for r
func Vars(r *http.Request) map[string]string {
	return mux.Vars(r)
}
