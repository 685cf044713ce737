package web

import (
	"net/http"
	"strings"
)

type route struct {
	method  string // "*" matches any method
	pattern string // trailing "/" makes it a prefix route
	handler http.Handler
}

// Router is a small method-aware mux. Exact patterns win over prefix
// patterns; among prefix patterns the longest wins.
type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

func (rt *Router) Handle(method, pattern string, h http.Handler) {
	rt.routes = append(rt.routes, route{method: method, pattern: pattern, handler: h})
}

func (rt *Router) GET(pattern string, h http.HandlerFunc)    { rt.Handle(http.MethodGet, pattern, h) }
func (rt *Router) POST(pattern string, h http.HandlerFunc)   { rt.Handle(http.MethodPost, pattern, h) }
func (rt *Router) PUT(pattern string, h http.HandlerFunc)    { rt.Handle(http.MethodPut, pattern, h) }
func (rt *Router) DELETE(pattern string, h http.HandlerFunc) { rt.Handle(http.MethodDelete, pattern, h) }

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	var best *route
	pathMatched := false

	for i := range rt.routes {
		rr := &rt.routes[i]
		exact := rr.pattern == path
		prefix := strings.HasSuffix(rr.pattern, "/") && strings.HasPrefix(path, rr.pattern)
		if !exact && !prefix {
			continue
		}
		pathMatched = true
		if rr.method != "*" && rr.method != r.Method {
			continue
		}
		if exact {
			best = rr
			break
		}
		if best == nil || len(rr.pattern) > len(best.pattern) {
			best = rr
		}
	}

	if best == nil {
		if pathMatched {
			FailErr(w, r, ErrMethodNotAllowed)
			return
		}
		FailErr(w, r, ErrNotFound)
		return
	}
	best.handler.ServeHTTP(w, r)
}

// PathTail returns what follows prefix in the request path.
func PathTail(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}
