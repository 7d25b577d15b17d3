package server

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Router dispatches on METHOD:PATH keys and falls back to prefix mounts.
// Every request is access-logged.
type Router struct {
	mux      *http.ServeMux
	routes   map[string]http.HandlerFunc // key = METHOD:PATH
	paths    map[string]bool
	prefixes []prefixRoute
	log      *slog.Logger
}

type prefixRoute struct {
	prefix  string
	handler http.Handler
}

// NewRouter returns an empty router logging to log.
func NewRouter(log *slog.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]http.HandlerFunc),
		paths:  make(map[string]bool),
		log:    log,
	}
	r.mux.HandleFunc("/", r.dispatch)
	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	if h, ok := r.routes[req.Method+":"+req.URL.Path]; ok {
		h(lrw, req)
	} else if p, ok := r.matchPrefix(req.URL.Path); ok {
		p.handler.ServeHTTP(lrw, req)
	} else if r.paths[req.URL.Path] {
		writeJSON(lrw, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: "method_not_allowed"})
	} else {
		writeJSON(lrw, http.StatusNotFound, errorBody{Error: "not found", Code: "not_found"})
	}

	level := slog.LevelInfo
	if lrw.statusCode >= 500 {
		level = slog.LevelError
	}
	r.log.LogAttrs(req.Context(), level, "request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", lrw.statusCode),
		slog.Duration("duration", time.Since(start)),
	)
}

func (r *Router) matchPrefix(path string) (prefixRoute, bool) {
	for _, p := range r.prefixes {
		if strings.HasPrefix(path, p.prefix) {
			return p, true
		}
	}
	return prefixRoute{}, false
}

// --- Register paths ---
func (r *Router) register(method, path string, handler http.HandlerFunc) {
	r.routes[method+":"+path] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler http.HandlerFunc) {
	r.register(http.MethodGet, path, handler)
}
func (r *Router) POST(path string, handler http.HandlerFunc) {
	r.register(http.MethodPost, path, handler)
}
func (r *Router) PUT(path string, handler http.HandlerFunc) {
	r.register(http.MethodPut, path, handler)
}

// Mount serves every method under prefix with h. Longer prefixes win.
func (r *Router) Mount(prefix string, h http.Handler) {
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, handler: h})
	sort.SliceStable(r.prefixes, func(i, j int) bool { return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix) })
}

// Routes lists registered METHOD:PATH keys in sorted order.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for k := range r.routes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) { r.mux.ServeHTTP(w, req) }

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
