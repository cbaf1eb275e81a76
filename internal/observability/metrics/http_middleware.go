package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMetricsMiddleware instruments gateway requests. normalize collapses
// request paths onto a bounded label set so per-project URLs don't blow up
// the label space; nil keeps raw paths.
func HTTPMetricsMiddleware(normalize func(path string) string) func(http.Handler) http.Handler {
	if normalize == nil {
		normalize = func(path string) string { return path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			ObserveHTTPRequest(r.Method, normalize(r.URL.Path), strconv.Itoa(ww.status), time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
