package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// 探针路径.
const (
	DefaultLivenessPath  = "/health/live"
	DefaultReadinessPath = "/health/ready"
)

// Middleware 拦截探针路径，其余请求交给 next.
func Middleware(h *Health) func(http.Handler) http.Handler {
	probes := map[string]func(context.Context) Report{
		DefaultLivenessPath:  h.Liveness,
		DefaultReadinessPath: h.Readiness,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probe, ok := probes[r.URL.Path]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Allow", "GET, HEAD")
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			writeReport(w, probe(r.Context()))
		})
	}
}

func writeReport(w http.ResponseWriter, report Report) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	status := http.StatusOK
	if report.Status != StatusUp {
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
