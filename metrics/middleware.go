package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Tsukikage7/employee-service/transport/http/capture"
)

// HTTPMiddleware 记录请求数、耗时与请求响应大小.
//
// path 标签取 ServeMux 匹配到的路由模式，如 "GET /api/employee/{id}"，
// 未匹配任何路由时退回原始路径.
func HTTPMiddleware(collector Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			cw := capture.Wrap(w)
			next.ServeHTTP(cw, r)

			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			collector.RecordHTTPRequest(r.Method, path, strconv.Itoa(cw.Status()),
				time.Since(began), float64(max(r.ContentLength, 0)), float64(cw.Size()))
		})
	}
}
