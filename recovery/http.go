package recovery

import (
	"net/http"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/transport/response"
)

// HTTPMiddleware 恢复 panic 后写出统一错误响应.
//
// Handler 返回业务错误时使用其错误码，否则为 500.
// http.ErrAbortHandler 按标准库约定继续向上抛出.
func HTTPMiddleware(opts ...Option) func(http.Handler) http.Handler {
	o := newOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				stack, err := o.recovered(r.Context(), p)
				o.logger.WithContext(r.Context()).With(
					logger.Any("panic", p),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path),
					logger.String("stack", string(stack)),
				).Error("[HTTP] panic recovered")

				if o.recorder != nil {
					path := r.Pattern
					if path == "" {
						path = r.URL.Path
					}
					o.recorder.RecordPanic(r.Method, path)
				}

				if !response.IsBusinessError(err) {
					err = response.Wrap(response.CodeInternal, err)
				}
				_ = response.WriteError(w, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
