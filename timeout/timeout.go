// Package timeout 提供请求级别的超时控制.
//
// HTTP 中间件只给请求 context 设置截止时间，不另起 goroutine，
// 处理器和存储层通过 ctx 感知超时并返回 context.DeadlineExceeded，
// 由统一的错误编码器映射为 504.
//
// 级联超时:
//
//	ctx, cancel := timeout.Cascade(ctx, 2*time.Second)
//	defer cancel()
package timeout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Tsukikage7/employee-service/logger"
)

// ErrInvalidTimeout 超时时间不是正数.
var ErrInvalidTimeout = errors.New("timeout: 超时时间必须大于0")

// Option HTTP 中间件选项.
type Option func(*options)

type options struct {
	logger    logger.Logger
	onTimeout func(r *http.Request, d time.Duration)
}

// WithLogger 记录超时的请求.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithOnTimeout 在超时请求的处理器返回后调用 fn.
func WithOnTimeout(fn func(r *http.Request, d time.Duration)) Option {
	return func(o *options) { o.onTimeout = fn }
}

// Remaining 返回 context 中的剩余超时时间.
//
// 如果 context 没有设置 deadline，返回 0 和 false.
// 如果 deadline 已过，返回负值和 true.
func Remaining(ctx context.Context) (time.Duration, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return time.Until(deadline), true
}

// Cascade 创建级联超时 context.
//
// 父 context 剩余时间更短时保留父 context 的 deadline，
// timeout 非正数时原样返回.
func Cascade(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}

	if remaining, ok := Remaining(ctx); ok && remaining < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// HTTPMiddleware 返回 HTTP 超时中间件，d 非正数时 panic.
func HTTPMiddleware(d time.Duration, opts ...Option) func(http.Handler) http.Handler {
	if d <= 0 {
		panic(ErrInvalidTimeout)
	}
	o := &options{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := Cascade(r.Context(), d)
			defer cancel()

			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return
			}
			o.logger.WithContext(ctx).With(
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Duration("timeout", d),
			).Warn("[Timeout] HTTP请求超时")
			if o.onTimeout != nil {
				o.onTimeout(r, d)
			}
		})
	}
}
