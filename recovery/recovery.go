// Package recovery 把 panic 转换为错误.
//
// HTTPMiddleware 兜住路由与编解码中的 panic 并返回 500；
// Behavior 作为中介者管道的最内层，处理器 panic 时返回 *PanicError，
// 外层的日志、指标与追踪行为照常记录这次失败.
package recovery

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Tsukikage7/employee-service/logger"
)

// Handler 把 panic 值转换为返回给调用方的错误，返回 nil 时使用 *PanicError.
type Handler func(ctx context.Context, p any, stack []byte) error

// PanicRecorder 记录 HTTP panic 次数，metrics.Collector 满足该接口.
type PanicRecorder interface {
	RecordPanic(method, path string)
}

type options struct {
	logger    logger.Logger
	handler   Handler
	recorder  PanicRecorder
	stackSize int
}

// Option 配置选项.
type Option func(*options)

// WithLogger 设置日志记录器（必需）.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithHandler 自定义 panic 到错误的转换.
func WithHandler(h Handler) Option {
	return func(o *options) { o.handler = h }
}

// WithRecorder 设置 panic 计数器，只对 HTTP 中间件生效.
func WithRecorder(r PanicRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithStackSize 设置堆栈缓冲区大小，默认 64KB.
func WithStackSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.stackSize = size
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{stackSize: 64 << 10}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		panic("recovery: 日志记录器不能为空")
	}
	return o
}

// recovered 记录堆栈并返回最终的错误.
func (o *options) recovered(ctx context.Context, p any) ([]byte, error) {
	stack := make([]byte, o.stackSize)
	stack = stack[:runtime.Stack(stack, false)]

	if o.handler != nil {
		if err := o.handler(ctx, p, stack); err != nil {
			return stack, err
		}
	}
	return stack, &PanicError{Value: p, Stack: stack}
}

// PanicError 处理器 panic 后返回的错误.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap 在 panic 值本身是 error 时返回它.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
