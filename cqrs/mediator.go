// Package cqrs 实现进程内的命令与查询分发.
//
// 每种请求类型恰好对应一个处理器，处理器在启动时注册:
//
//	m := cqrs.New(cqrs.WithBehaviors(cqrs.LoggingBehavior(log)))
//	cqrs.MustRegister[CreateOrder, *Order](m, createHandler)
//	order, err := cqrs.Send[CreateOrder, *Order](ctx, m, CreateOrder{...})
package cqrs

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/Tsukikage7/employee-service/endpoint"
)

// 预定义错误.
var (
	// ErrHandlerExists 请求类型已注册处理器.
	ErrHandlerExists = errors.New("cqrs: 处理器已注册")
	// ErrHandlerNotFound 请求类型未注册处理器.
	ErrHandlerNotFound = errors.New("cqrs: 未找到处理器")
	// ErrResultType 处理器返回值类型与调用方不一致.
	ErrResultType = errors.New("cqrs: 返回值类型不匹配")
)

// Handler 请求处理器，Req 为命令或查询.
type Handler[Req, Res any] interface {
	Handle(ctx context.Context, req Req) (Res, error)
}

// HandlerFunc 函数形式的处理器.
type HandlerFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Handle 实现 Handler.
func (f HandlerFunc[Req, Res]) Handle(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

// Mediator 请求分发器.
type Mediator struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]endpoint.Endpoint
	behaviors []Behavior
}

// Option 分发器配置选项.
type Option func(*Mediator)

// WithBehaviors 追加管道行为，先添加的位于外层.
func WithBehaviors(behaviors ...Behavior) Option {
	return func(m *Mediator) {
		m.behaviors = append(m.behaviors, behaviors...)
	}
}

// New 创建分发器.
func New(opts ...Option) *Mediator {
	m := &Mediator{handlers: make(map[reflect.Type]endpoint.Endpoint)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register 注册 Req 类型的处理器.
func Register[Req, Res any](m *Mediator, h Handler[Req, Res]) error {
	t := reflect.TypeFor[Req]()
	name := RequestName(t)

	mws := make([]endpoint.Middleware, 0, len(m.behaviors))
	for _, b := range m.behaviors {
		mws = append(mws, b.bind(name))
	}
	ep := endpoint.Chain(mws...)(func(ctx context.Context, request any) (any, error) {
		return h.Handle(ctx, request.(Req))
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.handlers[t]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, name)
	}
	m.handlers[t] = ep
	return nil
}

// MustRegister 注册处理器，失败时 panic.
func MustRegister[Req, Res any](m *Mediator, h Handler[Req, Res]) {
	if err := Register(m, h); err != nil {
		panic(err)
	}
}

// Send 将请求分发给唯一的处理器.
func Send[Req, Res any](ctx context.Context, m *Mediator, req Req) (Res, error) {
	var zero Res

	t := reflect.TypeFor[Req]()
	m.mu.RLock()
	ep, ok := m.handlers[t]
	m.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrHandlerNotFound, RequestName(t))
	}

	out, err := ep(ctx, req)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	res, ok := out.(Res)
	if !ok {
		return zero, fmt.Errorf("%w: %s 返回 %T", ErrResultType, RequestName(t), out)
	}
	return res, nil
}

// Has 报告 Req 类型是否已注册.
func Has[Req any](m *Mediator) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handlers[reflect.TypeFor[Req]()]
	return ok
}

// RequestName 返回请求类型的名称，用于日志、指标与追踪.
func RequestName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
