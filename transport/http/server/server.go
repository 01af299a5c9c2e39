// Package server 提供 HTTP 服务器.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/metrics"
	"github.com/Tsukikage7/employee-service/recovery"
	"github.com/Tsukikage7/employee-service/timeout"
	"github.com/Tsukikage7/employee-service/trace"
	"github.com/Tsukikage7/employee-service/transport"
	"github.com/Tsukikage7/employee-service/transport/health"
)

var _ transport.Server = (*Server)(nil)

// Server HTTP 服务器，内置存活与就绪探针.
type Server struct {
	opts    *options
	handler http.Handler
	health  *health.Health

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New 创建服务器，未设置 logger 时 panic.
//
// 中间件由内到外为 探针、指标、panic 恢复、链路追踪、请求超时.
// 指标和恢复位于路由之外，才能读到 ServeMux 写入的 r.Pattern；
// 超时中间件替换了请求对象，因此放在最外层.
func New(handler http.Handler, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		panic("http server: 必须设置 logger")
	}

	h := health.New(
		health.WithTimeout(o.cfg.HealthTimeout),
		health.WithReadinessChecker(o.checkers...),
	)

	layers := []func(http.Handler) http.Handler{health.Middleware(h)}
	if o.collector != nil {
		layers = append(layers, metrics.HTTPMiddleware(o.collector))
	}
	if o.recovery {
		ropts := []recovery.Option{recovery.WithLogger(o.logger)}
		if o.collector != nil {
			ropts = append(ropts, recovery.WithRecorder(o.collector))
		}
		layers = append(layers, recovery.HTTPMiddleware(ropts...))
	}
	if o.tracerName != "" {
		layers = append(layers, trace.HTTPMiddleware(o.tracerName))
	}
	if o.cfg.RequestTimeout > 0 {
		layers = append(layers, timeout.HTTPMiddleware(o.cfg.RequestTimeout, timeout.WithLogger(o.logger)))
	}

	for _, wrap := range layers {
		handler = wrap(handler)
	}
	return &Server{opts: o, handler: handler, health: h}
}

// Start 监听并处理请求，阻塞直到 Stop 或 ctx 取消.
//
// 监听失败时立即返回错误.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.cfg.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.cfg.ReadTimeout,
		WriteTimeout: s.opts.cfg.WriteTimeout,
		IdleTimeout:  s.opts.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	s.mu.Lock()
	s.server, s.listener = srv, ln
	s.mu.Unlock()

	s.opts.logger.With(
		logger.String("server", s.opts.cfg.Name),
		logger.String("addr", ln.Addr().String()),
	).Info("[HTTP] 服务器启动")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}
	return nil
}

// Stop 优雅停止，等待进行中的请求完成或 ctx 到期.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.opts.logger.With(logger.String("server", s.opts.cfg.Name)).Info("[HTTP] 服务器停止中")
	return srv.Shutdown(ctx)
}

func (s *Server) Name() string {
	return s.opts.cfg.Name
}

// Addr 启动后返回实际监听地址.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.cfg.Addr
}

// Handler 返回包装了全部中间件的 Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Health 返回内置探针.
func (s *Server) Health() *health.Health {
	return s.health
}
