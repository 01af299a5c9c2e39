// Package app 管理服务进程的生命周期.
//
// Run 启动全部服务器，直到收到信号、调用 Stop 或任一服务器异常退出，
// 随后在关闭超时内停止服务器，并按优先级执行清理任务.
package app

import (
	"cmp"
	"context"
	"errors"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/transport"
)

// ErrRunning 重复调用 Run.
var ErrRunning = errors.New("app: 应用正在运行")

// Application 应用程序.
type Application struct {
	opts   *options
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	servers []transport.Server
	running bool
}

// New 创建应用程序，未设置 logger 时 panic.
func New(opts ...Option) *Application {
	o := &options{
		name:            "employee-service",
		version:         "1.0.0",
		gracefulTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		panic("app: 必须设置 logger")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Application{opts: o, ctx: ctx, cancel: cancel}
}

// Use 注册服务器.
func (a *Application) Use(servers ...transport.Server) *Application {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, servers...)
	return a
}

// Run 运行应用，阻塞直到关闭完成.
//
// 返回启动前钩子或第一个异常退出的服务器的错误，正常关闭时返回 nil.
func (a *Application) Run() error {
	servers, err := a.acquire()
	if err != nil {
		return err
	}
	defer a.release()

	if err := a.runHooks(a.ctx, PhaseBeforeStart); err != nil {
		a.runCleanups(a.ctx)
		return err
	}

	log := a.opts.logger
	log.With(
		logger.String("name", a.opts.name),
		logger.String("version", a.opts.version),
	).Info("[App] starting")

	signals := a.opts.signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	errCh := a.serve(servers)
	if err := a.runHooks(a.ctx, PhaseAfterStart); err != nil {
		log.With(logger.Err(err)).Error("[App] after start hook failed")
	}

	var runErr error
	select {
	case sig := <-sigCh:
		log.With(logger.String("signal", sig.String())).Info("[App] received signal")
	case <-a.ctx.Done():
		log.Info("[App] context cancelled")
	case runErr = <-errCh:
	}
	a.cancel()

	a.shutdown(servers)
	return runErr
}

func (a *Application) acquire() ([]transport.Server, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil, ErrRunning
	}
	a.running = true
	return slices.Clone(a.servers), nil
}

func (a *Application) release() {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// Stop 触发关闭.
func (a *Application) Stop() {
	a.cancel()
}

// Context 应用上下文，关闭开始时取消.
func (a *Application) Context() context.Context {
	return a.ctx
}

func (a *Application) Name() string {
	return a.opts.name
}

func (a *Application) Version() string {
	return a.opts.version
}

// serve 在各自的 goroutine 中启动服务器，异常退出的错误写入返回的 channel.
func (a *Application) serve(servers []transport.Server) <-chan error {
	errCh := make(chan error, len(servers))
	if len(servers) == 0 {
		a.opts.logger.Warn("[App] no servers registered")
	}

	for _, srv := range servers {
		log := a.opts.logger.With(logger.String("server", srv.Name()))
		go func() {
			log.With(logger.String("addr", srv.Addr())).Info("[App] starting server")
			if err := srv.Start(a.ctx); err != nil {
				log.With(logger.Err(err)).Error("[App] server exited")
				errCh <- err
			}
		}()
	}
	return errCh
}

func (a *Application) shutdown(servers []transport.Server) {
	log := a.opts.logger
	log.With(logger.Duration("timeout", a.opts.gracefulTimeout)).Info("[App] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.opts.gracefulTimeout)
	defer cancel()

	if err := a.runHooks(ctx, PhaseBeforeStop); err != nil {
		log.With(logger.Err(err)).Error("[App] before stop hook failed")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, srv := range servers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				srvLog := log.With(logger.String("server", srv.Name()))
				srvLog.Info("[App] stopping server")
				if err := srv.Stop(ctx); err != nil {
					srvLog.With(logger.Err(err)).Error("[App] server stop failed")
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
		log.Info("[App] all servers stopped")
	case <-ctx.Done():
		log.Warn("[App] shutdown timeout")
	}

	a.runCleanups(ctx)
	if err := a.runHooks(context.Background(), PhaseAfterStop); err != nil {
		log.With(logger.Err(err)).Error("[App] after stop hook failed")
	}
	log.Info("[App] stopped")
}

// Cleanup 不经过 Run 直接执行清理任务，用于装配中途失败时释放已打开的资源.
func (a *Application) Cleanup(ctx context.Context) {
	a.runCleanups(ctx)
}

// runCleanups 按优先级执行清理任务，同优先级保持注册顺序.
//
// ctx 的取消信号被忽略，关闭超时后仍要释放连接并刷出日志.
func (a *Application) runCleanups(ctx context.Context) {
	if len(a.opts.cleanups) == 0 {
		return
	}

	cleanups := slices.Clone(a.opts.cleanups)
	slices.SortStableFunc(cleanups, func(x, y Cleanup) int { return cmp.Compare(x.Priority, y.Priority) })

	a.opts.logger.With(logger.Int("count", len(cleanups))).Info("[App] running cleanups")

	ctx = context.WithoutCancel(ctx)
	for _, c := range cleanups {
		log := a.opts.logger.With(logger.String("cleanup", c.Name))
		if err := c.Fn(ctx); err != nil {
			log.With(logger.Err(err)).Error("[App] cleanup failed")
			continue
		}
		log.Info("[App] cleanup done")
	}
}
