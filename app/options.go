package app

import (
	"context"
	"os"
	"time"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/transport"
)

type options struct {
	name            string
	version         string
	logger          logger.Logger
	gracefulTimeout time.Duration
	signals         []os.Signal
	hooks           []Hook
	cleanups        []Cleanup
}

// Option 配置选项.
type Option func(*options)

// Name 设置应用名称.
func Name(name string) Option {
	return func(o *options) { o.name = name }
}

// Version 设置应用版本.
func Version(version string) Option {
	return func(o *options) { o.version = version }
}

// Logger 设置日志记录器（必需）.
func Logger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// GracefulTimeout 设置关闭超时，覆盖停止服务器与执行清理的总时长.
func GracefulTimeout(d time.Duration) Option {
	return func(o *options) { o.gracefulTimeout = d }
}

// Config 从配置设置名称、版本与关闭超时，零值保持默认.
func Config(cfg transport.ApplicationConfig) Option {
	return func(o *options) {
		if cfg.Name != "" {
			o.name = cfg.Name
		}
		if cfg.Version != "" {
			o.version = cfg.Version
		}
		if cfg.GracefulTimeout > 0 {
			o.gracefulTimeout = cfg.GracefulTimeout
		}
	}
}

// Signals 替换默认监听的 SIGINT 与 SIGTERM.
func Signals(signals ...os.Signal) Option {
	return func(o *options) { o.signals = signals }
}

// 清理优先级，数字小的先执行.
//
// 先关闭生产者停止转发事件，再关闭存储，最后刷出 span 和日志.
const (
	PriorityProducer = 10
	PriorityStorage  = 20
	PriorityTracer   = 30
	PriorityLogger   = 100
)

// CleanupFunc 清理函数.
type CleanupFunc func(ctx context.Context) error

// Cleanup 清理任务.
type Cleanup struct {
	Name     string
	Fn       CleanupFunc
	Priority int
}

// RegisterCleanup 注册清理任务.
func RegisterCleanup(name string, fn CleanupFunc, priority int) Option {
	return func(o *options) {
		o.cleanups = append(o.cleanups, Cleanup{Name: name, Fn: fn, Priority: priority})
	}
}

// RegisterCloser 把 Close 注册为清理任务.
func RegisterCloser(name string, closer interface{ Close() error }, priority int) Option {
	return RegisterCleanup(name, func(context.Context) error { return closer.Close() }, priority)
}
