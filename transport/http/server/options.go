package server

import (
	"time"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/metrics"
	"github.com/Tsukikage7/employee-service/transport"
	"github.com/Tsukikage7/employee-service/transport/health"
)

type options struct {
	cfg        transport.HTTPConfig
	logger     logger.Logger
	checkers   []health.Checker
	tracerName string // 为空则不创建 server span
	collector  metrics.Collector
	recovery   bool
}

func defaultOptions() *options {
	return &options{cfg: transport.HTTPConfig{
		Name:          "HTTP",
		Addr:          ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		HealthTimeout: 5 * time.Second,
	}}
}

// Option 配置选项.
type Option func(*options)

// WithConfig 合并配置，零值字段保持默认.
func WithConfig(cfg transport.HTTPConfig) Option {
	return func(o *options) {
		merge(&o.cfg.Name, cfg.Name)
		merge(&o.cfg.Addr, cfg.Addr)
		merge(&o.cfg.ReadTimeout, cfg.ReadTimeout)
		merge(&o.cfg.WriteTimeout, cfg.WriteTimeout)
		merge(&o.cfg.IdleTimeout, cfg.IdleTimeout)
		merge(&o.cfg.HealthTimeout, cfg.HealthTimeout)
		merge(&o.cfg.RequestTimeout, cfg.RequestTimeout)
	}
}

func merge[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// WithName 设置服务器名称.
func WithName(name string) Option {
	return func(o *options) { o.cfg.Name = name }
}

// WithAddr 设置监听地址.
func WithAddr(addr string) Option {
	return func(o *options) { o.cfg.Addr = addr }
}

// WithLogger 设置日志记录器（必需）.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithReadinessChecker 添加就绪检查器，如存储后端与消息代理.
func WithReadinessChecker(checkers ...health.Checker) Option {
	return func(o *options) { o.checkers = append(o.checkers, checkers...) }
}

// WithMetrics 采集请求指标，同时启用恢复时 panic 也计入该收集器.
func WithMetrics(collector metrics.Collector) Option {
	return func(o *options) { o.collector = collector }
}

// WithRecovery 启用 panic 恢复.
func WithRecovery() Option {
	return func(o *options) { o.recovery = true }
}

// WithTrace 为每个请求创建 server span，并把 traceId 写入请求 context，
// log.WithContext(ctx) 会带上该字段.
//
// span 由 tracing.NewTracer 设置的全局 TracerProvider 导出.
func WithTrace(serviceName string) Option {
	return func(o *options) { o.tracerName = serviceName }
}
