// Package logger 提供结构化日志.
//
// 调用方只依赖 Logger 接口，字段通过 String、Int、Err 等函数构造，
// 输出由 zap 完成，文件轮转交给 lumberjack.
//
//	log.WithContext(ctx).With(logger.String("id", id)).Info("[Employee] 已创建")
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 日志记录器.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)

	// With 返回附加了字段的子 logger，与父 logger 共享输出.
	With(fields ...Field) Logger
	// WithContext 附加 context 中的 traceId 与 spanId.
	WithContext(ctx context.Context) Logger

	Sync() error
	// Close 刷出缓冲并关闭日志文件.
	Close() error
}

type contextKey struct{ name string }

// 链路信息在 context 中的键，由 trace 中间件写入.
var (
	TraceIDKey = contextKey{"traceId"}
	SpanIDKey  = contextKey{"spanId"}
)

// ContextWithTraceID 将 traceId 写入 context.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// ContextWithSpanID 将 spanId 写入 context.
func ContextWithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// NewLogger 按配置创建 logger，未设置的字段使用默认值.
func NewLogger(config *Config) (Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return newZapLogger(config)
}

// NewWithCore 基于给定的 zapcore.Core 创建 logger，测试中配合 zaptest/observer 使用.
func NewWithCore(core zapcore.Core) Logger {
	return wrap(zap.New(core), nil)
}

// NewNop 返回丢弃所有输出的 logger.
func NewNop() Logger {
	return NewWithCore(zapcore.NewNopCore())
}
