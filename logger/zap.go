package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type zapLogger struct {
	*zap.SugaredLogger
	base    *zap.Logger
	closers []io.Closer
}

func wrap(zl *zap.Logger, closers []io.Closer) *zapLogger {
	return &zapLogger{SugaredLogger: zl.Sugar(), base: zl, closers: closers}
}

func newZapLogger(config *Config) (Logger, error) {
	level, _ := zapcore.ParseLevel(config.Level)

	var (
		sinks   []zapcore.WriteSyncer
		closers []io.Closer
	)
	if config.writesFile() {
		if err := os.MkdirAll(config.LogDir, 0o755); err != nil {
			return nil, &ConfigError{Field: "log_dir", Message: err.Error()}
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(config.LogDir, config.ServiceName+".log"),
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
		}
		sinks = append(sinks, zapcore.AddSync(rotator))
		closers = append(closers, rotator)
	}
	if config.writesConsole() {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}

	core := zapcore.NewCore(encoder(config), zapcore.NewMultiWriteSyncer(sinks...), level)

	var opts []zap.Option
	if config.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if config.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	zl := zap.New(core, opts...).With(zap.String("service", config.ServiceName))
	return wrap(zl, closers), nil
}

func encoder(config *Config) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = config.TimeKey
	cfg.MessageKey = config.MessageKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(config.Format, FormatConsole) {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func (z *zapLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return z
	}
	return wrap(z.base.With(fields...), z.closers)
}

func (z *zapLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return z
	}
	var fields []Field
	for _, key := range []contextKey{TraceIDKey, SpanIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, String(key.name, v))
		}
	}
	return z.With(fields...)
}

func (z *zapLogger) Sync() error {
	return z.base.Sync()
}

func (z *zapLogger) Close() error {
	// stdout 不支持 fsync，同步错误忽略
	_ = z.base.Sync()

	var errs []error
	for _, c := range z.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
