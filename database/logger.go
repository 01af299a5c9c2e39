package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Tsukikage7/employee-service/logger"
)

var sqlLogLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// sqlLogger 把 GORM 日志写入服务日志.
type sqlLogger struct {
	logger        logger.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newSQLLogger(log logger.Logger, slowThreshold time.Duration, level string) gormlogger.Interface {
	lvl, ok := sqlLogLevels[level]
	if !ok {
		lvl = gormlogger.Warn
	}
	return &sqlLogger{logger: log, slowThreshold: slowThreshold, level: lvl}
}

func (l *sqlLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *sqlLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.WithContext(ctx).Infof(msg, data...)
	}
}

func (l *sqlLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WithContext(ctx).Warnf(msg, data...)
	}
}

func (l *sqlLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.WithContext(ctx).Errorf(msg, data...)
	}
}

// Trace 记录每条 SQL.
//
// 未找到记录和唯一约束冲突由存储层转换为领域错误，这里不按失败记录.
func (l *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	switch {
	case failed && l.level >= gormlogger.Error:
	case slow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	log := l.logger.WithContext(ctx).With(
		logger.Duration("elapsed", elapsed),
		logger.Int64("rows", rows),
		logger.String("sql", sql),
	)
	switch {
	case failed:
		log.With(logger.Err(err)).Error("[Database] SQL执行失败")
	case slow:
		log.With(logger.Duration("threshold", l.slowThreshold)).Warn("[Database] 慢查询")
	default:
		log.Debug("[Database] SQL执行成功")
	}
}
