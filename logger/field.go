package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field 日志字段.
type Field = zap.Field

func String(key, value string) Field                 { return zap.String(key, value) }
func Int(key string, value int) Field                { return zap.Int(key, value) }
func Int64(key string, value int64) Field            { return zap.Int64(key, value) }
func Bool(key string, value bool) Field              { return zap.Bool(key, value) }
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Err 错误字段，键固定为 error.
func Err(err error) Field { return zap.Error(err) }

// Any 按值的实际类型选择编码方式.
func Any(key string, value any) Field { return zap.Any(key, value) }
