package uow

import (
	"time"

	"github.com/Tsukikage7/employee-service/logger"
)

// Observer 接收工作单元的最终状态与存活时长，每个实例只回调一次.
type Observer func(outcome State, elapsed time.Duration)

// Option 工作单元选项.
type Option func(*options)

type options struct {
	logger   logger.Logger
	observer Observer
}

func newOptions(opts []Option) *options {
	o := &options{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger 记录事务开启与回滚，nil 被忽略.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithObserver 在 Dispose 时回调 observer，用于采集指标.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}
