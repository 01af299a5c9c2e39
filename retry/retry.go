// Package retry 提供带退避的重试机制.
//
// 使用示例:
//
//	p := retry.New(retry.Config{MaxAttempts: 5, Delay: 200 * time.Millisecond, Exponential: true})
//	err := p.Do(ctx, func(ctx context.Context) error {
//	    return producer.Ping(ctx)
//	})
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMaxAttempts 所有尝试均失败，最后一次的错误被一并包装.
var ErrMaxAttempts = errors.New("retry: 已达到最大重试次数")

// 默认配置值.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 100 * time.Millisecond
)

// Config 重试配置.
type Config struct {
	// MaxAttempts 最大尝试次数，包含首次执行
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	// Delay 首次重试前的等待时间
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
	// MaxDelay 单次等待上限，0 表示不限
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
	// Exponential 使用指数退避，默认固定间隔
	Exponential bool `json:"exponential" yaml:"exponential" mapstructure:"exponential"`
}

// BackoffFunc 计算第 attempt 次重试前的等待时间，attempt 从 0 开始.
type BackoffFunc func(attempt int, delay time.Duration) time.Duration

// RetryableFunc 判断错误是否应该重试.
type RetryableFunc func(err error) bool

// FixedBackoff 固定退避策略.
func FixedBackoff(_ int, delay time.Duration) time.Duration {
	return delay
}

// ExponentialBackoff 指数退避策略.
func ExponentialBackoff(attempt int, delay time.Duration) time.Duration {
	return delay * time.Duration(1<<uint(attempt))
}

// LinearBackoff 线性退避策略.
func LinearBackoff(attempt int, delay time.Duration) time.Duration {
	return delay * time.Duration(attempt+1)
}

// AlwaysRetry 总是重试.
func AlwaysRetry(_ error) bool {
	return true
}

// Option 配置选项.
type Option func(*Policy)

// WithBackoff 设置退避策略，覆盖 Config.Exponential.
func WithBackoff(fn BackoffFunc) Option {
	return func(p *Policy) {
		if fn != nil {
			p.backoff = fn
		}
	}
}

// WithRetryable 设置重试判断函数.
func WithRetryable(fn RetryableFunc) Option {
	return func(p *Policy) {
		if fn != nil {
			p.retryable = fn
		}
	}
}

// WithOnRetry 设置每次重试前的回调.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Policy) {
		p.onRetry = fn
	}
}

// Policy 重试策略，可并发使用.
type Policy struct {
	maxAttempts int
	delay       time.Duration
	maxDelay    time.Duration
	backoff     BackoffFunc
	retryable   RetryableFunc
	onRetry     func(attempt int, err error)
}

// New 创建重试策略，零值字段使用默认值.
func New(cfg Config, opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: cfg.MaxAttempts,
		delay:       cfg.Delay,
		maxDelay:    cfg.MaxDelay,
		backoff:     FixedBackoff,
		retryable:   AlwaysRetry,
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = DefaultMaxAttempts
	}
	if p.delay <= 0 {
		p.delay = DefaultDelay
	}
	if cfg.Exponential {
		p.backoff = ExponentialBackoff
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts 返回最大尝试次数.
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Do 执行 fn 直到成功、遇到不可重试的错误或用尽次数.
//
// 用尽次数时返回的错误同时匹配 ErrMaxAttempts 和最后一次的错误.
// 等待期间 ctx 结束时返回 ctx.Err().
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !p.retryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxAttempts-1 {
			if p.onRetry != nil {
				p.onRetry(attempt+1, lastErr)
			}
			timer := time.NewTimer(p.wait(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%w: %w", ErrMaxAttempts, lastErr)
}

func (p *Policy) wait(attempt int) time.Duration {
	d := p.backoff(attempt, p.delay)
	if p.maxDelay > 0 && (d > p.maxDelay || d <= 0) {
		return p.maxDelay
	}
	return d
}
