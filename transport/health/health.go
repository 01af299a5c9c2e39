// Package health 提供存活与就绪探针.
//
// 存活探针只表示进程能处理请求；就绪探针检查存储后端和消息代理，
// 任一依赖不可用时返回 503，由编排系统摘除流量.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status 探针状态.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// CheckResult 单个依赖的检查结果.
type CheckResult struct {
	Status  Status `json:"status"`
	Kind    string `json:"type,omitempty"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report 一次探针的汇总结果.
type Report struct {
	Status    Status                 `json:"status"`
	CheckedAt time.Time              `json:"checked_at"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker 依赖检查器.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Option 配置选项.
type Option func(*Health)

// WithTimeout 设置单次探针的超时时间.
func WithTimeout(d time.Duration) Option {
	return func(h *Health) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLivenessChecker 添加存活检查器.
func WithLivenessChecker(checkers ...Checker) Option {
	return func(h *Health) { h.liveness = append(h.liveness, checkers...) }
}

// WithReadinessChecker 添加就绪检查器.
func WithReadinessChecker(checkers ...Checker) Option {
	return func(h *Health) { h.readiness = append(h.readiness, checkers...) }
}

// Health 探针管理器，创建后检查器列表不可变.
type Health struct {
	liveness  []Checker
	readiness []Checker
	timeout   time.Duration
}

// New 创建探针管理器，默认超时 5 秒.
func New(opts ...Option) *Health {
	h := &Health{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Liveness 执行存活探针，没有检查器时为 UP.
func (h *Health) Liveness(ctx context.Context) Report {
	return h.probe(ctx, h.liveness)
}

// Readiness 执行就绪探针，没有检查器时为 UP.
func (h *Health) Readiness(ctx context.Context) Report {
	return h.probe(ctx, h.readiness)
}

// probe 并发执行检查器，任一 DOWN 则整体 DOWN.
func (h *Health) probe(ctx context.Context, checkers []Checker) Report {
	report := Report{Status: StatusUp, CheckedAt: time.Now()}
	if len(checkers) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			results[i] = run(ctx, c)
			results[i].Latency = time.Since(start).String()
		}()
	}
	wg.Wait()

	report.Checks = make(map[string]CheckResult, len(checkers))
	for i, c := range checkers {
		report.Checks[c.Name()] = results[i]
		if results[i].Status != StatusUp {
			report.Status = StatusDown
		}
	}
	return report
}

// run 执行检查，panic 视为 DOWN.
func run(ctx context.Context, c Checker) (result CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			result = CheckResult{Status: StatusDown, Error: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return c.Check(ctx)
}
