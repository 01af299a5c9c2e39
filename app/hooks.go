package app

import (
	"context"
	"fmt"

	"github.com/Tsukikage7/employee-service/logger"
)

// Phase 生命周期阶段.
type Phase uint8

const (
	// PhaseBeforeStart 启动服务器之前，失败会中止启动.
	PhaseBeforeStart Phase = iota
	// PhaseAfterStart 服务器启动之后.
	PhaseAfterStart
	// PhaseBeforeStop 停止服务器之前.
	PhaseBeforeStop
	// PhaseAfterStop 清理任务完成之后.
	PhaseAfterStop
)

func (p Phase) String() string {
	switch p {
	case PhaseBeforeStart:
		return "before_start"
	case PhaseAfterStart:
		return "after_start"
	case PhaseBeforeStop:
		return "before_stop"
	case PhaseAfterStop:
		return "after_stop"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// HookFunc 钩子函数.
type HookFunc func(ctx context.Context) error

// Hook 生命周期钩子.
type Hook struct {
	Name  string
	Phase Phase
	Fn    HookFunc
}

// OnBeforeStart 注册启动前钩子，如等待存储就绪.
func OnBeforeStart(name string, fn HookFunc) Option {
	return RegisterHook(name, PhaseBeforeStart, fn)
}

// OnAfterStop 注册关闭完成后的钩子.
func OnAfterStop(name string, fn HookFunc) Option {
	return RegisterHook(name, PhaseAfterStop, fn)
}

// RegisterHook 注册指定阶段的钩子，同阶段按注册顺序执行.
func RegisterHook(name string, phase Phase, fn HookFunc) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, Hook{Name: name, Phase: phase, Fn: fn})
	}
}

// runHooks 执行阶段内的钩子，遇到第一个错误即停止.
func (a *Application) runHooks(ctx context.Context, phase Phase) error {
	for _, h := range a.opts.hooks {
		if h.Phase != phase {
			continue
		}
		if err := h.Fn(ctx); err != nil {
			return fmt.Errorf("app: %s 钩子 %s 失败: %w", phase, h.Name, err)
		}
		a.opts.logger.With(
			logger.String("hook", h.Name),
			logger.String("phase", phase.String()),
		).Debug("[App] hook done")
	}
	return nil
}
