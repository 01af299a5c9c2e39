package uow

import (
	"context"

	"github.com/Tsukikage7/employee-service/employee"
)

// Factory 工作单元工厂.
type Factory interface {
	New() *UnitOfWork
}

type factory struct {
	driver Driver
	opts   *options
}

// NewFactory 创建工作单元工厂，opts 作用于所有产出的工作单元.
func NewFactory(driver Driver, opts ...Option) Factory {
	return &factory{driver: driver, opts: newOptions(opts)}
}

func (f *factory) New() *UnitOfWork {
	return newUnitOfWork(f.driver, f.opts)
}

// Work 在打开的事务中执行的操作.
type Work[T any] func(ctx context.Context, repo employee.Repository) (T, error)

// Execute 以 Begin → fn → Commit 的顺序执行 fn.
//
// fn 返回错误时回滚并原样返回该错误. 无论结果如何工作单元都会被 Dispose.
func Execute[T any](ctx context.Context, f Factory, fn Work[T]) (T, error) {
	var zero T

	u := f.New()
	defer u.Dispose(ctx)

	session, err := u.Begin(ctx)
	if err != nil {
		return zero, err
	}

	result, err := fn(ctx, session.Employees())
	if err != nil {
		_ = u.Abort(ctx)
		return zero, err
	}

	if err := u.Commit(ctx); err != nil {
		return zero, err
	}
	return result, nil
}
