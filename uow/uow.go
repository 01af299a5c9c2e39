// Package uow 提供显式事务边界的工作单元.
//
// 生命周期为 Begin → 仓储操作 → Commit 或 Abort → Dispose.
// 各存储后端只需实现 Driver 与 Tx，状态机由 UnitOfWork 统一维护.
package uow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
)

// ErrInvalidState 在当前状态下不允许该操作.
var ErrInvalidState = errors.New("uow: 工作单元状态无效")

// State 工作单元状态.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateCommitted
	StateAborted
	StateDisposed
)

// String 实现 fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tx 后端事务会话.
type Tx interface {
	// Employees 返回绑定在本会话上的员工仓储.
	Employees() employee.Repository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Close 释放会话资源，由 UnitOfWork 保证只调用一次.
	Close(ctx context.Context)
}

// Driver 后端事务入口.
type Driver interface {
	Begin(ctx context.Context) (Tx, error)
}

// UnitOfWork 工作单元.
//
// 一个实例只属于一次处理调用，不可跨请求共享.
type UnitOfWork struct {
	driver Driver
	opts   *options

	mu      sync.Mutex
	state   State
	outcome State
	tx      Tx
	session *Session
	created time.Time
}

// New 创建工作单元.
func New(driver Driver, opts ...Option) *UnitOfWork {
	return newUnitOfWork(driver, newOptions(opts))
}

func newUnitOfWork(driver Driver, o *options) *UnitOfWork {
	return &UnitOfWork{
		driver:  driver,
		opts:    o,
		state:   StateUnopened,
		outcome: StateUnopened,
		created: time.Now(),
	}
}

// State 返回当前状态.
func (u *UnitOfWork) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Begin 打开事务会话，只能在 Unopened 状态调用.
//
// 后端打开失败时状态保持 Unopened.
func (u *UnitOfWork) Begin(ctx context.Context) (*Session, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateUnopened {
		return nil, invalid("Begin", u.state)
	}

	tx, err := u.driver.Begin(ctx)
	if err != nil {
		return nil, err
	}

	u.tx = tx
	u.state = StateOpen
	u.session = &Session{uow: u}
	u.opts.logger.Debug("[UoW] 事务已开启")
	return u.session, nil
}

// Commit 提交事务，只能在 Open 状态调用.
//
// 提交失败时先回滚，状态变为 Aborted，返回原始提交错误.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateOpen {
		return invalid("Commit", u.state)
	}

	if err := u.tx.Commit(ctx); err != nil {
		u.rollbackLocked(ctx)
		u.state = StateAborted
		u.opts.logger.With(logger.Err(err)).Warn("[UoW] 提交失败，事务已回滚")
		return err
	}

	u.state = StateCommitted
	return nil
}

// Abort 回滚事务.
//
// Aborted 状态下重复调用为空操作，其余非 Open 状态返回 ErrInvalidState.
// 回滚出错时状态仍变为 Aborted，并返回回滚错误.
func (u *UnitOfWork) Abort(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.state {
	case StateAborted:
		return nil
	case StateOpen:
	default:
		return invalid("Abort", u.state)
	}

	err := u.rollbackLocked(ctx)
	u.state = StateAborted
	return err
}

// Dispose 释放会话资源，可重复调用且不会失败.
//
// 仍处于 Open 状态时先回滚. 执行时忽略 ctx 的取消.
func (u *UnitOfWork) Dispose(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateDisposed {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if u.state == StateOpen {
		u.rollbackLocked(ctx)
		u.state = StateAborted
	}
	if u.tx != nil {
		u.tx.Close(ctx)
	}

	u.outcome = u.state
	u.state = StateDisposed
	if u.opts.observer != nil {
		u.opts.observer(u.outcome, time.Since(u.created))
	}
}

// Outcome 返回 Dispose 前的最终状态，未 Dispose 时返回当前状态.
func (u *UnitOfWork) Outcome() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateDisposed {
		return u.outcome
	}
	return u.state
}

// Repository 返回当前会话上的员工仓储，只在 Open 状态可用.
func (u *UnitOfWork) Repository() (employee.Repository, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != StateOpen {
		return nil, invalid("Repository", u.state)
	}
	return u.session.Employees(), nil
}

// rollbackLocked 回滚事务，错误只记录日志. 调用方持有 u.mu.
func (u *UnitOfWork) rollbackLocked(ctx context.Context) error {
	err := u.tx.Rollback(context.WithoutCancel(ctx))
	if err != nil {
		u.opts.logger.With(logger.Err(err)).Error("[UoW] 事务回滚失败")
	}
	return err
}

// openTx 在 Open 状态下返回后端会话.
func (u *UnitOfWork) openTx(op string) (Tx, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != StateOpen {
		return nil, invalid(op, u.state)
	}
	return u.tx, nil
}

func invalid(op string, s State) error {
	return fmt.Errorf("%w: %s 状态下不能执行 %s", ErrInvalidState, s, op)
}
