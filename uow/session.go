package uow

import (
	"context"

	"github.com/Tsukikage7/employee-service/employee"
)

// Session Begin 成功后返回的会话令牌.
//
// 仓储只能经由 Session 获得，工作单元离开 Open 状态后所有调用返回 ErrInvalidState.
type Session struct {
	uow *UnitOfWork
}

// Employees 返回员工仓储视图.
func (s *Session) Employees() employee.Repository {
	return &guardedRepository{uow: s.uow}
}

// guardedRepository 每次调用前检查工作单元状态.
type guardedRepository struct {
	uow *UnitOfWork
}

func (r *guardedRepository) repo(op string) (employee.Repository, error) {
	tx, err := r.uow.openTx(op)
	if err != nil {
		return nil, err
	}
	return tx.Employees(), nil
}

func (r *guardedRepository) Add(ctx context.Context, e *employee.Employee) error {
	repo, err := r.repo("Add")
	if err != nil {
		return err
	}
	return repo.Add(ctx, e)
}

func (r *guardedRepository) GetByID(ctx context.Context, id employee.ID) (*employee.Employee, error) {
	repo, err := r.repo("GetByID")
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

func (r *guardedRepository) GetList(ctx context.Context) ([]*employee.Employee, error) {
	repo, err := r.repo("GetList")
	if err != nil {
		return nil, err
	}
	return repo.GetList(ctx)
}

func (r *guardedRepository) Update(ctx context.Context, e *employee.Employee) error {
	repo, err := r.repo("Update")
	if err != nil {
		return err
	}
	return repo.Update(ctx, e)
}

func (r *guardedRepository) Delete(ctx context.Context, id employee.ID) (int64, error) {
	repo, err := r.repo("Delete")
	if err != nil {
		return 0, err
	}
	return repo.Delete(ctx, id)
}

var _ employee.Repository = (*guardedRepository)(nil)
