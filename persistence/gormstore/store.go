// Package gormstore 基于 GORM 行事务的员工存储后端.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/uow"
)

// Models 返回需要迁移的表模型.
func Models() []any {
	return []any{&employeeModel{}}
}

// Store 关系库后端.
type Store struct {
	db *gorm.DB
}

// NewStore 创建关系库后端.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Begin 实现 uow.Driver，开启数据库事务.
func (s *Store) Begin(ctx context.Context) (uow.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("gormstore: 开启事务失败: %w", tx.Error)
	}
	return &gormTx{db: tx, repo: &repository{db: tx}}, nil
}

type gormTx struct {
	db   *gorm.DB
	repo *repository
}

func (t *gormTx) Employees() employee.Repository { return t.repo }

func (t *gormTx) Commit(context.Context) error {
	return t.db.Commit().Error
}

func (t *gormTx) Rollback(context.Context) error {
	err := t.db.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}
	return err
}

// Close 连接在 Commit 或 Rollback 时已归还连接池.
func (t *gormTx) Close(context.Context) {}

// repository 事务内的员工仓储.
type repository struct {
	db *gorm.DB
}

func (r *repository) Add(ctx context.Context, e *employee.Employee) error {
	m := toModel(e)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	e.AssignID(FormatID(m.ID))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id employee.ID) (*employee.Employee, error) {
	pk, ok := ParseID(id)
	if !ok {
		return nil, nil
	}

	var m employeeModel
	err := r.db.WithContext(ctx).Where("id = ?", pk).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toDomain()
}

func (r *repository) GetList(ctx context.Context) ([]*employee.Employee, error) {
	var models []employeeModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	list := make([]*employee.Employee, 0, len(models))
	for i := range models {
		e, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, e *employee.Employee) error {
	pk, ok := ParseID(e.ID())
	if !ok {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&employeeModel{}).
		Where("id = ?", pk).
		Updates(map[string]any{
			"name":    e.Name().FullName(),
			"address": e.Address(),
			"email":   e.Email(),
			"phone":   e.Phone(),
		}).Error
	return translate(err)
}

func (r *repository) Delete(ctx context.Context, id employee.ID) (int64, error) {
	pk, ok := ParseID(id)
	if !ok {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Where("id = ?", pk).Delete(&employeeModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("gormstore: %w: %w", employee.ErrDuplicateEmail, err)
	}
	return err
}

var (
	_ uow.Driver          = (*Store)(nil)
	_ employee.Repository = (*repository)(nil)
)
