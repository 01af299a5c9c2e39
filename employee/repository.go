package employee

import "context"

// Repository 员工仓储.
//
// 只能在打开的工作单元内使用，生命周期不超过该工作单元.
type Repository interface {
	// Add 新增员工，存储生成的标识写回 e.
	Add(ctx context.Context, e *Employee) error

	// GetByID 按标识查询，不存在时返回 (nil, nil).
	GetByID(ctx context.Context, id ID) (*Employee, error)

	// GetList 返回全部员工，无数据时返回空切片.
	GetList(ctx context.Context) ([]*Employee, error)

	// Update 按标识整体替换，目标不存在时为静默空操作.
	Update(ctx context.Context, e *Employee) error

	// Delete 按标识删除，返回受影响的数量 (0 或 1).
	Delete(ctx context.Context, id ID) (int64, error)
}
