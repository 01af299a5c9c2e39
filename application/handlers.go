// Package application 实现员工用例的命令与查询处理器.
//
// 处理器只负责编排: 校验输入，在工作单元内调用仓储，提交后发布事件.
package application

import (
	"context"

	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/uow"
)

// Option 处理器配置选项.
type Option func(*deps)

// WithValidator 设置校验规则集，默认使用 employee.NewValidator.
func WithValidator(v employee.Validator) Option {
	return func(d *deps) {
		if v != nil {
			d.validator = v
		}
	}
}

// WithPublisher 设置事件发布者，未设置时不发布事件.
func WithPublisher(p domain.Publisher) Option {
	return func(d *deps) {
		d.publisher = p
	}
}

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(d *deps) {
		if log != nil {
			d.log = log
		}
	}
}

type deps struct {
	uow       uow.Factory
	validator employee.Validator
	publisher domain.Publisher
	log       logger.Logger
}

func newDeps(factory uow.Factory, opts ...Option) *deps {
	d := &deps{
		uow:       factory,
		validator: employee.NewValidator(),
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// build 依次经过姓名值对象、工厂与规则集校验，得到待持久化的员工.
func (d *deps) build(name, address, email, phone string) (*employee.Employee, error) {
	n, err := employee.NewName(name)
	if err != nil {
		return nil, err
	}
	e, err := employee.New(n, address, email, phone)
	if err != nil {
		return nil, err
	}
	if err := d.validator.Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (d *deps) aborted(ctx context.Context, op string, err error) {
	d.log.WithContext(ctx).With(
		logger.String("operation", op),
		logger.Err(err),
	).Warn("[Employee] 操作失败，事务已回滚")
}

// Register 将五个员工用例注册到分发器.
func Register(m *cqrs.Mediator, factory uow.Factory, opts ...Option) error {
	d := newDeps(factory, opts...)

	if err := cqrs.Register[CreateEmployeeCommand, *employee.Employee](m, &CreateHandler{d}); err != nil {
		return err
	}
	if err := cqrs.Register[UpdateEmployeeCommand, UpdateResult](m, &UpdateHandler{d}); err != nil {
		return err
	}
	if err := cqrs.Register[DeleteEmployeeCommand, int64](m, &DeleteHandler{d}); err != nil {
		return err
	}
	if err := cqrs.Register[GetEmployeeByIDQuery, *employee.Employee](m, &GetByIDHandler{d}); err != nil {
		return err
	}
	return cqrs.Register[GetEmployeeListQuery, []*employee.Employee](m, &GetListHandler{d})
}

// CreateHandler 创建员工.
type CreateHandler struct{ *deps }

// NewCreateHandler 创建处理器.
func NewCreateHandler(factory uow.Factory, opts ...Option) *CreateHandler {
	return &CreateHandler{newDeps(factory, opts...)}
}

// Handle 校验通过后在事务中新增员工，提交成功后发布 CreatedEvent.
//
// 事件发布失败只记录日志，不影响已提交的数据.
func (h *CreateHandler) Handle(ctx context.Context, cmd CreateEmployeeCommand) (*employee.Employee, error) {
	e, err := h.build(cmd.Name, cmd.Address, cmd.Email, cmd.Phone)
	if err != nil {
		return nil, err
	}

	created, err := uow.Execute(ctx, h.uow, func(ctx context.Context, repo employee.Repository) (*employee.Employee, error) {
		h.log.WithContext(ctx).Debug("[Employee] 新增员工")
		if err := repo.Add(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		h.aborted(ctx, "create", err)
		return nil, err
	}

	h.publish(ctx, employee.NewCreatedEvent(created))
	return created, nil
}

func (h *CreateHandler) publish(ctx context.Context, event domain.DomainEvent) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.log.WithContext(ctx).With(
			logger.String("event", event.EventName()),
			logger.String("event_id", event.EventID()),
			logger.Err(err),
		).Error("[Employee] 事件发布失败")
	}
}

// UpdateHandler 整体替换员工信息.
type UpdateHandler struct{ *deps }

// NewUpdateHandler 创建处理器.
func NewUpdateHandler(factory uow.Factory, opts ...Option) *UpdateHandler {
	return &UpdateHandler{newDeps(factory, opts...)}
}

// Handle 员工不存在时返回 Found 为 false 的结果，空事务照常提交.
func (h *UpdateHandler) Handle(ctx context.Context, cmd UpdateEmployeeCommand) (UpdateResult, error) {
	details, err := h.build(cmd.Name, cmd.Address, cmd.Email, cmd.Phone)
	if err != nil {
		return UpdateResult{}, err
	}

	result, err := uow.Execute(ctx, h.uow, func(ctx context.Context, repo employee.Repository) (UpdateResult, error) {
		h.log.WithContext(ctx).With(logger.String("id", cmd.ID.String())).Debug("[Employee] 更新员工")

		current, err := repo.GetByID(ctx, cmd.ID)
		if err != nil || current == nil {
			return UpdateResult{ID: cmd.ID}, err
		}
		if err := current.UpdateDetails(details.Name(), details.Address(), details.Email(), details.Phone()); err != nil {
			return UpdateResult{}, err
		}
		if err := repo.Update(ctx, current); err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{ID: current.ID(), Found: true}, nil
	})
	if err != nil {
		h.aborted(ctx, "update", err)
		return UpdateResult{}, err
	}
	return result, nil
}

// DeleteHandler 删除员工.
type DeleteHandler struct{ *deps }

// NewDeleteHandler 创建处理器.
func NewDeleteHandler(factory uow.Factory, opts ...Option) *DeleteHandler {
	return &DeleteHandler{newDeps(factory, opts...)}
}

// Handle 返回删除数量，员工不存在时为 0.
func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteEmployeeCommand) (int64, error) {
	n, err := uow.Execute(ctx, h.uow, func(ctx context.Context, repo employee.Repository) (int64, error) {
		h.log.WithContext(ctx).With(logger.String("id", cmd.ID.String())).Debug("[Employee] 删除员工")

		current, err := repo.GetByID(ctx, cmd.ID)
		if err != nil || current == nil {
			return 0, err
		}
		return repo.Delete(ctx, current.ID())
	})
	if err != nil {
		h.aborted(ctx, "delete", err)
		return 0, err
	}
	return n, nil
}

// GetByIDHandler 按标识查询员工.
type GetByIDHandler struct{ *deps }

// NewGetByIDHandler 创建处理器.
func NewGetByIDHandler(factory uow.Factory, opts ...Option) *GetByIDHandler {
	return &GetByIDHandler{newDeps(factory, opts...)}
}

// Handle 员工不存在时返回 nil.
func (h *GetByIDHandler) Handle(ctx context.Context, q GetEmployeeByIDQuery) (*employee.Employee, error) {
	e, err := uow.Execute(ctx, h.uow, func(ctx context.Context, repo employee.Repository) (*employee.Employee, error) {
		return repo.GetByID(ctx, q.ID)
	})
	if err != nil {
		h.aborted(ctx, "get", err)
		return nil, err
	}
	return e, nil
}

// GetListHandler 查询全部员工.
type GetListHandler struct{ *deps }

// NewGetListHandler 创建处理器.
func NewGetListHandler(factory uow.Factory, opts ...Option) *GetListHandler {
	return &GetListHandler{newDeps(factory, opts...)}
}

// Handle 无数据时返回空切片.
func (h *GetListHandler) Handle(ctx context.Context, _ GetEmployeeListQuery) ([]*employee.Employee, error) {
	list, err := uow.Execute(ctx, h.uow, func(ctx context.Context, repo employee.Repository) ([]*employee.Employee, error) {
		return repo.GetList(ctx)
	})
	if err != nil {
		h.aborted(ctx, "list", err)
		return nil, err
	}
	if list == nil {
		list = []*employee.Employee{}
	}
	return list, nil
}

var (
	_ cqrs.Handler[CreateEmployeeCommand, *employee.Employee]  = (*CreateHandler)(nil)
	_ cqrs.Handler[UpdateEmployeeCommand, UpdateResult]        = (*UpdateHandler)(nil)
	_ cqrs.Handler[DeleteEmployeeCommand, int64]               = (*DeleteHandler)(nil)
	_ cqrs.Handler[GetEmployeeByIDQuery, *employee.Employee]   = (*GetByIDHandler)(nil)
	_ cqrs.Handler[GetEmployeeListQuery, []*employee.Employee] = (*GetListHandler)(nil)
)
