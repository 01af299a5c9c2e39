package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/persistence/memory"
	"github.com/Tsukikage7/employee-service/uow"
)

type HandlersTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	bus      *domain.EventBus
	events   []domain.DomainEvent
	outcomes []uow.State
	mediator *cqrs.Mediator
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.bus = domain.NewEventBus()
	s.events = nil
	s.outcomes = nil
	s.bus.SubscribeAll(func(_ context.Context, e domain.DomainEvent) error {
		s.events = append(s.events, e)
		return nil
	})

	factory := uow.NewFactory(s.store, uow.WithObserver(func(outcome uow.State, _ time.Duration) {
		s.outcomes = append(s.outcomes, outcome)
	}))
	s.mediator = cqrs.New()
	s.Require().NoError(Register(s.mediator, factory, WithPublisher(s.bus)))
}

func (s *HandlersTestSuite) create(cmd CreateEmployeeCommand) (*employee.Employee, error) {
	return cqrs.Send[CreateEmployeeCommand, *employee.Employee](s.ctx, s.mediator, cmd)
}

func (s *HandlersTestSuite) getByID(id employee.ID) *employee.Employee {
	e, err := cqrs.Send[GetEmployeeByIDQuery, *employee.Employee](s.ctx, s.mediator, GetEmployeeByIDQuery{ID: id})
	s.Require().NoError(err)
	return e
}

func (s *HandlersTestSuite) assertDisposedOnce() {
	stats := s.store.Stats()
	s.Equal(stats.Begins, stats.Closes, "每个会话恰好释放一次")
}

var ada = CreateEmployeeCommand{
	Name:    "Ada Lovelace",
	Address: "1 Analytical Engine Way",
	Email:   "ada@example.com",
	Phone:   "555-0100",
}

func (s *HandlersTestSuite) TestCreate() {
	e, err := s.create(ada)
	s.Require().NoError(err)

	s.False(e.IsTransient())
	s.Equal(ada.Name, e.Name().FullName())
	s.Equal(ada.Address, e.Address())
	s.Equal(ada.Email, e.Email())
	s.Equal(ada.Phone, e.Phone())

	s.Require().Len(s.events, 1, "订阅者恰好收到一次事件")
	created, ok := s.events[0].(*employee.CreatedEvent)
	s.Require().True(ok)
	s.Equal(e.ID(), created.Employee().ID())
	s.Equal(employee.CreatedEventName, created.EventName())

	got := s.getByID(e.ID())
	s.Require().NotNil(got)
	s.True(e.SameFields(got))
	s.assertDisposedOnce()
	s.Equal([]uow.State{uow.StateCommitted, uow.StateCommitted}, s.outcomes)
}

func (s *HandlersTestSuite) TestCreate_EchoesNameAsGiven() {
	cmd := ada
	cmd.Name = "  Ada Lovelace "

	e, err := s.create(cmd)
	s.Require().NoError(err)
	s.Equal(cmd.Name, e.Name().FullName())
	s.Equal(cmd.Name, s.getByID(e.ID()).Name().FullName())

	cmd.Name = " " + strings.Repeat("a", employee.MaxNameLength)
	cmd.Email = "long@example.com"
	_, err = s.create(cmd)
	s.True(employee.IsValidationError(err))
}

func (s *HandlersTestSuite) TestCreate_ValidationBeforeStore() {
	tests := []struct {
		name  string
		cmd   CreateEmployeeCommand
		field string
	}{
		{name: "空姓名", cmd: CreateEmployeeCommand{Name: "", Address: "x", Email: "a@b.com"}, field: employee.FieldName},
		{name: "空白姓名", cmd: CreateEmployeeCommand{Name: "   ", Address: "x", Email: "a@b.com"}, field: employee.FieldName},
		{name: "姓名过长", cmd: CreateEmployeeCommand{Name: strings.Repeat("n", 51), Address: "x", Email: "a@b.com"}, field: employee.FieldName},
		{name: "缺少地址", cmd: CreateEmployeeCommand{Name: "Ada", Email: "a@b.com"}, field: employee.FieldAddress},
		{name: "邮箱格式", cmd: CreateEmployeeCommand{Name: "Ada", Address: "x", Email: "nope"}, field: employee.FieldEmail},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.create(tt.cmd)
			s.Require().Error(err)

			var verr *employee.ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tt.field, verr.Errors[0].Field)
		})
	}

	stats := s.store.Stats()
	s.Zero(stats.Begins, "校验失败不开启事务")
	s.Zero(stats.Calls, "校验失败不调用仓储")
	s.Empty(s.events)
}

func (s *HandlersTestSuite) TestCreate_CommitFailure() {
	boom := errors.New("write conflict")
	s.store.FailCommits(boom)

	_, err := s.create(ada)
	s.ErrorIs(err, boom)
	s.Empty(s.events, "提交失败不发布事件")

	s.store.FailCommits(nil)
	list, err := cqrs.Send[GetEmployeeListQuery, []*employee.Employee](s.ctx, s.mediator, GetEmployeeListQuery{})
	s.Require().NoError(err)
	s.Empty(list, "无部分提交")
	s.assertDisposedOnce()
	s.Equal(uow.StateAborted, s.outcomes[0])
}

func (s *HandlersTestSuite) TestCreate_BeginFailure() {
	boom := errors.New("unreachable")
	s.store.FailBegins(boom)

	_, err := s.create(ada)
	s.ErrorIs(err, boom)
	s.Empty(s.events)
	s.Equal([]uow.State{uow.StateUnopened}, s.outcomes)
}

func (s *HandlersTestSuite) TestCreate_DuplicateEmail() {
	_, err := s.create(ada)
	s.Require().NoError(err)

	_, err = s.create(CreateEmployeeCommand{Name: "Other", Address: "x", Email: ada.Email})
	s.ErrorIs(err, employee.ErrDuplicateEmail)
	s.Len(s.events, 1)
	s.assertDisposedOnce()
}

func (s *HandlersTestSuite) TestCreate_PublishFailureKeepsData() {
	s.bus.SubscribeAll(func(context.Context, domain.DomainEvent) error {
		return errors.New("subscriber down")
	})

	e, err := s.create(ada)
	s.Require().NoError(err)
	s.NotNil(s.getByID(e.ID()))
}

func (s *HandlersTestSuite) TestUpdate() {
	e, err := s.create(ada)
	s.Require().NoError(err)

	res, err := cqrs.Send[UpdateEmployeeCommand, UpdateResult](s.ctx, s.mediator, UpdateEmployeeCommand{
		ID:      e.ID(),
		Name:    "Grace Hopper",
		Address: "2 Compiler Rd",
		Email:   "grace@example.com",
	})
	s.Require().NoError(err)
	s.Equal(UpdateResult{ID: e.ID(), Found: true}, res)

	got := s.getByID(e.ID())
	s.Require().NotNil(got)
	s.Equal("Grace Hopper", got.Name().FullName())
	s.Equal("", got.Phone())
	s.Len(s.events, 1, "更新不发布事件")
}

func (s *HandlersTestSuite) TestUpdate_NotFound() {
	res, err := cqrs.Send[UpdateEmployeeCommand, UpdateResult](s.ctx, s.mediator, UpdateEmployeeCommand{
		ID:      "404",
		Name:    "Nobody",
		Address: "x",
		Email:   "nobody@example.com",
	})
	s.Require().NoError(err)
	s.False(res.Found)
	s.Empty(s.events)
	s.Equal(0, s.store.Len())
	s.Equal([]uow.State{uow.StateCommitted}, s.outcomes, "空事务照常提交")
}

func (s *HandlersTestSuite) TestUpdate_Validation() {
	_, err := cqrs.Send[UpdateEmployeeCommand, UpdateResult](s.ctx, s.mediator, UpdateEmployeeCommand{
		ID:      "1",
		Name:    "Ada",
		Address: "x",
		Email:   "bad",
	})
	s.True(employee.IsValidationError(err))
	s.Zero(s.store.Stats().Begins)
}

func (s *HandlersTestSuite) TestDelete() {
	e, err := s.create(ada)
	s.Require().NoError(err)

	n, err := cqrs.Send[DeleteEmployeeCommand, int64](s.ctx, s.mediator, DeleteEmployeeCommand{ID: e.ID()})
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.Nil(s.getByID(e.ID()))

	n, err = cqrs.Send[DeleteEmployeeCommand, int64](s.ctx, s.mediator, DeleteEmployeeCommand{ID: e.ID()})
	s.Require().NoError(err)
	s.Zero(n)
	s.assertDisposedOnce()
}

func (s *HandlersTestSuite) TestGetByID_Absent() {
	s.Nil(s.getByID("12345"))
	s.Nil(s.getByID("garbage"))
}

func (s *HandlersTestSuite) TestGetList() {
	list, err := cqrs.Send[GetEmployeeListQuery, []*employee.Employee](s.ctx, s.mediator, GetEmployeeListQuery{})
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)

	_, err = s.create(ada)
	s.Require().NoError(err)
	_, err = s.create(CreateEmployeeCommand{Name: "Grace", Address: "y", Email: "grace@example.com"})
	s.Require().NoError(err)

	list, err = cqrs.Send[GetEmployeeListQuery, []*employee.Employee](s.ctx, s.mediator, GetEmployeeListQuery{})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(ada.Name, list[0].Name().FullName())
}

func (s *HandlersTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := cqrs.Send[CreateEmployeeCommand, *employee.Employee](ctx, s.mediator, ada)
	s.ErrorIs(err, context.Canceled)
	s.Equal(0, s.store.Len())
	s.assertDisposedOnce()
}

func TestCustomValidator(t *testing.T) {
	store := memory.NewStore()
	reject := employee.ValidatorFunc(func(*employee.Employee) error {
		return employee.NewValidationError(employee.FieldPhone, "Phone is required.")
	})

	h := NewCreateHandler(uow.NewFactory(store), WithValidator(reject))
	_, err := h.Handle(context.Background(), ada)

	var verr *employee.ValidationError
	if !errors.As(err, &verr) || verr.Errors[0].Message != "Phone is required." {
		t.Fatalf("expected custom validation error, got %v", err)
	}
	if store.Stats().Begins != 0 {
		t.Fatalf("store touched on invalid input")
	}
}
