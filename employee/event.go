package employee

import "github.com/Tsukikage7/employee-service/domain"

// CreatedEventName 员工创建事件名.
const CreatedEventName = "employee.created"

// CreatedEvent 员工已创建.
//
// 携带发布时刻的员工快照，订阅者不得修改.
type CreatedEvent struct {
	domain.BaseEvent

	employee *Employee
}

// NewCreatedEvent 基于已持久化的员工创建事件.
func NewCreatedEvent(e *Employee) *CreatedEvent {
	return &CreatedEvent{
		BaseEvent: domain.NewBaseEvent(CreatedEventName),
		employee:  e.Clone(),
	}
}

// Employee 返回员工快照的副本.
func (e *CreatedEvent) Employee() *Employee {
	return e.employee.Clone()
}

var _ domain.DomainEvent = (*CreatedEvent)(nil)
