// Package subscriber 提供领域事件的订阅者.
package subscriber

import (
	"context"
	"fmt"

	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
)

// Register 在事件总线上注册员工创建事件的日志订阅者.
//
// forwarder 不为 nil 时追加消息转发订阅者，位于日志之后.
func Register(bus *domain.EventBus, log logger.Logger, forwarder *Forwarder) {
	bus.Subscribe(employee.CreatedEventName, Logging(log))
	if forwarder != nil {
		bus.Subscribe(employee.CreatedEventName, forwarder.Handle)
	}
}

// Logging 返回记录员工创建事件的订阅者，其他事件被忽略.
func Logging(log logger.Logger) domain.EventHandler {
	return func(ctx context.Context, event domain.DomainEvent) error {
		created, ok := event.(*employee.CreatedEvent)
		if !ok {
			return nil
		}

		e := created.Employee()
		log.WithContext(ctx).With(
			logger.String("event_id", created.EventID()),
			logger.String("employee_id", e.ID().String()),
		).Info(CreatedMessage(e.Name().FullName()))
		return nil
	}
}

// CreatedMessage 返回员工创建事件的日志文本.
func CreatedMessage(fullName string) string {
	return fmt.Sprintf("Employee Created Event: Employee with the Name '%s' was created.", fullName)
}
