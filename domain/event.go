package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent 领域事件，描述已经发生的事实.
type DomainEvent interface {
	EventID() string
	EventName() string
	OccurredTime() time.Time
}

// BaseEvent 领域事件基类.
type BaseEvent struct {
	id           string
	name         string
	occurredTime time.Time
}

// NewBaseEvent 创建领域事件，自动生成事件 ID 与发生时间.
func NewBaseEvent(name string) BaseEvent {
	return BaseEvent{
		id:           uuid.NewString(),
		name:         name,
		occurredTime: time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() string         { return e.id }
func (e BaseEvent) EventName() string       { return e.name }
func (e BaseEvent) OccurredTime() time.Time { return e.occurredTime }
