package domain

import (
	"context"
	"fmt"
	"sync"
)

// EventHandler 事件处理器.
type EventHandler func(ctx context.Context, event DomainEvent) error

// Publisher 领域事件发布者.
type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// matchAll 订阅所有事件时使用的名称.
const matchAll = "*"

type subscription struct {
	eventName string
	handler   EventHandler
}

// EventBus 进程内事件总线.
//
// 处理器按注册顺序同步执行，任一处理器失败即停止并返回该错误.
// 订阅关系通常在启动时注册完毕.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions []subscription
}

// NewEventBus 创建事件总线.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe 订阅指定名称的事件.
func (b *EventBus) Subscribe(eventName string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = append(b.subscriptions, subscription{eventName: eventName, handler: handler})
}

// SubscribeAll 订阅所有事件.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.Subscribe(matchAll, handler)
}

// Publish 发布事件.
func (b *EventBus) Publish(ctx context.Context, event DomainEvent) error {
	b.mu.RLock()
	subs := make([]subscription, len(b.subscriptions))
	copy(subs, b.subscriptions)
	b.mu.RUnlock()

	for i, sub := range subs {
		if sub.eventName != matchAll && sub.eventName != event.EventName() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sub.handler(ctx, event); err != nil {
			return fmt.Errorf("domain: 事件 %s 的第 %d 个订阅者处理失败: %w", event.EventName(), i+1, err)
		}
	}
	return nil
}

// Len 返回订阅数量.
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

var _ Publisher = (*EventBus)(nil)
