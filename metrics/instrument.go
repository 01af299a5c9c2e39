package metrics

import (
	"context"
	"time"

	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/endpoint"
	"github.com/Tsukikage7/employee-service/uow"
)

// MediatorBehavior 返回记录命令与查询耗时的管道行为.
func MediatorBehavior(c Collector) cqrs.Behavior {
	return func(request string, next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			c.RecordRequest(request, time.Since(start), err)
			return resp, err
		}
	}
}

// UnitOfWorkObserver 返回记录工作单元最终状态的观察者.
func UnitOfWorkObserver(c Collector) uow.Observer {
	return func(outcome uow.State, elapsed time.Duration) {
		c.RecordUnitOfWork(outcome.String(), elapsed)
	}
}

// InstrumentPublisher 包装事件发布者，记录每次发布的结果.
func InstrumentPublisher(next domain.Publisher, c Collector) domain.Publisher {
	return &instrumentedPublisher{next: next, collector: c}
}

type instrumentedPublisher struct {
	next      domain.Publisher
	collector Collector
}

func (p *instrumentedPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	err := p.next.Publish(ctx, event)
	p.collector.RecordEvent(event.EventName(), err)
	return err
}
