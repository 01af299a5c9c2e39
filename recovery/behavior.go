package recovery

import (
	"context"

	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/endpoint"
	"github.com/Tsukikage7/employee-service/logger"
)

// Behavior 返回中介者 panic 恢复行为.
func Behavior(opts ...Option) cqrs.Behavior {
	o := newOptions(opts)

	return func(request string, next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, req any) (resp any, err error) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}

				var stack []byte
				resp = nil
				stack, err = o.recovered(ctx, p)
				o.logger.WithContext(ctx).With(
					logger.Any("panic", p),
					logger.String("request", request),
					logger.String("stack", string(stack)),
				).Error("[Mediator] panic recovered")
			}()

			return next(ctx, req)
		}
	}
}
