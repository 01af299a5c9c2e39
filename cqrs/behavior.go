package cqrs

import (
	"context"
	"time"

	"github.com/Tsukikage7/employee-service/endpoint"
	"github.com/Tsukikage7/employee-service/logger"
)

// Behavior 请求处理管道中的行为，request 为请求类型名.
type Behavior func(request string, next endpoint.Endpoint) endpoint.Endpoint

func (b Behavior) bind(request string) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return b(request, next)
	}
}

// LoggingBehavior 记录每次请求的耗时与结果.
func LoggingBehavior(log logger.Logger) Behavior {
	return func(request string, next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			l := log.WithContext(ctx).With(
				logger.String("request", request),
				logger.Duration("elapsed", time.Since(start)),
			)
			if err != nil {
				l.With(logger.Err(err)).Warn("[Mediator] 请求处理失败")
			} else {
				l.Debug("[Mediator] 请求处理完成")
			}
			return resp, err
		}
	}
}
