package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/endpoint"
)

// Behavior 返回为每个命令与查询创建内部 span 的管道行为.
func Behavior(serviceName string) cqrs.Behavior {
	return func(request string, next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			ctx, span := otel.Tracer(serviceName).Start(ctx, "mediator "+request,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attribute.String("mediator.request", request)),
			)
			defer span.End()

			resp, err := next(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return resp, err
		}
	}
}
