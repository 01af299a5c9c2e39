package messaging

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// producerTracer 为每次发送创建 producer span，并把追踪上下文写入消息头，
// 下游消费者据此延续同一条链路.
type producerTracer struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

func newProducerTracer(serviceName string) *producerTracer {
	return &producerTracer{
		tracer:     otel.Tracer(serviceName),
		propagator: otel.GetTextMapPropagator(),
	}
}

// start 开始 span 并注入 headers，返回结束 span 的函数.
func (t *producerTracer) start(ctx context.Context, system, topic string, headers map[string]string) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, topic+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String(system),
			semconv.MessagingDestinationNameKey.String(topic),
			semconv.MessagingOperationKey.String("publish"),
		),
	)
	t.propagator.Inject(ctx, propagation.MapCarrier(headers))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
