// Package trace 为 HTTP 请求和 mediator 分发创建 span.
package trace

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/transport/http/capture"
)

// HTTPMiddleware 延续请求头中的上游链路并创建服务端 span.
//
// span 标识同时写入 logger 的 context 键，处理器中 log.WithContext(ctx)
// 输出的日志带有 traceId 与 spanId. 路由匹配成功后 span 以路由模式命名.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(parent, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.ServerAddress(r.Host),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.IsValid() {
				ctx = logger.ContextWithTraceID(ctx, sc.TraceID().String())
				ctx = logger.ContextWithSpanID(ctx, sc.SpanID().String())
			}

			cw := capture.Wrap(w)
			req := r.WithContext(ctx)
			next.ServeHTTP(cw, req)

			if req.Pattern != "" {
				span.SetName(req.Pattern)
			}
			status := cw.Status()
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

// TraceID 返回 context 中 span 的 trace ID，没有时返回空串.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID 返回 context 中 span 的 span ID，没有时返回空串.
func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}
