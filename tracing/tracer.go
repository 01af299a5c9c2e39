// Package tracing 初始化 OpenTelemetry 链路追踪.
//
// span 通过 OTLP/HTTP 导出到 Collector，W3C traceparent 与 baggage
// 作为全局传播器，HTTP 入口与消息生产者共享同一条链路.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

var (
	ErrNilConfig        = errors.New("tracing: 配置为空")
	ErrEmptyServiceName = errors.New("tracing: 服务名称为空")
	ErrEmptyEndpoint    = errors.New("tracing: OTLP端点为空")
)

// Config 链路追踪配置，默认不启用.
type Config struct {
	Enabled      bool        `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	OTLP         *OTLPConfig `json:"otlp" yaml:"otlp" mapstructure:"otlp"`
	SamplingRate float64     `json:"sampling_rate" yaml:"sampling_rate" mapstructure:"sampling_rate"` // (0, 1]，越界按 1 处理
}

// OTLPConfig Collector 连接配置.
type OTLPConfig struct {
	// Endpoint 可带 http:// 或 https:// 前缀，https 等价于 Secure
	Endpoint string            `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Headers  map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
	Secure   bool              `json:"secure" yaml:"secure" mapstructure:"secure"`
}

// NewTracer 创建 TracerProvider 并设置为全局.
//
// 未启用时返回不导出数据的 TracerProvider，全局设置保持不变，
// 调用方可以无条件地在退出时 Shutdown.
func NewTracer(cfg *Config, serviceName, serviceVersion string) (*sdktrace.TracerProvider, error) {
	switch {
	case cfg == nil:
		return nil, ErrNilConfig
	case !cfg.Enabled:
		return sdktrace.NewTracerProvider(), nil
	case serviceName == "":
		return nil, ErrEmptyServiceName
	case cfg.OTLP == nil || cfg.OTLP.Endpoint == "":
		return nil, ErrEmptyEndpoint
	}

	ctx := context.Background()
	exp, err := otlptracehttp.New(ctx, exporterOptions(cfg.OTLP)...)
	if err != nil {
		return nil, fmt.Errorf("tracing: 创建OTLP导出器失败: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: 创建资源失败: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRate(cfg.SamplingRate)))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func exporterOptions(cfg *OTLPConfig) []otlptracehttp.Option {
	endpoint, secure := cfg.Endpoint, cfg.Secure
	if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = rest, true
	} else {
		endpoint = strings.TrimPrefix(endpoint, "http://")
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if !secure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return opts
}

func samplingRate(rate float64) float64 {
	if rate <= 0 || rate > 1 {
		return 1
	}
	return rate
}
