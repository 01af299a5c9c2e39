// Package metrics 采集 HTTP、用例处理、工作单元、领域事件与消息发送的 Prometheus 指标.
package metrics

import (
	"errors"
	"net/http"
	"time"
)

// ErrNilConfig 配置为空.
var ErrNilConfig = errors.New("metrics: 配置为空")

// Config 指标配置.
type Config struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"` // 是否挂载抓取端点
	Path      string `json:"path" yaml:"path" mapstructure:"path"`
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
}

// Collector 指标收集器接口.
type Collector interface {
	// HTTP 指标
	RecordHTTPRequest(method, path, statusCode string, duration time.Duration, requestSize, responseSize float64)
	RecordPanic(method, path string)

	// 业务指标
	RecordRequest(request string, duration time.Duration, err error)
	RecordUnitOfWork(outcome string, duration time.Duration)
	RecordEvent(eventName string, err error)

	// 消息发送指标
	RecordSend(system, topic string, duration time.Duration)
	RecordSendError(system, topic string)

	// Handler
	GetHandler() http.Handler
	GetPath() string
}

// NewMetrics 创建 Prometheus 指标收集器.
func NewMetrics(cfg *Config) (*PrometheusCollector, error) {
	return NewPrometheus(cfg)
}

var _ Collector = (*PrometheusCollector)(nil)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
