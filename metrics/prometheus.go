package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// sizeBuckets 100B 到 1MB.
var sizeBuckets = prometheus.ExponentialBuckets(100, 10, 5)

// PrometheusCollector 基于独立注册表的收集器，同时导出 Go 运行时与进程指标.
type PrometheusCollector struct {
	path     string
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	panicTotal          *prometheus.CounterVec

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	uowTotal    *prometheus.CounterVec
	uowDuration *prometheus.HistogramVec

	eventsTotal *prometheus.CounterVec

	messagesTotal       *prometheus.CounterVec
	messageSendDuration *prometheus.HistogramVec
}

// metricSet 在同一命名空间内创建指标.
type metricSet struct {
	factory   promauto.Factory
	namespace string
}

func (m metricSet) counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return m.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func (m metricSet) histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return m.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

// NewPrometheus 创建收集器，Namespace 为空时使用 employee.
func NewPrometheus(cfg *Config) (*PrometheusCollector, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "employee"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	m := metricSet{factory: promauto.With(reg), namespace: namespace}

	return &PrometheusCollector{
		path:     cfg.Path,
		registry: reg,

		httpRequestsTotal:   m.counter("http", "requests_total", "Total number of HTTP requests", "method", "path", "status_code"),
		httpRequestDuration: m.histogram("http", "request_duration_seconds", "HTTP request duration in seconds", prometheus.DefBuckets, "method", "path"),
		httpRequestSize:     m.histogram("http", "request_size_bytes", "HTTP request size in bytes", sizeBuckets, "method", "path"),
		httpResponseSize:    m.histogram("http", "response_size_bytes", "HTTP response size in bytes", sizeBuckets, "method", "path"),
		panicTotal:          m.counter("http", "panic_total", "Total number of panics recovered", "method", "path"),

		requestsTotal:   m.counter("mediator", "requests_total", "Total number of commands and queries handled", "request", "status"),
		requestDuration: m.histogram("mediator", "request_duration_seconds", "Command and query handling duration in seconds", prometheus.DefBuckets, "request"),

		uowTotal:    m.counter("uow", "completed_total", "Total number of disposed units of work by outcome", "outcome"),
		uowDuration: m.histogram("uow", "duration_seconds", "Unit of work lifetime in seconds", prometheus.DefBuckets, "outcome"),

		eventsTotal: m.counter("events", "published_total", "Total number of published domain events", "event", "status"),

		messagesTotal:       m.counter("messaging", "messages_sent_total", "Total number of messages sent to the broker", "system", "topic", "status"),
		messageSendDuration: m.histogram("messaging", "send_duration_seconds", "Broker send duration in seconds", prometheus.DefBuckets, "system", "topic"),
	}, nil
}

func (c *PrometheusCollector) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, requestSize, responseSize float64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(requestSize)
	c.httpResponseSize.WithLabelValues(method, path).Observe(responseSize)
}

func (c *PrometheusCollector) RecordPanic(method, path string) {
	c.panicTotal.WithLabelValues(method, path).Inc()
}

func (c *PrometheusCollector) RecordRequest(request string, duration time.Duration, err error) {
	c.requestsTotal.WithLabelValues(request, status(err)).Inc()
	c.requestDuration.WithLabelValues(request).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordUnitOfWork(outcome string, duration time.Duration) {
	c.uowTotal.WithLabelValues(outcome).Inc()
	c.uowDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordEvent(eventName string, err error) {
	c.eventsTotal.WithLabelValues(eventName, status(err)).Inc()
}

func (c *PrometheusCollector) RecordSend(system, topic string, duration time.Duration) {
	c.messagesTotal.WithLabelValues(system, topic, "ok").Inc()
	c.messageSendDuration.WithLabelValues(system, topic).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordSendError(system, topic string) {
	c.messagesTotal.WithLabelValues(system, topic, "error").Inc()
}

// GetHandler 返回抓取端点处理器.
func (c *PrometheusCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetPath 返回抓取端点路径，默认 /metrics.
func (c *PrometheusCollector) GetPath() string {
	if c.path == "" {
		return "/metrics"
	}
	return c.path
}
