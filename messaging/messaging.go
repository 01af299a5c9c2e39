// Package messaging 提供消息队列生产者.
//
// 支持 Kafka、RabbitMQ 与 Redis Stream，通过配置切换.
//
// 示例:
//
//	producer, _ := messaging.NewProducer(cfg, messaging.WithProducerLogger(log))
//	defer producer.Close()
//
//	msg, _ := producer.SendMessage(ctx, &messaging.Message{
//	    Topic: "employee-events",
//	    Key:   []byte("42"),
//	    Value: []byte(`{"id": "..."}`),
//	})
package messaging

import (
	"context"
	"time"

	"github.com/Tsukikage7/employee-service/logger"
)

// Producer 生产者接口.
type Producer interface {
	// SendMessage 发送单条消息，返回带有服务端回填信息的消息.
	SendMessage(ctx context.Context, msg *Message) (*Message, error)
	// Ping 检查与服务端的连接.
	Ping(ctx context.Context) error
	// Close 关闭生产者，重复调用是安全的.
	Close() error
}

// Recorder 记录发送指标.
//
// system 为 kafka、rabbitmq 或 redis.
type Recorder interface {
	RecordSend(system, topic string, duration time.Duration)
	RecordSendError(system, topic string)
}

// ProducerOption 生产者配置选项.
type ProducerOption func(*producerOptions)

type producerOptions struct {
	logger   logger.Logger
	recorder Recorder
	tracer   *producerTracer
}

func newProducerOptions(opts []ProducerOption) *producerOptions {
	o := &producerOptions{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithProducerLogger 设置日志记录器.
func WithProducerLogger(log logger.Logger) ProducerOption {
	return func(o *producerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithProducerMetrics 设置指标记录器.
func WithProducerMetrics(recorder Recorder) ProducerOption {
	return func(o *producerOptions) {
		o.recorder = recorder
	}
}

// WithProducerTracing 启用链路追踪.
//
// 使用全局 TracerProvider，追踪上下文写入消息头.
func WithProducerTracing(serviceName string) ProducerOption {
	return func(o *producerOptions) {
		o.tracer = newProducerTracer(serviceName)
	}
}

// NewProducer 根据配置创建生产者.
func NewProducer(cfg *Config, opts ...ProducerOption) (Producer, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch cfg.Type {
	case TypeKafka, "":
		return NewKafkaProducer(cfg, opts...)
	case TypeRabbitMQ:
		return NewRabbitMQProducer(cfg, opts...)
	case TypeRedis:
		return NewRedisProducer(cfg, opts...)
	default:
		return nil, ErrUnsupportedType
	}
}

// instrument 包装一次发送的追踪与指标.
func (o *producerOptions) instrument(
	ctx context.Context,
	system string,
	msg *Message,
	send func(ctx context.Context, headers map[string]string) (*Message, error),
) (*Message, error) {
	start := time.Now()

	headers := make(map[string]string, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}

	finish := func(error) {}
	if o.tracer != nil {
		ctx, finish = o.tracer.start(ctx, system, msg.Topic, headers)
	}

	out, err := send(ctx, headers)
	finish(err)
	o.record(system, msg.Topic, start, err)
	return out, err
}

func (o *producerOptions) record(system, topic string, start time.Time, err error) {
	if o.recorder == nil {
		return
	}
	if err != nil {
		o.recorder.RecordSendError(system, topic)
		return
	}
	o.recorder.RecordSend(system, topic, time.Since(start))
}
