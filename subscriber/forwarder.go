package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/messaging"
	"github.com/Tsukikage7/employee-service/retry"
)

// 转发消息的消息头.
const (
	HeaderEventName   = "event-name"
	HeaderContentType = "content-type"
	HeaderTraceID     = "trace-id"

	contentTypeJSON = "application/json"
)

// Envelope 转发到消息队列的事件结构.
type Envelope struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Employee   EmployeePayload `json:"employee"`
}

// EmployeePayload 事件中的员工快照.
type EmployeePayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Forwarder 把员工创建事件转发到消息队列.
type Forwarder struct {
	producer messaging.Producer
	topic    string
	logger   logger.Logger
	retry    *retry.Policy
}

// ForwarderOption 转发器配置选项.
type ForwarderOption func(*Forwarder)

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) ForwarderOption {
	return func(f *Forwarder) {
		if log != nil {
			f.logger = log
		}
	}
}

// WithRetry 发送失败时按 cfg 重试.
//
// 生产者已关闭或消息不合法时不重试.
func WithRetry(cfg retry.Config) ForwarderOption {
	return func(f *Forwarder) {
		f.retry = retry.New(cfg,
			retry.WithRetryable(retryable),
			retry.WithOnRetry(func(attempt int, err error) {
				f.logger.With(
					logger.Int("attempt", attempt),
					logger.Err(err),
				).Warn("[Subscriber] 事件转发失败，等待重试")
			}),
		)
	}
}

func retryable(err error) bool {
	return !errors.Is(err, messaging.ErrProducerClosed) &&
		!errors.Is(err, messaging.ErrNilMessage) &&
		!errors.Is(err, messaging.ErrEmptyTopic)
}

// NewForwarder 创建转发器，topic 为空时使用 messaging.DefaultTopic.
func NewForwarder(producer messaging.Producer, topic string, opts ...ForwarderOption) *Forwarder {
	if topic == "" {
		topic = messaging.DefaultTopic
	}
	f := &Forwarder{
		producer: producer,
		topic:    topic,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handle 实现 domain.EventHandler，发送失败时返回错误.
func (f *Forwarder) Handle(ctx context.Context, event domain.DomainEvent) error {
	created, ok := event.(*employee.CreatedEvent)
	if !ok {
		return nil
	}

	msg, err := f.message(ctx, created)
	if err != nil {
		return err
	}

	var sent *messaging.Message
	send := func(ctx context.Context) error {
		var err error
		sent, err = f.producer.SendMessage(ctx, msg)
		return err
	}
	if f.retry != nil {
		err = f.retry.Do(ctx, send)
	} else {
		err = send(ctx)
	}
	if err != nil {
		return fmt.Errorf("subscriber: 转发事件 %s 失败: %w", created.EventID(), err)
	}

	f.logger.WithContext(ctx).With(
		logger.String("event_id", created.EventID()),
		logger.String("topic", sent.Topic),
	).Debug("[Subscriber] 事件已转发")
	return nil
}

func (f *Forwarder) message(ctx context.Context, event *employee.CreatedEvent) (*messaging.Message, error) {
	e := event.Employee()
	body, err := json.Marshal(Envelope{
		ID:         event.EventID(),
		Name:       event.EventName(),
		OccurredAt: event.OccurredTime(),
		Employee: EmployeePayload{
			ID:      e.ID().String(),
			Name:    e.Name().FullName(),
			Address: e.Address(),
			Email:   e.Email(),
			Phone:   e.Phone(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("subscriber: 序列化事件失败: %w", err)
	}

	headers := map[string]string{
		HeaderEventName:   event.EventName(),
		HeaderContentType: contentTypeJSON,
	}
	if traceID := traceIDFromContext(ctx); traceID != "" {
		headers[HeaderTraceID] = traceID
	}

	return &messaging.Message{
		Topic:   f.topic,
		Key:     []byte(e.ID().String()),
		Value:   body,
		Headers: headers,
	}, nil
}

// traceIDFromContext 优先取当前 span，其次取日志上下文中的 traceId.
func traceIDFromContext(ctx context.Context) string {
	if sc := oteltrace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id, ok := ctx.Value(logger.TraceIDKey).(string); ok {
		return id
	}
	return ""
}
