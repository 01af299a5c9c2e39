package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/messaging"
	"github.com/Tsukikage7/employee-service/retry"
)

type fakeProducer struct {
	sent     []*messaging.Message
	err      error
	failures int
	calls    int
}

func (p *fakeProducer) SendMessage(_ context.Context, msg *messaging.Message) (*messaging.Message, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.calls <= p.failures {
		return nil, errors.New("leader not available")
	}
	p.sent = append(p.sent, msg)
	return msg, nil
}

func (p *fakeProducer) Ping(context.Context) error { return nil }
func (p *fakeProducer) Close() error               { return nil }

type SubscriberTestSuite struct {
	suite.Suite
	logs     *observer.ObservedLogs
	log      logger.Logger
	producer *fakeProducer
	bus      *domain.EventBus
	event    *employee.CreatedEvent
}

func TestSubscriberSuite(t *testing.T) {
	suite.Run(t, new(SubscriberTestSuite))
}

func (s *SubscriberTestSuite) SetupTest() {
	core, logs := observer.New(zap.DebugLevel)
	s.logs = logs
	s.log = logger.NewWithCore(core)
	s.producer = &fakeProducer{}
	s.bus = domain.NewEventBus()
	s.event = employee.NewCreatedEvent(employee.Restore(
		"7", employee.MustNewName("Ada Lovelace"), "12 St James's Square", "ada@example.com", "555-0100",
	))
}

func (s *SubscriberTestSuite) TestLogging() {
	Register(s.bus, s.log, nil)

	s.Require().NoError(s.bus.Publish(context.Background(), s.event))

	entries := s.logs.FilterMessage("Employee Created Event: Employee with the Name 'Ada Lovelace' was created.").All()
	s.Require().Len(entries, 1)
	s.Equal(zap.InfoLevel, entries[0].Level)
	s.Equal("7", entries[0].ContextMap()["employee_id"])
}

func (s *SubscriberTestSuite) TestLogging_IgnoresOtherEvents() {
	s.NoError(Logging(s.log)(context.Background(), domain.NewBaseEvent("employee.deleted")))
	s.Zero(s.logs.Len())
}

func (s *SubscriberTestSuite) TestForwarder() {
	Register(s.bus, s.log, NewForwarder(s.producer, "hr-events", WithLogger(s.log)))

	s.Require().NoError(s.bus.Publish(context.Background(), s.event))
	s.Require().Len(s.producer.sent, 1)

	msg := s.producer.sent[0]
	s.Equal("hr-events", msg.Topic)
	s.Equal("7", string(msg.Key))
	s.Equal(employee.CreatedEventName, msg.Headers[HeaderEventName])
	s.Equal("application/json", msg.Headers[HeaderContentType])
	s.NotContains(msg.Headers, HeaderTraceID)

	var envelope Envelope
	s.Require().NoError(json.Unmarshal(msg.Value, &envelope))
	s.Equal(s.event.EventID(), envelope.ID)
	s.Equal(employee.CreatedEventName, envelope.Name)
	s.True(s.event.OccurredTime().Equal(envelope.OccurredAt))
	s.Equal(EmployeePayload{
		ID:      "7",
		Name:    "Ada Lovelace",
		Address: "12 St James's Square",
		Email:   "ada@example.com",
		Phone:   "555-0100",
	}, envelope.Employee)

	s.Equal(1, s.logs.FilterMessageSnippet("Employee Created Event").Len(), "日志订阅者先于转发器执行")
}

func (s *SubscriberTestSuite) TestForwarder_DefaultTopic() {
	f := NewForwarder(s.producer, "")

	s.Require().NoError(f.Handle(context.Background(), s.event))
	s.Equal(messaging.DefaultTopic, s.producer.sent[0].Topic)
}

func (s *SubscriberTestSuite) TestForwarder_TraceID() {
	f := NewForwarder(s.producer, "")

	ctx := logger.ContextWithTraceID(context.Background(), "trace-from-logger")
	s.Require().NoError(f.Handle(ctx, s.event))
	s.Equal("trace-from-logger", s.producer.sent[0].Headers[HeaderTraceID])

	traceID := oteltrace.TraceID{0x01, 0x02, 0x03}
	spanCtx := oteltrace.ContextWithSpanContext(ctx, oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  oteltrace.SpanID{0x01},
	}))
	s.Require().NoError(f.Handle(spanCtx, s.event))
	s.Equal(traceID.String(), s.producer.sent[1].Headers[HeaderTraceID])
}

func (s *SubscriberTestSuite) TestForwarder_SendFailure() {
	boom := errors.New("broker down")
	s.producer.err = boom

	err := NewForwarder(s.producer, "").Handle(context.Background(), s.event)

	s.ErrorIs(err, boom)
}

func (s *SubscriberTestSuite) TestForwarder_IgnoresOtherEvents() {
	s.NoError(NewForwarder(s.producer, "").Handle(context.Background(), domain.NewBaseEvent("employee.deleted")))
	s.Empty(s.producer.sent)
}

func (s *SubscriberTestSuite) TestForwarder_RetriesTransientFailures() {
	s.producer.failures = 2
	f := NewForwarder(s.producer, "", WithLogger(s.log),
		WithRetry(retry.Config{MaxAttempts: 3, Delay: time.Millisecond}))

	s.Require().NoError(f.Handle(context.Background(), s.event))
	s.Equal(3, s.producer.calls)
	s.Len(s.producer.sent, 1)
	s.Equal(2, s.logs.FilterMessage("[Subscriber] 事件转发失败，等待重试").Len())
}

func (s *SubscriberTestSuite) TestForwarder_GivesUpAfterMaxAttempts() {
	s.producer.failures = 5
	f := NewForwarder(s.producer, "", WithRetry(retry.Config{MaxAttempts: 2, Delay: time.Millisecond}))

	err := f.Handle(context.Background(), s.event)
	s.ErrorIs(err, retry.ErrMaxAttempts)
	s.Equal(2, s.producer.calls)
}

func (s *SubscriberTestSuite) TestForwarder_DoesNotRetryClosedProducer() {
	s.producer.err = messaging.ErrProducerClosed
	f := NewForwarder(s.producer, "", WithRetry(retry.Config{MaxAttempts: 5, Delay: time.Millisecond}))

	err := f.Handle(context.Background(), s.event)
	s.ErrorIs(err, messaging.ErrProducerClosed)
	s.Equal(1, s.producer.calls)
}
