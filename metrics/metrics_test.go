package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/uow"
)

func newTestCollector(t *testing.T) *PrometheusCollector {
	t.Helper()
	c, err := NewPrometheus(&Config{Namespace: "test"})
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c *PrometheusCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.GetHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetrics(t *testing.T) {
	c, err := NewMetrics(nil)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrNilConfig)

	c, err = NewMetrics(&Config{Namespace: "test", Path: "/prom"})
	require.NoError(t, err)
	assert.Equal(t, "/prom", c.GetPath())

	c, err = NewMetrics(&Config{})
	require.NoError(t, err)
	assert.Equal(t, "/metrics", c.GetPath())
}

func TestNewPrometheus_RuntimeMetrics(t *testing.T) {
	body := scrape(t, newTestCollector(t))
	assert.Contains(t, body, "go_goroutines")
}

func TestMediatorBehavior(t *testing.T) {
	c := newTestCollector(t)
	boom := errors.New("boom")

	ok := MediatorBehavior(c)("CreateEmployeeCommand", func(context.Context, any) (any, error) {
		return "done", nil
	})
	failing := MediatorBehavior(c)("DeleteEmployeeCommand", func(context.Context, any) (any, error) {
		return nil, boom
	})

	resp, err := ok(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", resp)

	_, err = failing(context.Background(), nil)
	assert.Same(t, boom, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("CreateEmployeeCommand", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("DeleteEmployeeCommand", "error")))
}

func TestUnitOfWorkObserver(t *testing.T) {
	c := newTestCollector(t)
	observe := UnitOfWorkObserver(c)

	observe(uow.StateCommitted, time.Millisecond)
	observe(uow.StateCommitted, time.Millisecond)
	observe(uow.StateAborted, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.uowTotal.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.uowTotal.WithLabelValues("aborted")))
}

func TestInstrumentPublisher(t *testing.T) {
	c := newTestCollector(t)
	bus := domain.NewEventBus()
	boom := errors.New("subscriber down")

	fail := false
	bus.SubscribeAll(func(context.Context, domain.DomainEvent) error {
		if fail {
			return boom
		}
		return nil
	})

	pub := InstrumentPublisher(bus, c)
	event := domain.NewBaseEvent("employee.created")

	require.NoError(t, pub.Publish(context.Background(), event))
	fail = true
	assert.ErrorIs(t, pub.Publish(context.Background(), event), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("employee.created", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("employee.created", "error")))
}

func TestRecordSend(t *testing.T) {
	c := newTestCollector(t)

	c.RecordSend("kafka", "employee-events", time.Millisecond)
	c.RecordSendError("kafka", "employee-events")
	c.RecordSendError("kafka", "employee-events")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.messagesTotal.WithLabelValues("kafka", "employee-events", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.messagesTotal.WithLabelValues("kafka", "employee-events", "error")))
}

func TestRecordPanic(t *testing.T) {
	c := newTestCollector(t)
	c.RecordPanic(http.MethodGet, "/api/employee")

	assert.Contains(t, scrape(t, c), `test_http_panic_total{method="GET",path="/api/employee"} 1`)
}
