package trace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/employee-service/logger"
)

type TraceTestSuite struct {
	suite.Suite
	recorder *tracetest.SpanRecorder
	provider *sdktrace.TracerProvider
}

func TestTraceSuite(t *testing.T) {
	suite.Run(t, new(TraceTestSuite))
}

func (s *TraceTestSuite) SetupTest() {
	s.recorder = tracetest.NewSpanRecorder()
	s.provider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.recorder))
	otel.SetTracerProvider(s.provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

func (s *TraceTestSuite) TearDownTest() {
	s.NoError(s.provider.Shutdown(context.Background()))
}

func (s *TraceTestSuite) TestHTTPMiddleware_RoutePattern() {
	var traceID, logTraceID string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/employee/{id}", func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceID(r.Context())
		logTraceID, _ = r.Context().Value(logger.TraceIDKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	HTTPMiddleware("employee-service")(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/employee/42", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(traceID)
	s.Equal(traceID, logTraceID)

	spans := s.recorder.Ended()
	s.Require().Len(spans, 1)
	s.Equal("GET /api/employee/{id}", spans[0].Name())
	s.Equal(oteltrace.SpanKindServer, spans[0].SpanKind())
	s.Equal(codes.Unset, spans[0].Status().Code)
}

func (s *TraceTestSuite) TestHTTPMiddleware_ServerError() {
	handler := HTTPMiddleware("employee-service")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/employee", nil))

	spans := s.recorder.Ended()
	s.Require().Len(spans, 1)
	s.Equal("POST /api/employee", spans[0].Name())
	s.Equal(codes.Error, spans[0].Status().Code)
}

func (s *TraceTestSuite) TestHTTPMiddleware_ClientErrorIsNotSpanError() {
	handler := HTTPMiddleware("employee-service")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/employee/9", nil))

	s.Equal(codes.Unset, s.recorder.Ended()[0].Status().Code)
}

func (s *TraceTestSuite) TestHTTPMiddleware_Propagation() {
	parentTraceID := "4bf92f3577b34da6a3ce929d0e0e4736"

	var got string
	handler := HTTPMiddleware("employee-service")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/employee", nil)
	req.Header.Set("traceparent", "00-"+parentTraceID+"-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	s.Equal(parentTraceID, got)
}

func (s *TraceTestSuite) TestBehavior() {
	boom := errors.New("boom")

	ok := Behavior("employee-service")("GetEmployeeListQuery", func(ctx context.Context, _ any) (any, error) {
		s.NotEmpty(SpanID(ctx))
		return "ok", nil
	})
	failing := Behavior("employee-service")("CreateEmployeeCommand", func(context.Context, any) (any, error) {
		return nil, boom
	})

	resp, err := ok(context.Background(), nil)
	s.NoError(err)
	s.Equal("ok", resp)

	_, err = failing(context.Background(), nil)
	s.Same(boom, err)

	spans := s.recorder.Ended()
	s.Require().Len(spans, 2)
	s.Equal("mediator GetEmployeeListQuery", spans[0].Name())
	s.Equal(codes.Unset, spans[0].Status().Code)
	s.Equal("mediator CreateEmployeeCommand", spans[1].Name())
	s.Equal(codes.Error, spans[1].Status().Code)
}

func (s *TraceTestSuite) TestIDsWithoutSpan() {
	s.Empty(TraceID(context.Background()))
	s.Empty(SpanID(context.Background()))
}
