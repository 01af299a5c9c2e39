package app

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/transport"
)

type fakeServer struct {
	name     string
	startErr error

	mu      sync.Mutex
	started bool
	stopped bool
}

func (s *fakeServer) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeServer) Name() string { return s.name }
func (s *fakeServer) Addr() string { return ":0" }

func (s *fakeServer) state() (started, stopped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.stopped
}

var _ transport.Server = (*fakeServer)(nil)

func newLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewWithCore(core), logs
}

func TestNew(t *testing.T) {
	log, _ := newLogger()
	a := New(Logger(log), Config(transport.ApplicationConfig{Name: "employee-service", Version: "2.0.0"}))

	assert.Equal(t, "employee-service", a.Name())
	assert.Equal(t, "2.0.0", a.Version())
	assert.Equal(t, 30*time.Second, a.opts.gracefulTimeout)
	assert.NoError(t, a.Context().Err())

	assert.Panics(t, func() { New() })
}

func TestRun_StopRunsCleanupsInPriorityOrder(t *testing.T) {
	log, logs := newLogger()
	var order []string
	record := func(name string) CleanupFunc {
		return func(ctx context.Context) error {
			assert.NoError(t, ctx.Err())
			order = append(order, name)
			return nil
		}
	}

	srv := &fakeServer{name: "http"}
	a := New(
		Logger(log),
		GracefulTimeout(time.Second),
		RegisterCleanup("logger", record("logger"), PriorityLogger),
		RegisterCleanup("storage", record("storage"), PriorityStorage),
		RegisterCleanup("producer", record("producer"), PriorityProducer),
		RegisterCleanup("storage-index", record("storage-index"), PriorityStorage),
		RegisterCloser("broken", closerFunc(func() error { return errors.New("already closed") }), PriorityTracer),
	).Use(srv)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		started, _ := srv.state()
		return started
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, a.Run(), ErrRunning)

	a.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未返回")
	}

	_, stopped := srv.state()
	assert.True(t, stopped)
	assert.Equal(t, []string{"producer", "storage", "storage-index", "logger"}, order)
	assert.Equal(t, 1, logs.FilterMessage("[App] cleanup failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("[App] stopped").Len())
}

func TestRun_ServerErrorTriggersShutdown(t *testing.T) {
	log, _ := newLogger()
	listenErr := errors.New("listen tcp :8080: bind: address already in use")
	failing := &fakeServer{name: "http", startErr: listenErr}
	other := &fakeServer{name: "admin"}

	cleaned := false
	a := New(
		Logger(log),
		RegisterCleanup("storage", func(context.Context) error { cleaned = true; return nil }, PriorityStorage),
	).Use(failing, other)

	err := a.Run()
	assert.ErrorIs(t, err, listenErr)
	assert.True(t, cleaned)

	_, stopped := other.state()
	assert.True(t, stopped)
}

func TestRun_Signal(t *testing.T) {
	log, logs := newLogger()
	srv := &fakeServer{name: "http"}
	a := New(Logger(log), Signals(syscall.SIGUSR1)).Use(srv)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("[App] starting server").Len() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未返回")
	}
	assert.Equal(t, 1, logs.FilterMessage("[App] received signal").Len())
	assert.Error(t, a.Context().Err())
}

func TestRun_Hooks(t *testing.T) {
	log, _ := newLogger()
	var calls []string
	hook := func(name string) HookFunc {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}

	a := New(
		Logger(log),
		OnAfterStop("flush", hook("after-stop")),
		RegisterHook("drain", PhaseBeforeStop, hook("before-stop")),
		RegisterHook("announce", PhaseAfterStart, hook("after-start")),
		OnBeforeStart("migrate", hook("before-start")),
		OnBeforeStart("warmup", hook("before-start-2")),
	)
	a.Stop()
	require.NoError(t, a.Run())

	assert.Equal(t, []string{"before-start", "before-start-2", "after-start", "before-stop", "after-stop"}, calls)
}

func TestRun_BeforeStartFailure(t *testing.T) {
	log, _ := newLogger()
	sentinel := errors.New("migrate failed")
	srv := &fakeServer{name: "http"}
	cleaned := false

	a := New(
		Logger(log),
		OnBeforeStart("storage", func(context.Context) error { return sentinel }),
		RegisterCleanup("storage", func(context.Context) error { cleaned = true; return nil }, PriorityStorage),
	).Use(srv)

	err := a.Run()
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "before_start 钩子 storage 失败")
	assert.True(t, cleaned)

	started, _ := srv.state()
	assert.False(t, started)
}

func TestCleanup_WithoutRun(t *testing.T) {
	log, logs := newLogger()
	var order []string
	a := New(
		Logger(log),
		RegisterCleanup("storage", func(context.Context) error { order = append(order, "storage"); return nil }, PriorityStorage),
		RegisterCleanup("tracer", func(context.Context) error { order = append(order, "tracer"); return nil }, PriorityTracer),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Cleanup(ctx)

	assert.Equal(t, []string{"storage", "tracer"}, order)
	assert.Equal(t, 2, logs.FilterMessage("[App] cleanup done").Len())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
