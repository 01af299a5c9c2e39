package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/persistence"
)

func TestLoadConfig_SampleFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join("..", "..", "configs", "employee-service.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "employee-service", cfg.App.Name)
	assert.Equal(t, 30*time.Second, cfg.App.GracefulTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, persistence.BackendMemory, cfg.Persistence.Backend)
	assert.Equal(t, "sqlite", cfg.Persistence.Database.Driver)
	assert.False(t, cfg.Messaging.Enabled)
	assert.Equal(t, "employee-events", cfg.Messaging.Topic)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "employee-service", cfg.Logger.ServiceName)
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("EMPLOYEE_HTTP_ADDR", ":9090")
	t.Setenv("EMPLOYEE_APP_VERSION", "2.1.0")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "2.1.0", cfg.App.Version)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, persistence.BackendMemory, cfg.Persistence.Backend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("persistence:\n  backend: cassandra\n"), 0o644))

	_, err := loadConfig(path)
	assert.ErrorIs(t, err, persistence.ErrUnsupportedBackend)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild_Memory(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.HTTP.Addr = "127.0.0.1:0"

	core, logs := observer.New(zap.DebugLevel)
	a, err := build(context.Background(), cfg, logger.NewWithCore(core))
	require.NoError(t, err)

	assert.Equal(t, "employee-service", a.Name())
	a.Cleanup(context.Background())
	assert.Equal(t, 3, logs.FilterMessage("[App] cleanup done").Len())
}

func TestBuild_ReleasesOnFailure(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.Persistence.Backend = "cassandra"

	core, logs := observer.New(zap.DebugLevel)
	_, err = build(context.Background(), cfg, logger.NewWithCore(core))
	require.ErrorIs(t, err, persistence.ErrUnsupportedBackend)

	cleaned := logs.FilterMessage("[App] cleanup done").All()
	require.Len(t, cleaned, 1)
	assert.Equal(t, "tracer", cleaned[0].ContextMap()["cleanup"])
}

type flakyStorage struct {
	failures int
	calls    int
}

func (s *flakyStorage) Ping(context.Context) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForStorage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	storage := &flakyStorage{failures: 1}

	err := waitForStorage(storage, logger.NewWithCore(core))(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, storage.calls)
	assert.Equal(t, 1, logs.FilterMessage("[App] 存储未就绪，等待重试").Len())
}

func TestWaitForStorage_Cancelled(t *testing.T) {
	storage := &flakyStorage{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForStorage(storage, logger.NewNop())(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, storage.calls)
}
