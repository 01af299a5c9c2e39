package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// LoggerTestSuite logger 测试套件.
type LoggerTestSuite struct {
	suite.Suite
	tmpDir string
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (s *LoggerTestSuite) SetupTest() {
	s.tmpDir = s.T().TempDir()
}

func (s *LoggerTestSuite) TestApplyDefaults() {
	cfg := &Config{Level: "debug"}
	cfg.applyDefaults()

	s.Equal("debug", cfg.Level, "已设置的字段不被覆盖")
	s.Equal(FormatJSON, cfg.Format)
	s.Equal(OutputConsole, cfg.Output)
	s.Equal("employee-service", cfg.ServiceName)
	s.Equal(100, cfg.MaxSize)
	s.Equal(7, cfg.MaxAge)
	s.Equal("timestamp", cfg.TimeKey)
}

func (s *LoggerTestSuite) TestValidate() {
	tests := []struct {
		name  string
		cfg   *Config
		field string
	}{
		{"nil", nil, "config"},
		{"非法级别", &Config{Level: "verbose"}, "level"},
		{"非法格式", &Config{Format: "xml"}, "format"},
		{"非法输出", &Config{Output: "syslog"}, "output"},
		{"文件输出缺少目录", &Config{Output: OutputFile}, "log_dir"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := tt.cfg.Validate()
			var cfgErr *ConfigError
			s.Require().True(errors.As(err, &cfgErr))
			s.Equal(tt.field, cfgErr.Field)
		})
	}

	s.NoError((&Config{Level: "WARN", Format: "Console"}).Validate())
	s.NoError((&Config{}).Validate(), "空配置使用默认值")
}

func (s *LoggerTestSuite) TestNewLogger_Console() {
	log, err := NewLogger(&Config{Level: "debug", Format: FormatConsole, EnableCaller: true})
	s.Require().NoError(err)
	defer log.Close()

	log.Debug("debug message")
	log.With(String("k", "v")).Infof("hello %s", "world")
}

func (s *LoggerTestSuite) TestNewLogger_FileOutput() {
	log, err := NewLogger(&Config{
		ServiceName: "employee-test",
		Output:      OutputFile,
		LogDir:      s.tmpDir,
	})
	s.Require().NoError(err)

	log.Info("written to file")
	s.Require().NoError(log.Close())

	data, err := os.ReadFile(filepath.Join(s.tmpDir, "employee-test.log"))
	s.Require().NoError(err)
	s.Contains(string(data), "written to file")
	s.Contains(string(data), `"service":"employee-test"`)
}

func (s *LoggerTestSuite) TestNewLogger_InvalidConfig() {
	_, err := NewLogger(&Config{Level: "loud"})
	s.Error(err)

	_, err = NewLogger(nil)
	s.Error(err)
}

func (s *LoggerTestSuite) TestWithContext_TraceFields() {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	ctx := ContextWithTraceID(context.Background(), "trace-1")
	ctx = ContextWithSpanID(ctx, "span-1")
	log.WithContext(ctx).Info("traced")

	s.Require().Equal(1, logs.Len())
	fields := logs.All()[0].ContextMap()
	s.Equal("trace-1", fields["traceId"])
	s.Equal("span-1", fields["spanId"])
}

func (s *LoggerTestSuite) TestWithContext_NoTrace() {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.WithContext(context.Background()).Info("plain")

	s.Require().Equal(1, logs.Len())
	s.Empty(logs.All()[0].Context)
}

func (s *LoggerTestSuite) TestFieldConversion() {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.With(
		String("s", "v"),
		Int("i", 1),
		Int64("i64", 2),
		Bool("b", true),
		Duration("d", time.Second),
		Err(errors.New("boom")),
		Any("m", map[string]int{"a": 1}),
	).Warn("fields")

	s.Require().Equal(1, logs.Len())
	fields := logs.All()[0].ContextMap()
	s.Equal("v", fields["s"])
	s.Equal(int64(1), fields["i"])
	s.Equal(int64(2), fields["i64"])
	s.Equal(true, fields["b"])
	s.Equal(time.Second, fields["d"])
	s.Equal("boom", fields["error"])
}

func (s *LoggerTestSuite) TestNop() {
	log := NewNop()
	log.Info("ignored")
	s.NoError(log.Close())
}
