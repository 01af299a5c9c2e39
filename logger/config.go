package logger

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap/zapcore"
)

// 输出格式.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// 输出目标.
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

// Config 日志配置.
type Config struct {
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
	Level       string `json:"level" yaml:"level" mapstructure:"level"` // debug、info、warn、error
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	Output      string `json:"output" yaml:"output" mapstructure:"output"`

	// LogDir Output 为 file 或 both 时必填，文件名为 <service_name>.log
	LogDir     string `json:"log_dir" yaml:"log_dir" mapstructure:"log_dir"`
	MaxSize    int    `json:"max_size" yaml:"max_size" mapstructure:"max_size"` // MB
	MaxAge     int    `json:"max_age" yaml:"max_age" mapstructure:"max_age"`    // 天
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	Compress   bool   `json:"compress" yaml:"compress" mapstructure:"compress"`

	EnableCaller     bool `json:"enable_caller" yaml:"enable_caller" mapstructure:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace" yaml:"enable_stacktrace" mapstructure:"enable_stacktrace"`

	TimeKey    string `json:"time_key" yaml:"time_key" mapstructure:"time_key"`
	MessageKey string `json:"message_key" yaml:"message_key" mapstructure:"message_key"`
}

// ConfigError 配置错误.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("logger: 配置项 %s 无效: %s", e.Field, e.Message)
}

// Validate 校验取值范围，空值视为使用默认值.
func (c *Config) Validate() error {
	if c == nil {
		return &ConfigError{Field: "config", Message: "配置为空"}
	}
	if c.Level != "" {
		if _, err := zapcore.ParseLevel(c.Level); err != nil {
			return &ConfigError{Field: "level", Message: c.Level}
		}
	}
	if c.Format != "" && !oneOf(c.Format, FormatJSON, FormatConsole) {
		return &ConfigError{Field: "format", Message: c.Format}
	}
	if c.Output != "" && !oneOf(c.Output, OutputConsole, OutputFile, OutputBoth) {
		return &ConfigError{Field: "output", Message: c.Output}
	}
	if c.writesFile() && c.LogDir == "" {
		return &ConfigError{Field: "log_dir", Message: "文件输出需要设置日志目录"}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "employee-service"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if c.Output == "" {
		c.Output = OutputConsole
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 7
	}
	if c.TimeKey == "" {
		c.TimeKey = "timestamp"
	}
	if c.MessageKey == "" {
		c.MessageKey = "msg"
	}
}

func (c *Config) writesFile() bool {
	return oneOf(c.Output, OutputFile, OutputBoth)
}

func (c *Config) writesConsole() bool {
	return oneOf(c.Output, OutputConsole, OutputBoth)
}

func oneOf(v string, candidates ...string) bool {
	return slices.Contains(candidates, strings.ToLower(v))
}
