package main

import (
	"errors"

	"github.com/Tsukikage7/employee-service/config"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/messaging"
	"github.com/Tsukikage7/employee-service/metrics"
	"github.com/Tsukikage7/employee-service/persistence"
	"github.com/Tsukikage7/employee-service/tracing"
	"github.com/Tsukikage7/employee-service/transport"
)

// envPrefix 环境变量前缀，EMPLOYEE_HTTP_ADDR 覆盖 http.addr.
const envPrefix = "EMPLOYEE"

// Config 服务配置.
type Config struct {
	App         transport.ApplicationConfig `json:"app" yaml:"app" mapstructure:"app"`
	HTTP        transport.HTTPConfig        `json:"http" yaml:"http" mapstructure:"http"`
	Logger      logger.Config               `json:"logger" yaml:"logger" mapstructure:"logger"`
	Persistence persistence.Config          `json:"persistence" yaml:"persistence" mapstructure:"persistence"`
	Messaging   messaging.Config            `json:"messaging" yaml:"messaging" mapstructure:"messaging"`
	Metrics     metrics.Config              `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Tracing     tracing.Config              `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

// Validate 校验各组件配置.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return errors.New("app.name 不能为空")
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr 不能为空")
	}
	return errors.Join(
		c.Logger.Validate(),
		c.Persistence.Validate(),
		c.Messaging.Validate(),
	)
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":             "employee-service",
		"app.version":          "1.0.0",
		"app.graceful_timeout": "30s",

		"http.name":            "http",
		"http.addr":            ":8080",
		"http.read_timeout":    "15s",
		"http.write_timeout":   "15s",
		"http.idle_timeout":    "60s",
		"http.health_timeout":  "5s",
		"http.request_timeout": "10s",

		"logger.level":  "info",
		"logger.format": logger.FormatJSON,
		"logger.output": logger.OutputConsole,

		"persistence.backend": persistence.BackendMemory,

		"messaging.type":  messaging.TypeKafka,
		"messaging.topic": messaging.DefaultTopic,

		"messaging.retry.max_attempts": 3,
		"messaging.retry.delay":        "200ms",
		"messaging.retry.max_delay":    "2s",
		"messaging.retry.exponential":  true,

		"metrics.enabled":   true,
		"metrics.path":      "/metrics",
		"metrics.namespace": "employee",

		"tracing.sampling_rate": 1.0,
		"tracing.otlp.endpoint": "localhost:4318",
	}
}

// loadConfig 加载配置文件，path 为空时只使用默认值和环境变量.
func loadConfig(path string) (*Config, error) {
	cfg, err := config.Load[Config](path,
		config.WithEnvPrefix(envPrefix),
		config.WithDefaults(defaults()),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Logger.ServiceName == "" {
		cfg.Logger.ServiceName = cfg.App.Name
	}
	return cfg, nil
}
