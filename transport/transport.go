// Package transport 定义 app 托管的服务器接口与传输层配置.
package transport

import (
	"context"
	"time"
)

// Server 服务器接口.
type Server interface {
	// Start 阻塞到服务器停止，正常关闭时返回 nil.
	Start(ctx context.Context) error
	// Stop 在 ctx 到期前完成优雅关闭.
	Stop(ctx context.Context) error
	Name() string
	Addr() string
}

// ApplicationConfig 应用配置.
type ApplicationConfig struct {
	Name            string        `json:"name" yaml:"name" mapstructure:"name"`
	Version         string        `json:"version" yaml:"version" mapstructure:"version"`
	GracefulTimeout time.Duration `json:"graceful_timeout" yaml:"graceful_timeout" mapstructure:"graceful_timeout"`
}

// HTTPConfig HTTP 服务器配置.
type HTTPConfig struct {
	Name         string        `json:"name" yaml:"name" mapstructure:"name"`
	Addr         string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// HealthTimeout 单次健康检查的超时时间
	HealthTimeout time.Duration `json:"health_timeout" yaml:"health_timeout" mapstructure:"health_timeout"`
	// RequestTimeout 业务请求的处理超时，0 表示不限
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}
