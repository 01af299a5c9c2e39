// Package config 基于 viper 把配置解析到结构体.
//
// 优先级从低到高依次为默认值、配置文件、环境变量。目标结构体实现了
// Validate() error 时，解析后会立即校验.
//
//	cfg, err := config.Load[Config]("configs/app.yaml",
//		config.WithEnvPrefix("EMPLOYEE"),
//		config.WithDefaults(map[string]any{"http.addr": ":8080"}),
//	)
package config

import (
	"errors"
	"maps"
	"path/filepath"
	"strings"
)

var (
	ErrFileNotFound = errors.New("config: 配置文件不存在")
	ErrInvalidType  = errors.New("config: 不支持的配置文件类型")
)

// Option 加载选项.
type Option func(*options)

type options struct {
	envPrefix  string
	configType string
	defaults   map[string]any
}

// WithEnvPrefix 设置环境变量前缀，键中的 . 替换为 _，
// 前缀 EMPLOYEE 下 http.addr 对应 EMPLOYEE_HTTP_ADDR.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.envPrefix = prefix }
}

// WithDefaults 设置默认值，键使用点分路径，多次调用时合并.
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[string]any, len(defaults))
		}
		maps.Copy(o.defaults, defaults)
	}
}

// WithConfigType 指定文件类型，不再按扩展名推断.
func WithConfigType(configType string) Option {
	return func(o *options) { o.configType = configType }
}

// TypeOf 按扩展名返回 viper 的配置类型，无法识别时返回空串.
func TypeOf(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".json", ".toml":
		return ext[1:]
	}
	return ""
}
