package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load 读取 path 指向的配置文件，path 为空时只使用默认值和环境变量.
func Load[T any](path string, opts ...Option) (*T, error) {
	o := collect(opts)
	v := o.viper()
	if path == "" {
		return decode[T](v)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	kind := o.configType
	if kind == "" {
		kind = TypeOf(path)
	}
	if kind == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, path)
	}

	v.SetConfigFile(path)
	v.SetConfigType(kind)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: 读取 %s 失败: %w", path, err)
	}
	return decode[T](v)
}

// LoadFromBytes 从内存中的配置内容加载.
func LoadFromBytes[T any](data []byte, configType string, opts ...Option) (*T, error) {
	v := collect(opts).viper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: 读取配置失败: %w", err)
	}
	return decode[T](v)
}

func collect(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// viper 开启 ExperimentalBindStruct，结构体中的字段即使没有出现在文件
// 或默认值里，也能从环境变量取值.
func (o *options) viper() *viper.Viper {
	v := viper.NewWithOptions(
		viper.ExperimentalBindStruct(),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_")),
	)
	for key, value := range o.defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(o.envPrefix)
	v.AutomaticEnv()
	return v
}

func decode[T any](v *viper.Viper) (*T, error) {
	cfg := new(T)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: 解析配置失败: %w", err)
	}
	if c, ok := any(cfg).(interface{ Validate() error }); ok {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("config: 配置校验失败: %w", err)
		}
	}
	return cfg, nil
}
