// Package database 打开关系数据库连接.
//
// 连接通过 GORM 建立，唯一约束冲突统一翻译为 gorm.ErrDuplicatedKey，
// SQL 日志写入服务日志，可选接入 OpenTelemetry.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/Tsukikage7/employee-service/logger"
)

// 支持的驱动.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrNilConfig         = errors.New("database: 配置为空")
	ErrNilLogger         = errors.New("database: 日志记录器为空")
	ErrEmptyDriver       = errors.New("database: 驱动类型为空")
	ErrEmptyDSN          = errors.New("database: 连接字符串为空")
	ErrUnsupportedDriver = errors.New("database: 不支持的驱动类型")
)

// Config 数据库配置.
type Config struct {
	Driver        string        `json:"driver" yaml:"driver" mapstructure:"driver"` // mysql、postgres 或 sqlite
	DSN           string        `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	AutoMigrate   bool          `json:"auto_migrate" yaml:"auto_migrate" mapstructure:"auto_migrate"`
	Pool          PoolConfig    `json:"pool" yaml:"pool" mapstructure:"pool"`
	SlowThreshold time.Duration `json:"slow_threshold" yaml:"slow_threshold" mapstructure:"slow_threshold"`
	LogLevel      string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"` // silent、error、warn 或 info
	EnableTracing bool          `json:"enable_tracing" yaml:"enable_tracing" mapstructure:"enable_tracing"`
}

// PoolConfig 连接池配置.
type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open" mapstructure:"max_open"`
	MaxIdle     int           `json:"max_idle" yaml:"max_idle" mapstructure:"max_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime" mapstructure:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time" mapstructure:"max_idle_time"`
}

// Validate 校验必填项.
func (c *Config) Validate() error {
	switch {
	case c.Driver == "":
		return ErrEmptyDriver
	case c.DSN == "":
		return ErrEmptyDSN
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SlowThreshold == 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.Pool.MaxOpen == 0 {
		c.Pool.MaxOpen = 25
	}
	if c.Pool.MaxIdle == 0 {
		c.Pool.MaxIdle = 5
	}
	if c.Pool.MaxLifetime == 0 {
		c.Pool.MaxLifetime = time.Hour
	}
	if c.Pool.MaxIdleTime == 0 {
		c.Pool.MaxIdleTime = 10 * time.Minute
	}
}

// DB 数据库连接.
type DB struct {
	gorm        *gorm.DB
	autoMigrate bool
	logger      logger.Logger
}

// Open 按配置建立连接，未设置的连接池参数使用默认值.
func Open(config *Config, log logger.Logger) (*DB, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dialector, err := dialect(config.Driver, config.DSN)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newSQLLogger(log, config.SlowThreshold, config.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if config.EnableTracing {
		if err := gdb.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("database: 注册追踪插件失败: %w", err)
		}
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.Pool.MaxOpen)
	sqlDB.SetMaxIdleConns(config.Pool.MaxIdle)
	sqlDB.SetConnMaxLifetime(config.Pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.Pool.MaxIdleTime)

	log.With(logger.String("driver", config.Driver)).Info("[Database] 数据库连接已建立")
	return &DB{gorm: gdb, autoMigrate: config.AutoMigrate, logger: log}, nil
}

func dialect(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres, "postgresql":
		return postgres.Open(dsn), nil
	case DriverSQLite, "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// GORM 返回底层 *gorm.DB，调用方需自行 WithContext.
func (d *DB) GORM() *gorm.DB {
	return d.gorm
}

// Migrate 创建或更新表结构，auto_migrate 关闭时跳过.
func (d *DB) Migrate(models ...any) error {
	if !d.autoMigrate {
		d.logger.Debug("[Database] 自动迁移已禁用，跳过表结构创建")
		return nil
	}
	if err := d.gorm.AutoMigrate(models...); err != nil {
		d.logger.With(logger.Err(err)).Error("[Database] 自动迁移失败")
		return err
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
