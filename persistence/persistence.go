// Package persistence 根据配置选择员工存储后端.
//
// 每次部署只使用一种后端，标识格式随后端确定.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tsukikage7/employee-service/database"
	"github.com/Tsukikage7/employee-service/employee"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/persistence/gormstore"
	"github.com/Tsukikage7/employee-service/persistence/memory"
	"github.com/Tsukikage7/employee-service/persistence/mongostore"
	"github.com/Tsukikage7/employee-service/storage/mongodb"
	"github.com/Tsukikage7/employee-service/uow"
)

// 支持的后端.
const (
	BackendMemory  = "memory"
	BackendGORM    = "gorm"
	BackendMongoDB = "mongodb"
)

// 预定义错误.
var (
	ErrNilConfig          = errors.New("persistence: 配置为空")
	ErrUnsupportedBackend = errors.New("persistence: 不支持的存储后端")
)

// Config 存储配置.
type Config struct {
	// Backend 存储后端: memory, gorm, mongodb
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Database 关系库配置，Backend 为 gorm 时使用
	Database database.Config `json:"database" yaml:"database" mapstructure:"database"`

	// MongoDB 文档库配置，Backend 为 mongodb 时使用
	MongoDB mongodb.Config `json:"mongodb" yaml:"mongodb" mapstructure:"mongodb"`
}

// Validate 验证配置.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendGORM:
		return c.Database.Validate()
	case BackendMongoDB:
		return c.MongoDB.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, c.Backend)
	}
}

// IDPolicy 入站员工标识的格式规则.
type IDPolicy struct {
	valid   func(employee.ID) bool
	message string
}

// Valid 报告标识格式是否合法.
func (p IDPolicy) Valid(id employee.ID) bool { return p.valid(id) }

// Message 返回格式不合法时的提示.
func (p IDPolicy) Message() string { return p.message }

// NumericIDs 正整数标识规则.
var NumericIDs = IDPolicy{
	valid: func(id employee.ID) bool {
		_, ok := gormstore.ParseID(id)
		return ok
	},
	message: "Employee ID must be a positive integer.",
}

// ObjectIDs ObjectID 标识规则.
var ObjectIDs = IDPolicy{
	valid: func(id employee.ID) bool {
		_, ok := mongostore.ParseID(id)
		return ok
	},
	message: "Employee ID must be a valid ObjectID.",
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Backend 已打开的存储后端.
type Backend struct {
	name    string
	driver  uow.Driver
	ids     IDPolicy
	pinger  pinger
	closeFn func(ctx context.Context) error
}

// Name 返回后端名称.
func (b *Backend) Name() string { return b.name }

// Driver 返回工作单元驱动.
func (b *Backend) Driver() uow.Driver { return b.driver }

// IDs 返回标识规则.
func (b *Backend) IDs() IDPolicy { return b.ids }

// Ping 检查后端是否可用.
func (b *Backend) Ping(ctx context.Context) error { return b.pinger.Ping(ctx) }

// Close 关闭后端连接.
func (b *Backend) Close(ctx context.Context) error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn(ctx)
}

// NewMemoryBackend 包装进程内存储.
func NewMemoryBackend(store *memory.Store) *Backend {
	return &Backend{name: BackendMemory, driver: store, ids: NumericIDs, pinger: store}
}

// Open 按配置打开存储后端并完成表结构或索引初始化.
func Open(ctx context.Context, config *Config, log logger.Logger) (*Backend, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	switch config.Backend {
	case BackendMemory:
		log.Warn("[Persistence] 使用内存存储，进程退出后数据丢失")
		return NewMemoryBackend(memory.NewStore()), nil
	case BackendGORM:
		return openGORM(config, log)
	case BackendMongoDB:
		return openMongoDB(ctx, config, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, config.Backend)
	}
}

func openGORM(config *Config, log logger.Logger) (*Backend, error) {
	db, err := database.Open(&config.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormstore.Models()...); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return &Backend{
		name:    BackendGORM,
		driver:  gormstore.NewStore(db.GORM()),
		ids:     NumericIDs,
		pinger:  db,
		closeFn: func(context.Context) error { return db.Close() },
	}, nil
}

func openMongoDB(ctx context.Context, config *Config, log logger.Logger) (*Backend, error) {
	client, err := mongodb.Connect(ctx, &config.MongoDB, log)
	if err != nil {
		return nil, err
	}

	store := mongostore.NewStore(client)
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, errors.Join(err, client.Close(context.WithoutCancel(ctx)))
	}

	return &Backend{
		name:    BackendMongoDB,
		driver:  store,
		ids:     ObjectIDs,
		pinger:  client,
		closeFn: client.Close,
	}, nil
}
