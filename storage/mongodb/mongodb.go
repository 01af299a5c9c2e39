// Package mongodb 封装 mongo-driver v2 客户端.
//
// 多文档事务需要副本集或分片集群，单节点部署时 URI 需带 replicaSet 参数:
//
//	client, err := mongodb.Connect(ctx, &mongodb.Config{
//		URI:      "mongodb://localhost:27017/?replicaSet=rs0",
//		Database: "employees",
//	}, log)
//	defer client.Close(ctx)
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Tsukikage7/employee-service/logger"
)

var (
	ErrNilConfig     = errors.New("mongodb: 配置为空")
	ErrNilLogger     = errors.New("mongodb: 日志记录器为空")
	ErrEmptyURI      = errors.New("mongodb: URI 为空")
	ErrEmptyDatabase = errors.New("mongodb: 数据库名为空")
)

// Config 连接配置，零值字段使用默认值.
type Config struct {
	URI      string `json:"uri" yaml:"uri" mapstructure:"uri"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`

	ConnectTimeout         time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`                            // 默认 10s
	ServerSelectionTimeout time.Duration `json:"server_selection_timeout" yaml:"server_selection_timeout" mapstructure:"server_selection_timeout"` // 默认 5s
	Timeout                time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`                                                    // 单次操作，默认 30s

	MaxPoolSize     uint64        `json:"max_pool_size" yaml:"max_pool_size" mapstructure:"max_pool_size"`
	MinPoolSize     uint64        `json:"min_pool_size" yaml:"min_pool_size" mapstructure:"min_pool_size"`
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time" yaml:"max_conn_idle_time" mapstructure:"max_conn_idle_time"`

	ReplicaSet string `json:"replica_set" yaml:"replica_set" mapstructure:"replica_set"`
	Direct     bool   `json:"direct" yaml:"direct" mapstructure:"direct"`
}

// Validate 检查必填项.
func (c *Config) Validate() error {
	switch {
	case c.URI == "":
		return ErrEmptyURI
	case c.Database == "":
		return ErrEmptyDatabase
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.ConnectTimeout, 10*time.Second)
	setDefault(&c.ServerSelectionTimeout, 5*time.Second)
	setDefault(&c.Timeout, 30*time.Second)
	setDefault(&c.MaxPoolSize, 100)
	setDefault(&c.MinPoolSize, 5)
	setDefault(&c.MaxConnIdleTime, 10*time.Minute)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func (c *Config) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(c.URI).
		SetConnectTimeout(c.ConnectTimeout).
		SetServerSelectionTimeout(c.ServerSelectionTimeout).
		SetTimeout(c.Timeout).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize).
		SetMaxConnIdleTime(c.MaxConnIdleTime)
	if c.ReplicaSet != "" {
		opts.SetReplicaSet(c.ReplicaSet)
	}
	if c.Direct {
		opts.SetDirect(true)
	}
	return opts
}

// Index 集合索引.
type Index struct {
	Name   string
	Keys   any
	Unique bool
}

func (idx Index) model() mongo.IndexModel {
	opts := options.Index()
	if idx.Name != "" {
		opts.SetName(idx.Name)
	}
	if idx.Unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: idx.Keys, Options: opts}
}

// Client 绑定到单个数据库的客户端.
type Client struct {
	mongo    *mongo.Client
	database string
	logger   logger.Logger
}

// Connect 建立连接并在 ConnectTimeout 内完成一次 Ping.
func Connect(ctx context.Context, config *Config, log logger.Logger) (*Client, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	mc, err := mongo.Connect(config.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("mongodb: 创建客户端失败: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := mc.Ping(pingCtx, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("mongodb: 连接 %s 失败: %w", redact(config.URI), err),
			mc.Disconnect(context.WithoutCancel(ctx)))
	}

	log.With(
		logger.String("uri", redact(config.URI)),
		logger.String("database", config.Database),
	).Info("[MongoDB] 连接成功")
	return &Client{mongo: mc, database: config.Database, logger: log}, nil
}

// redact 隐藏 URI 中的密码.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func (c *Client) Database() *mongo.Database {
	return c.mongo.Database(c.database)
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.Database().Collection(name)
}

// StartSession 开启会话，调用方负责 EndSession.
func (c *Client) StartSession(opts ...options.Lister[options.SessionOptions]) (*mongo.Session, error) {
	return c.mongo.StartSession(opts...)
}

// EnsureIndexes 创建索引，同名同定义的索引已存在时不报错.
func (c *Client) EnsureIndexes(ctx context.Context, collection string, indexes ...Index) error {
	if len(indexes) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, idx.model())
	}

	names, err := c.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongodb: 创建 %s 索引失败: %w", collection, err)
	}
	c.logger.With(logger.String("collection", collection), logger.Any("indexes", names)).
		Debug("[MongoDB] 索引已就绪")
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.mongo.Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("[MongoDB] 断开连接")
	return c.mongo.Disconnect(ctx)
}
