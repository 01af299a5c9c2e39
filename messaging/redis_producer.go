package messaging

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Redis Stream 条目中的保留字段，消息头以 headerPrefix 为前缀写入.
const (
	redisFieldKey   = "key"
	redisFieldValue = "value"
	headerPrefix    = "h:"
)

// RedisProducer Redis Stream 生产者.
//
// 每条消息通过 XADD 追加到以 Topic 命名的 stream.
type RedisProducer struct {
	client redis.UniversalClient
	maxLen int64
	owned  bool
	closed atomic.Bool
	opts   *producerOptions
}

// NewRedisProducer 创建 Redis Stream 生产者并检查连接.
func NewRedisProducer(cfg *Config, opts ...ProducerOption) (*RedisProducer, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		return nil, ErrNoBrokers
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	p := NewRedisProducerFromClient(client, cfg.Redis.MaxLen, opts...)
	p.owned = true

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrCreateClient, err)
	}

	p.opts.logger.Debugf("[Messaging] Redis生产者启动: addr=%s", cfg.Redis.Addr)
	return p, nil
}

// NewRedisProducerFromClient 使用已有客户端创建生产者，Close 不会关闭该客户端.
func NewRedisProducerFromClient(client redis.UniversalClient, maxLen int64, opts ...ProducerOption) *RedisProducer {
	return &RedisProducer{
		client: client,
		maxLen: maxLen,
		opts:   newProducerOptions(opts),
	}
}

// SendMessage 追加消息到 stream，返回的消息携带条目 ID.
func (p *RedisProducer) SendMessage(ctx context.Context, msg *Message) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	return p.opts.instrument(ctx, TypeRedis, msg, func(ctx context.Context, headers map[string]string) (*Message, error) {
		values := make(map[string]any, len(headers)+2)
		values[redisFieldKey] = string(msg.Key)
		values[redisFieldValue] = string(msg.Value)
		for k, v := range headers {
			values[headerPrefix+k] = v
		}

		args := &redis.XAddArgs{
			Stream: msg.Topic,
			Values: values,
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}

		id, err := p.client.XAdd(ctx, args).Result()
		if err != nil {
			return nil, errors.Join(ErrSendMessage, err)
		}

		out := msg.sent(headers)
		out.ID = id
		return out, nil
	})
}

// Ping 检查 Redis 连接.
func (p *RedisProducer) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	return p.client.Ping(ctx).Err()
}

// Close 关闭生产者，重复调用是安全的.
func (p *RedisProducer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if p.owned {
		return p.client.Close()
	}
	return nil
}

var _ Producer = (*RedisProducer)(nil)
