package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// exchangeType 交换机类型.
type exchangeType string

const (
	exchangeDirect  exchangeType = "direct"
	exchangeFanout  exchangeType = "fanout"
	exchangeTopic   exchangeType = "topic"
	exchangeHeaders exchangeType = "headers"
)

func (t exchangeType) valid() bool {
	switch t {
	case exchangeDirect, exchangeFanout, exchangeTopic, exchangeHeaders:
		return true
	}
	return false
}

// rabbitMQSettings 从配置解析出的生产者参数.
type rabbitMQSettings struct {
	exchange       string
	exchangeType   exchangeType
	durable        bool
	confirm        bool
	reconnectDelay time.Duration
	maxRetries     int
}

func newRabbitMQSettings(cfg *Config) (rabbitMQSettings, error) {
	s := rabbitMQSettings{
		exchangeType: exchangeDirect,
		durable:      true,
		confirm:      true,
	}
	if cfg.URL == "" {
		return s, ErrNoBrokers
	}

	if rc := cfg.RabbitMQ; rc != nil {
		s.exchange = rc.Exchange
		if rc.ExchangeType != "" {
			s.exchangeType = exchangeType(rc.ExchangeType)
		}
		s.durable = rc.Durable
		s.confirm = rc.Confirm
		s.reconnectDelay = rc.ReconnectDelay
		s.maxRetries = rc.MaxRetries
	}

	if !s.exchangeType.valid() {
		return s, fmt.Errorf("%w: 交换机类型 %q 无效", ErrCreateProducer, s.exchangeType)
	}
	return s, nil
}

// RabbitMQProducer RabbitMQ 生产者.
//
// Topic 作为 routing key 发送到配置的交换机，启用 confirm 时等待 broker 确认.
// 连接断开后自动重连并重建 channel.
type RabbitMQProducer struct {
	link     *rabbitLink
	channel  *amqp.Channel
	confirms chan amqp.Confirmation
	mu       sync.RWMutex
	sendMu   sync.Mutex
	closed   atomic.Bool

	settings rabbitMQSettings
	opts     *producerOptions
}

// NewRabbitMQProducer 创建 RabbitMQ 生产者.
func NewRabbitMQProducer(cfg *Config, opts ...ProducerOption) (*RabbitMQProducer, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	settings, err := newRabbitMQSettings(cfg)
	if err != nil {
		return nil, err
	}

	p := &RabbitMQProducer{
		settings: settings,
		opts:     newProducerOptions(opts),
	}
	if p.link, err = dialRabbit(cfg.URL, settings, p.opts.logger, p.openChannel); err != nil {
		return nil, err
	}
	return p, nil
}

// openChannel 在新连接上声明交换机并替换当前 channel.
func (p *RabbitMQProducer) openChannel(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCreateProducer, err)
	}

	if s := p.settings; s.exchange != "" {
		if err := ch.ExchangeDeclare(s.exchange, string(s.exchangeType), s.durable, false, false, false, nil); err != nil {
			_ = ch.Close()
			return fmt.Errorf("%w: 声明交换机失败: %v", ErrCreateProducer, err)
		}
	}

	var confirms chan amqp.Confirmation
	if p.settings.confirm {
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return fmt.Errorf("%w: 启用发布确认失败: %v", ErrCreateProducer, err)
		}
		confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	}

	p.mu.Lock()
	old := p.channel
	p.channel, p.confirms = ch, confirms
	p.mu.Unlock()

	if old != nil {
		_ = old.Close()
		p.opts.logger.Info("[Messaging] RabbitMQ channel 重建成功")
	}
	return nil
}

// SendMessage 发送消息，Topic 作为 routing key.
func (p *RabbitMQProducer) SendMessage(ctx context.Context, msg *Message) (*Message, error) {
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	return p.opts.instrument(ctx, TypeRabbitMQ, msg, func(ctx context.Context, headers map[string]string) (*Message, error) {
		p.mu.RLock()
		ch, confirms := p.channel, p.confirms
		p.mu.RUnlock()

		if ch == nil {
			return nil, ErrNoBrokersAvailable
		}

		publishing := amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg.Value,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    string(msg.Key),
		}
		if len(headers) > 0 {
			publishing.Headers = make(amqp.Table, len(headers))
			for k, v := range headers {
				publishing.Headers[k] = v
			}
		}

		// 确认按发布顺序返回，串行发送保证一一对应.
		p.sendMu.Lock()
		defer p.sendMu.Unlock()

		err := ch.PublishWithContext(ctx, p.settings.exchange, msg.Topic, false, false, publishing)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSendMessage, err)
		}

		if confirms != nil {
			select {
			case confirm := <-confirms:
				if !confirm.Ack {
					return nil, fmt.Errorf("%w: 消息被拒绝", ErrSendMessage)
				}
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return msg.sent(headers), nil
	})
}

// Ping 检查连接是否可用.
func (p *RabbitMQProducer) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if !p.link.healthy() {
		return ErrNoBrokersAvailable
	}
	return nil
}

// Close 关闭 channel 与连接，重复调用是安全的.
func (p *RabbitMQProducer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	// 先停止重连，重连过程中会回调 openChannel
	err := p.link.close()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	return err
}

var _ Producer = (*RabbitMQProducer)(nil)
