package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/IBM/sarama"
)

// KafkaProducer Kafka 生产者.
//
// 使用同步发送模式，保证消息可靠投递.
// 内置配置：
//   - Idempotent: true (幂等性，保证消息不重复)
//   - RequiredAcks: WaitForAll (等待所有副本确认)
//   - Retry.Max: 3 (最多重试3次)
//   - Compression: Snappy (使用Snappy压缩)
type KafkaProducer struct {
	client   sarama.Client
	producer sarama.SyncProducer
	closed   bool
	mu       sync.RWMutex
	opts     *producerOptions
}

// NewKafkaProducer 创建 Kafka 生产者.
//
// 返回创建的生产者实例，使用完毕后需调用 Close 关闭.
func NewKafkaProducer(cfg *Config, opts ...ProducerOption) (*KafkaProducer, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	client, err := sarama.NewClient(cfg.Brokers, kafkaConfig(cfg))
	if err != nil {
		return nil, errors.Join(ErrCreateClient, err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrCreateProducer, err)
	}

	p := newKafkaProducer(producer, opts...)
	p.client = client
	p.opts.logger.Debugf("[Messaging] Kafka生产者启动: brokers=%v", cfg.Brokers)
	return p, nil
}

// newKafkaProducer 包装已有的 sarama.SyncProducer.
func newKafkaProducer(producer sarama.SyncProducer, opts ...ProducerOption) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		opts:     newProducerOptions(opts),
	}
}

func kafkaConfig(cfg *Config) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V3_8_0_0
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

// SendMessage 同步发送消息并等待确认，返回包含分区和偏移量信息的消息.
func (p *KafkaProducer) SendMessage(ctx context.Context, msg *Message) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.isClosed() {
		return nil, ErrProducerClosed
	}
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	return p.opts.instrument(ctx, TypeKafka, msg, func(_ context.Context, headers map[string]string) (*Message, error) {
		partition, offset, err := p.producer.SendMessage(buildSaramaMessage(msg, headers))
		if err != nil {
			return nil, errors.Join(ErrSendMessage, err)
		}

		out := msg.sent(headers)
		out.Partition = partition
		out.Offset = offset
		return out, nil
	})
}

func buildSaramaMessage(msg *Message, headers map[string]string) *sarama.ProducerMessage {
	saramaMsg := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Value),
	}
	if len(msg.Key) > 0 {
		saramaMsg.Key = sarama.ByteEncoder(msg.Key)
	}
	for k, v := range headers {
		saramaMsg.Headers = append(saramaMsg.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	return saramaMsg
}

// Ping 检查集群中是否存在可用的 broker.
func (p *KafkaProducer) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.isClosed() {
		return ErrProducerClosed
	}
	if p.client == nil {
		return nil
	}
	if p.client.Closed() || len(p.client.Brokers()) == 0 {
		return ErrNoBrokersAvailable
	}
	return nil
}

func (p *KafkaProducer) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close 关闭生产者，重复调用是安全的.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.producer != nil {
		errs = append(errs, p.producer.Close())
	}
	if p.client != nil && !p.client.Closed() {
		errs = append(errs, p.client.Close())
	}
	return errors.Join(errs...)
}

var _ Producer = (*KafkaProducer)(nil)

