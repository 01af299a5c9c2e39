package messaging

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/retry"
)

// rabbitLink 维护到 broker 的连接，断开后按退避策略重连，
// 每次连上都调用 onConnect 重建 channel.
type rabbitLink struct {
	url       string
	policy    *retry.Policy
	onConnect func(*amqp.Connection) error
	logger    logger.Logger

	mu     sync.RWMutex
	conn   *amqp.Connection
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// dialRabbit 建立首个连接，失败时直接返回错误，不进入重连.
//
// maxRetries 不大于 0 时无限重连.
func dialRabbit(url string, s rabbitMQSettings, log logger.Logger, onConnect func(*amqp.Connection) error) (*rabbitLink, error) {
	attempts := s.maxRetries
	if attempts <= 0 {
		attempts = math.MaxInt
	}
	delay := s.reconnectDelay
	if delay <= 0 {
		delay = time.Second
	}

	l := &rabbitLink{url: url, onConnect: onConnect, logger: log, done: make(chan struct{})}
	l.policy = retry.New(
		retry.Config{MaxAttempts: attempts, Delay: delay, MaxDelay: 30 * time.Second, Exponential: true},
		retry.WithOnRetry(func(attempt int, err error) {
			log.With(logger.Int("attempt", attempt), logger.Err(err)).Warn("[Messaging] RabbitMQ 重连失败")
		}),
	)
	l.ctx, l.cancel = context.WithCancel(context.Background())

	closed, err := l.connect()
	if err != nil {
		l.cancel()
		return nil, fmt.Errorf("%w: %v", ErrCreateClient, err)
	}
	go l.supervise(closed)
	return l, nil
}

func (l *rabbitLink) connect() (<-chan *amqp.Error, error) {
	conn, err := amqp.Dial(l.url)
	if err != nil {
		return nil, err
	}
	if err := l.onConnect(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	l.logger.Info("[Messaging] RabbitMQ 连接已建立")
	return closed, nil
}

func (l *rabbitLink) supervise(closed <-chan *amqp.Error) {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case reason, ok := <-closed:
			// Close 主动关闭时通道直接关闭，不带原因
			if !ok && l.ctx.Err() != nil {
				return
			}
			l.logger.With(logger.Any("reason", reason)).Warn("[Messaging] RabbitMQ 连接断开，开始重连")
		}

		err := l.policy.Do(l.ctx, func(context.Context) error {
			var err error
			closed, err = l.connect()
			return err
		})
		if err != nil {
			if l.ctx.Err() == nil {
				l.logger.With(logger.Err(err)).Error("[Messaging] RabbitMQ 重连失败，已达最大重试次数")
			}
			return
		}
	}
}

// healthy 连接已建立且未断开.
func (l *rabbitLink) healthy() bool {
	if l.ctx.Err() != nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.conn != nil && !l.conn.IsClosed()
}

// close 停止重连并关闭当前连接，可重复调用.
func (l *rabbitLink) close() error {
	l.closeOnce.Do(func() {
		l.cancel()
		// 等待进行中的重连结束，避免新建的连接遗漏关闭
		<-l.done

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.conn != nil && !l.conn.IsClosed() {
			l.closeErr = l.conn.Close()
		}
		l.conn = nil
	})
	return l.closeErr
}
