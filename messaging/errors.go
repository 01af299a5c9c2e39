package messaging

import "errors"

// 配置与连接错误.
var (
	ErrNilConfig          = errors.New("messaging: 配置为空")
	ErrUnsupportedType    = errors.New("messaging: 不支持的消息队列类型")
	ErrNoBrokers          = errors.New("messaging: 未配置服务器地址")
	ErrNoBrokersAvailable = errors.New("messaging: 没有可用的服务器")
	ErrCreateClient       = errors.New("messaging: 创建客户端失败")
	ErrCreateProducer     = errors.New("messaging: 创建生产者失败")
)

// 发送错误，ErrProducerClosed、ErrNilMessage 与 ErrEmptyTopic 重试无意义.
var (
	ErrProducerClosed = errors.New("messaging: 生产者已关闭")
	ErrClientClosed   = errors.New("messaging: 连接已关闭")
	ErrNilMessage     = errors.New("messaging: 消息为空")
	ErrEmptyTopic     = errors.New("messaging: 消息主题为空")
	ErrSendMessage    = errors.New("messaging: 消息发送失败")
)
