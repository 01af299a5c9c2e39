package messaging

import "time"

// Message 发往 broker 的消息，Value 的编码由调用方决定.
//
// 发送成功后返回的副本中，Partition、Offset、ID 由对应后端填充:
// Kafka 填分区与偏移，Redis Stream 填条目 ID.
type Message struct {
	Topic   string // 必填
	Key     []byte // Kafka 分区键，RabbitMQ 使用它作为 MessageId
	Value   []byte
	Headers map[string]string

	Partition int32
	Offset    int64
	ID        string
	Timestamp time.Time
}

// sent 复制消息并写入实际发送的头部，原消息不被修改.
func (m *Message) sent(headers map[string]string) *Message {
	out := *m
	out.Headers, out.Timestamp = headers, time.Now()
	return &out
}

func validateMessage(msg *Message) error {
	switch {
	case msg == nil:
		return ErrNilMessage
	case msg.Topic == "":
		return ErrEmptyTopic
	}
	return nil
}
