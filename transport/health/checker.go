package health

import "context"

// Pinger 可探测连通性的依赖.
//
// persistence.Backend 与 messaging.Producer 均满足该接口.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc 函数形式的 Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// 依赖类型，写入 CheckResult.Kind.
const (
	KindStorage = "storage"
	KindBroker  = "broker"
)

// PingChecker 通过 Ping 检查依赖.
type PingChecker struct {
	name   string
	kind   string
	pinger Pinger
}

// NewStorageChecker 创建存储后端检查器，name 通常为后端名称.
func NewStorageChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, kind: KindStorage, pinger: p}
}

// NewBrokerChecker 创建消息代理检查器，name 通常为代理类型.
func NewBrokerChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, kind: KindBroker, pinger: p}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.pinger.Ping(ctx); err != nil {
		return CheckResult{Status: StatusDown, Kind: c.kind, Error: err.Error()}
	}
	return CheckResult{Status: StatusUp, Kind: c.kind}
}
