// Command employee-service 运行员工管理 HTTP 服务.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Tsukikage7/employee-service/api"
	"github.com/Tsukikage7/employee-service/app"
	"github.com/Tsukikage7/employee-service/application"
	"github.com/Tsukikage7/employee-service/cqrs"
	"github.com/Tsukikage7/employee-service/domain"
	"github.com/Tsukikage7/employee-service/logger"
	"github.com/Tsukikage7/employee-service/messaging"
	"github.com/Tsukikage7/employee-service/metrics"
	"github.com/Tsukikage7/employee-service/persistence"
	"github.com/Tsukikage7/employee-service/recovery"
	"github.com/Tsukikage7/employee-service/retry"
	"github.com/Tsukikage7/employee-service/subscriber"
	"github.com/Tsukikage7/employee-service/trace"
	"github.com/Tsukikage7/employee-service/tracing"
	"github.com/Tsukikage7/employee-service/transport/health"
	"github.com/Tsukikage7/employee-service/transport/http/server"
	"github.com/Tsukikage7/employee-service/uow"
)

func main() {
	configPath := flag.String("config", "configs/employee-service.yaml", "配置文件路径，为空时只读取环境变量")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "employee-service: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("创建日志记录器失败: %w", err)
	}

	a, err := build(context.Background(), cfg, log)
	if err != nil {
		log.With(logger.Err(err)).Error("[App] 初始化失败")
		_ = log.Sync()
		return err
	}
	return a.Run()
}

// storageWait 启动前等待存储就绪的重试策略.
var storageWait = retry.Config{
	MaxAttempts: 5,
	Delay:       500 * time.Millisecond,
	MaxDelay:    5 * time.Second,
	Exponential: true,
}

// waitForStorage 返回启动前钩子，存储在重试次数内不可用时中止启动.
func waitForStorage(p interface{ Ping(context.Context) error }, log logger.Logger) app.HookFunc {
	policy := retry.New(storageWait, retry.WithOnRetry(func(attempt int, err error) {
		log.With(logger.Int("attempt", attempt), logger.Err(err)).Warn("[App] 存储未就绪，等待重试")
	}))
	return func(ctx context.Context) error {
		return policy.Do(ctx, p.Ping)
	}
}

// build 按配置装配所有组件，返回待运行的应用.
//
// 已打开的资源登记为清理任务，初始化中途失败时立即释放.
func build(ctx context.Context, cfg *Config, log logger.Logger) (a *app.Application, err error) {
	name := cfg.App.Name

	var cleanups []app.Option
	defer func() {
		if err != nil {
			app.New(append(cleanups, app.Logger(log))...).Cleanup(ctx)
		}
	}()

	tp, err := tracing.NewTracer(&cfg.Tracing, name, cfg.App.Version)
	if err != nil {
		return nil, fmt.Errorf("创建链路追踪失败: %w", err)
	}
	cleanups = append(cleanups, app.RegisterCleanup("tracer", tp.Shutdown, app.PriorityTracer))

	collector, err := metrics.NewMetrics(&cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("创建指标收集器失败: %w", err)
	}

	backend, err := persistence.Open(ctx, &cfg.Persistence, log)
	if err != nil {
		return nil, fmt.Errorf("打开存储失败: %w", err)
	}
	cleanups = append(cleanups, app.RegisterCleanup("storage", backend.Close, app.PriorityStorage))

	var (
		producer  messaging.Producer
		forwarder *subscriber.Forwarder
	)
	if cfg.Messaging.Enabled {
		producer, err = messaging.NewProducer(&cfg.Messaging,
			messaging.WithProducerLogger(log),
			messaging.WithProducerMetrics(collector),
			messaging.WithProducerTracing(name),
		)
		if err != nil {
			return nil, fmt.Errorf("创建消息生产者失败: %w", err)
		}
		cleanups = append(cleanups, app.RegisterCloser("producer", producer, app.PriorityProducer))
		forwarder = subscriber.NewForwarder(producer, cfg.Messaging.TopicOrDefault(),
			subscriber.WithLogger(log),
			subscriber.WithRetry(cfg.Messaging.Retry),
		)
	}

	bus := domain.NewEventBus()
	subscriber.Register(bus, log, forwarder)

	factory := uow.NewFactory(backend.Driver(),
		uow.WithLogger(log),
		uow.WithObserver(metrics.UnitOfWorkObserver(collector)),
	)

	mediator := cqrs.New(cqrs.WithBehaviors(
		trace.Behavior(name),
		metrics.MediatorBehavior(collector),
		cqrs.LoggingBehavior(log),
		recovery.Behavior(recovery.WithLogger(log)),
	))
	if err := application.Register(mediator, factory,
		application.WithPublisher(metrics.InstrumentPublisher(bus, collector)),
		application.WithLogger(log),
	); err != nil {
		return nil, fmt.Errorf("注册用例处理器失败: %w", err)
	}

	mux := http.NewServeMux()
	api.NewHandler(mediator, backend.IDs(), api.WithLogger(log)).Register(mux)

	readiness := []health.Checker{health.NewStorageChecker(backend.Name(), backend)}
	if producer != nil {
		readiness = append(readiness, health.NewBrokerChecker(cfg.Messaging.Type, producer))
	}

	srvOpts := []server.Option{
		server.WithConfig(cfg.HTTP),
		server.WithLogger(log),
		server.WithReadinessChecker(readiness...),
		server.WithRecovery(),
		server.WithTrace(name),
	}
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+collector.GetPath(), collector.GetHandler())
		srvOpts = append(srvOpts, server.WithMetrics(collector))
	}
	srv := server.New(mux, srvOpts...)

	opts := append(cleanups,
		app.Config(cfg.App),
		app.Logger(log),
		app.RegisterCleanup("logger", func(context.Context) error {
			// 标准输出不支持 fsync，忽略同步错误
			_ = log.Sync()
			return nil
		}, app.PriorityLogger),
		app.OnBeforeStart("storage", waitForStorage(backend, log)),
	)
	return app.New(opts...).Use(srv), nil
}
