package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/amirasaad/exchange/config"
	"github.com/amirasaad/exchange/infra"
	"github.com/amirasaad/exchange/infra/queue"
	infrarepo "github.com/amirasaad/exchange/infra/repository"
	"github.com/amirasaad/exchange/pkg/eventbus"
	ledgersvc "github.com/amirasaad/exchange/pkg/service/ledger"
	limitsvc "github.com/amirasaad/exchange/pkg/service/limits"
	withdrawalsvc "github.com/amirasaad/exchange/pkg/service/withdrawal"
	"github.com/amirasaad/exchange/webapi"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadAppConfig(logger)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := infrarepo.Migrate(db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	broadcastQueue := queue.NewRedisBroadcastQueue(
		redis.NewClient(redisOpts), cfg.Withdraw.DispatchQueue, logger)

	uow := infrarepo.NewUoW(db)
	bus := eventbus.NewSimpleEventBus(logger)
	withdrawals, err := withdrawalsvc.NewService(withdrawalsvc.Deps{
		UoW:         uow,
		Engine:      ledgersvc.NewEngine(logger),
		Resolver:    limitsvc.NewResolver(logger),
		Bus:         bus,
		Dispatcher:  broadcastQueue,
		AutoApprove: cfg.Withdraw.AutoApprove,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	app := webapi.NewApp(webapi.Deps{
		Withdrawals: withdrawals,
		UoW:         uow,
		Logger:      logger,
		RateMax:     cfg.RateLimit.MaxRequests,
		RateWindow:  cfg.RateLimit.Window,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Info("starting server", "env", cfg.Env, "address", addr)
	return app.Listen(addr)
}
