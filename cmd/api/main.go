package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payout/internal/cache"
	"payout/internal/config"
	"payout/internal/fee"
	handler "payout/internal/handler/http"
	"payout/internal/logger"
	"payout/internal/port"
	"payout/internal/queue"
	"payout/internal/repository/migration"
	"payout/internal/repository/postgresql"
	"payout/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}

	zl, err := logger.New(cfg.Logger.LoggerLevel, cfg.Server.Env)
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.MigrateOnStart {
		if err := migration.RunMigrations(db, zl); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if needsRedis(cfg) {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	completionCache, err := newCache(cfg.Cache, rdb)
	if err != nil {
		return err
	}

	examineQueue, closeQueue, err := newQueue(cfg.Queue, rdb, zl)
	if err != nil {
		return err
	}
	defer closeQueue()

	channels, err := fee.ChannelsFromConfig(cfg.Fees)
	if err != nil {
		return err
	}

	svc := service.NewWithdrawalService(service.Deps{
		Withdrawals:  postgresql.NewWithdrawalRepository(db),
		Accounts:     postgresql.NewAccountRepository(db, cfg.Balance.LockTimeout),
		Destinations: postgresql.NewDestinationRepository(db),
		Members:      postgresql.NewMemberRepository(db),
		Tx:           postgresql.NewTransactor(db),
		Fees:         fee.DefaultRegistry(channels),
		Queue:        examineQueue,
		Cache:        completionCache,
		CacheTTL:     cfg.Cache.TTL,
		Logger:       zl,
	})

	h := handler.NewWithdrawalHandler(svc, cfg.Token.AuthToken, zl)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Cache.Driver == "redis" || cfg.Queue.Driver == "redis"
}

func newCache(cfg config.CacheConfig, rdb *redis.Client) (port.Cache, error) {
	switch cfg.Driver {
	case "memory":
		return cache.NewMemoryCache(cfg.TTL, 2*cfg.TTL), nil
	case "redis":
		return cache.NewRedisCache(rdb, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func newQueue(cfg config.QueueConfig, rdb *redis.Client, zl *zap.Logger) (port.ExamineQueue, func(), error) {
	switch cfg.Driver {
	case "redis":
		return queue.NewRedisStreamQueue(rdb, cfg.Stream, zl), func() {}, nil
	case "kafka":
		q := queue.NewKafkaQueue(cfg.Brokers, cfg.Topic, zl)
		return q, func() {
			if err := q.Close(); err != nil {
				zl.Warn("close kafka writer", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
