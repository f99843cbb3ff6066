package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/cache"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/controller"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/middleware"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/http/router"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/postgres"
	"github.com/api-sage/p2p-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/p2p-payment-processor/src/internal/auth"
	"github.com/api-sage/p2p-payment-processor/src/internal/config"
	"github.com/api-sage/p2p-payment-processor/src/internal/logger"
	"github.com/api-sage/p2p-payment-processor/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var idempotencyStore repo_interfaces.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		idempotencyStore = cache.NewRedisIdempotencyStore(rdb, 5*time.Minute)
	} else {
		idempotencyStore = memory.NewIdempotencyStore()
	}

	paymentRepo := postgres.NewPaymentRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	userRepo := postgres.NewUserRepository(db)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	accountLocks := services.NewAccountLocks()

	paymentService := services.NewPaymentService(paymentRepo, accountRepo, idempotencyStore, accountLocks)
	accountService := services.NewAccountService(accountRepo, accountLocks)
	userService := services.NewUserService(userRepo, jwtManager)

	mux := router.New(
		controller.NewPaymentController(paymentService),
		controller.NewAccountController(accountService),
		controller.NewUserController(userService),
		middleware.BearerAuth(jwtManager),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.Metrics(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("http server starting", logger.Fields{
			"addr": cfg.HTTPAddr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
