package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bet_wallet/internal/auth"
	"bet_wallet/internal/betting"
	"bet_wallet/internal/bonus"
	"bet_wallet/internal/config"
	"bet_wallet/internal/handler"
	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/notify"
	"bet_wallet/internal/player"
	"bet_wallet/internal/store"
	"bet_wallet/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(context.Background()).Err(err).Msg("failed to load config")
	}

	if cfg.Log.File != "" {
		if err := logger.InitWithFile(cfg.Log.File, cfg.Log.Level, cfg.Log.Format); err != nil {
			logger.Fatal(context.Background()).Err(err).Msg("failed to init file logger")
		}
	} else {
		logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("failed to open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("failed to get sql.DB")
	}
	defer sqlDB.Close()

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx, db, append(ledger.Models(), &bonus.Award{})...); err != nil {
			logger.Fatal(ctx).Err(err).Msg("failed to migrate database")
		}
	}
	logger.Info(ctx).Str("driver", cfg.Database.Driver).Msg("database ready")

	hub := notify.NewHub()
	publisher := notify.Publisher(hub)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx).Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, events will only reach local subscribers")
		}
		publisher = notify.Multi{hub, notify.NewRedisPublisher(rdb, cfg.Redis.Channel)}
	}

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("failed to create token manager")
	}

	uow := store.NewUnitOfWork(db, cfg.Tx.MaxRetries, cfg.Tx.RetryDelay)
	players := ledger.NewPlayerRepository(db)
	wallets := ledger.NewWalletRepository(db)
	bets := ledger.NewBetRepository(db)
	transactions := ledger.NewTransactionRepository(db)

	bonusService := bonus.NewService(bonus.NewRepository(db), bets, bonus.NewPolicy(cfg.Bonus))
	betService := betting.NewBetService(uow, players, wallets, bets, bonusService, publisher)
	walletService := wallet.NewWalletService(uow, players, wallets, transactions, publisher)
	playerService := player.NewPlayerService(uow, players, wallets, tokens)

	gin.SetMode(cfg.HTTP.Mode)
	h := handler.NewHandler(playerService, betService, walletService, bonusService, hub)
	router := handler.NewRouter(h, tokens, sqlDB.PingContext)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}
	srv.RegisterOnShutdown(hub.Close)

	go func() {
		logger.Info(ctx).Str("addr", cfg.HTTP.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx).Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	logger.Info(shutdownCtx).Msg("server exited")
}
