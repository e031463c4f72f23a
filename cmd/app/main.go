package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral_ledger/internal/bot"
	"referral_ledger/internal/config"
	"referral_ledger/internal/db"
	httpServer "referral_ledger/internal/http"
	"referral_ledger/internal/http/middleware"
	"referral_ledger/internal/logger"
	"referral_ledger/internal/repository"
	"referral_ledger/internal/service"
	"referral_ledger/internal/telegram"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool := db.Connect(cfg.DatabaseURL, cfg.DatabaseSchema)
	defer dbPool.Close()

	var members service.MembershipChecker
	if cfg.BonusChannel != "" {
		members = telegram.NewMembershipChecker(cfg.BotToken, "", cfg.MembershipTimeout)
		logger.Info("chat bonus requires channel membership", "channel", cfg.BonusChannel)
	}

	ledger := service.NewLedgerService(repository.NewStore(dbPool), members, service.Config{
		BonusAmount:        cfg.BonusAmount,
		MinWithdrawal:      cfg.MinWithdrawal,
		RecentTransactions: cfg.RecentTransactions,
		BonusChannel:       cfg.BonusChannel,
		MembershipTimeout:  cfg.MembershipTimeout,
	})

	if len(cfg.AdminIDs) > 0 {
		notifier := bot.NewAdminNotifier(telegram.NewBotAPI(cfg.BotToken, "", cfg.MembershipTimeout), cfg.AdminIDs)
		defer notifier.Close(10 * time.Second)
		ledger.SetWithdrawalNotifier(notifier)
	}

	redisClient := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient != nil {
		defer redisClient.Close()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Ledger:          ledger,
		DB:              dbPool,
		Redis:           redisClient,
		Version:         version,
		RateLimit:       cfg.APIRateLimit,
		RateWindow:      cfg.APIRateWindow,
		RequestTimeout:  cfg.StoreTimeout + cfg.MembershipTimeout,
		RequireInitData: cfg.RequireInitData,
		BotToken:        cfg.BotToken,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
