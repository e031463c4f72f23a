package main

import (
	"context"
	"flag"
	"os"

	"referral_ledger/internal/db"
	"referral_ledger/internal/logger"
	"referral_ledger/internal/repository"
	"referral_ledger/internal/service"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()
	logger.Init("info", false)

	tgID := flag.Int64("telegram-id", 1234567890, "telegram id of the demo user")
	username := flag.String("username", "testuser", "username of the demo user")
	deposit := flag.String("deposit", "", "optional deposit amount to seed")
	bonus := flag.Bool("bonus", false, "claim the chat bonus")
	flag.Parse()

	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn, os.Getenv("MAIN_DB_SCHEMA"))
	defer pool.Close()

	ledger := service.NewLedgerService(repository.NewStore(pool), nil, service.DefaultConfig())
	ctx := context.Background()

	snap, err := ledger.GetOrCreateUser(ctx, *tgID, *username)
	if err != nil {
		logger.Fatal("get or create user failed", "error", err)
	}
	logger.Info("user ready", "id", snap.ID, "telegram_id", snap.TelegramID, "referral_code", snap.ReferralCode)

	if *deposit != "" {
		amount, err := decimal.NewFromString(*deposit)
		if err != nil {
			logger.Fatal("invalid deposit amount", "error", err)
		}
		res, err := ledger.CreateDeposit(ctx, *tgID, amount)
		if err != nil {
			logger.Fatal("deposit failed", "error", err)
		}
		logger.Info("deposit created", "deposit_id", res.Deposit.ID, "balance", res.Balance.String())
	}

	if *bonus {
		balance, err := ledger.ClaimChatBonus(ctx, *tgID)
		if err != nil {
			logger.Warn("bonus not claimed", "error", err)
		} else {
			logger.Info("bonus claimed", "balance", balance.String())
		}
	}

	snap, err = ledger.GetOrCreateUser(ctx, *tgID, *username)
	if err != nil {
		logger.Fatal("reload user failed", "error", err)
	}
	logger.Info("user snapshot",
		"balance", snap.Balance.String(),
		"total_invested", snap.TotalInvested.String(),
		"available", snap.Available().String(),
		"transactions", len(snap.Transactions))
}
