package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"referral_ledger/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort        string
	DatabaseURL    string
	DatabaseSchema string

	// Telegram bot token; used for the membership check and init data validation
	BotToken     string
	BonusChannel string // @username or numeric chat id, empty disables the check
	// Admins notified about new withdrawal requests, empty disables notifications
	AdminIDs []int64

	BonusAmount        decimal.Decimal
	MinWithdrawal      decimal.Decimal
	RecentTransactions int

	StoreTimeout      time.Duration
	MembershipTimeout time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	APIRateLimit    int
	APIRateWindow   time.Duration
	RequireInitData bool

	LogLevel string
	LogJSON  bool
}

// Load reads .env (if present) and the environment, exiting on invalid config
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds the config from environment variables only
func FromEnv() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		AppPort:        port,
		DatabaseURL:    dbURL,
		DatabaseSchema: strings.TrimSpace(os.Getenv("MAIN_DB_SCHEMA")),
		BotToken:       os.Getenv("BOT_TOKEN"),
		BonusChannel:   strings.TrimSpace(os.Getenv("BONUS_CHANNEL")),
		AdminIDs:       parseIDs(os.Getenv("ADMIN_TELEGRAM_IDS")),

		BonusAmount:        envDecimal("BONUS_AMOUNT", decimal.NewFromInt(100)),
		MinWithdrawal:      envDecimal("MIN_WITHDRAWAL", decimal.NewFromInt(100)),
		RecentTransactions: envInt("RECENT_TRANSACTIONS", 10),

		StoreTimeout:      time.Duration(envInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		MembershipTimeout: time.Duration(envInt("MEMBERSHIP_TIMEOUT_SECONDS", 5)) * time.Second,

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		APIRateLimit:    envInt("API_RATE_LIMIT", 60),
		APIRateWindow:   time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		RequireInitData: os.Getenv("REQUIRE_INIT_DATA") == "true",

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}

	if cfg.BonusChannel != "" && cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required when BONUS_CHANNEL is set")
	}
	if len(cfg.AdminIDs) > 0 && cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required when ADMIN_TELEGRAM_IDS is set")
	}
	if cfg.RequireInitData && cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required when REQUIRE_INIT_DATA is enabled")
	}

	return cfg, nil
}

// envInt reads a positive integer, falling back to def
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d
		}
	}
	return def
}

// parseIDs reads a comma separated list of telegram ids, skipping junk
func parseIDs(v string) []int64 {
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
