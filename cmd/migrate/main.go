package main

import (
	"flag"
	"fmt"
	"os"

	"referral_ledger/internal/db"
	"referral_ledger/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-steps N] up|down|status\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	schema := os.Getenv("MAIN_DB_SCHEMA")

	switch flag.Arg(0) {
	case "up":
		if err := db.MigrateUp(dsn, schema); err != nil {
			logger.Fatal("migrate up failed", "error", err)
		}
		logger.Info("migrations applied")
	case "down":
		if err := db.MigrateDown(dsn, schema, *steps); err != nil {
			logger.Fatal("migrate down failed", "error", err)
		}
		logger.Info("migrations rolled back", "steps", *steps)
	case "status":
		version, dirty, ok, err := db.MigrationVersion(dsn, schema)
		if err != nil {
			logger.Fatal("migration status failed", "error", err)
		}
		if !ok {
			fmt.Println("no migrations applied")
			return
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
