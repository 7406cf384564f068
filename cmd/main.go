package main

import (
	"context"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/api"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/api/bank"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/auth"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/db"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/journal"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/pricesource"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/transfer"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file, using system environment variables")
	}

	bankCap := envDecimal(log, "BANK_CAP_USD", "1000000000000") // $1,000,000
	withdrawalLimit := envDecimal(log, "WITHDRAWAL_LIMIT_USD", "10000000000")
	nativePrice := envDecimal(log, "NATIVE_PRICE_USD", "2000000000")
	nativePriceDecimals := envUint8(log, "NATIVE_PRICE_DECIMALS", 6)
	nativePrecision := envUint8(log, "NATIVE_PRECISION", vault.DefaultNativePrecision)

	// Event journal: Postgres when configured, in-memory otherwise
	var events interface {
		vault.EventSink
		bank.EventLister
	} = journal.NewMemory()
	if url := os.Getenv("DATABASE_URL"); url != "" {
		pool, err := db.Connect(context.Background(), url)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer pool.Close()
		events = journal.NewPostgres(pool)
	}

	// Caller capabilities from API keys
	authorizer := auth.NewStatic()
	if key := os.Getenv("CONFIG_API_KEY"); key != "" {
		authorizer.Grant(key, vault.CapConfigureAssets)
	}
	if key := os.Getenv("ADMIN_API_KEY"); key != "" {
		authorizer.Grant(key, vault.CapConfigureAssets, vault.CapAdminRescue)
	}

	nativeSource := pricesource.NewStatic("static:native", nativePrice, nativePriceDecimals)

	v, err := vault.New(vault.Config{
		BankCapUSD:         bankCap,
		WithdrawalLimitUSD: withdrawalLimit,
		NativeSource:       nativeSource,
		NativePrecision:    nativePrecision,
	}, authorizer, transfer.NewRecorder(log), events)
	if err != nil {
		log.WithError(err).Fatal("Failed to build vault")
	}

	// Initialize a new Fiber app
	app := fiber.New()

	// Initialize the API routes
	api.InitializeRoutes(app, v, events, nativeSource)

	// Start the server on port 8000
	log.Fatal(app.Listen(":8000"))
}

func envDecimal(log *logrus.Logger, name, fallback string) decimal.Decimal {
	raw := os.Getenv(name)
	if raw == "" {
		raw = fallback
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		log.WithError(err).Fatalf("Invalid %s", name)
	}
	return value
}

func envUint8(log *logrus.Logger, name string, fallback uint8) uint8 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		log.WithError(err).Fatalf("Invalid %s", name)
	}
	return uint8(value)
}
