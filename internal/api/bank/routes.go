package bank

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/pricesource"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

// EventLister pages through the vault's event journal.
type EventLister interface {
	List(ctx context.Context, offset, limit int) ([]vault.Event, int, error)
}

func InitializeRoutes(app *fiber.App, v *vault.Vault, events EventLister, nativePrice *pricesource.Static) {
	app.Get("/v1/bank", GetStatusHandler(v))
	app.Post("/v1/bank/deposits", DepositHandler(context.Background(), v))
	app.Post("/v1/bank/withdrawals", WithdrawHandler(context.Background(), v))
	app.Post("/v1/bank/rescues", RescueHandler(context.Background(), v))
	app.Post("/v1/bank/transfers", DirectTransferHandler(v))
	app.Get("/v1/accounts/:id/balances/:asset", GetBalanceHandler(v))
	app.Get("/v1/assets/:asset", GetAssetHandler(v))
	app.Post("/v1/assets/:asset", RegisterAssetHandler(context.Background(), v))
	app.Put("/v1/assets/:asset", UpdateAssetHandler(context.Background(), v))
	app.Delete("/v1/assets/:asset", DeregisterAssetHandler(context.Background(), v))
	app.Get("/v1/assets/:asset/quote", QuoteHandler(v))
	app.Get("/v1/assets/:asset/cap-preview", CapPreviewHandler(v))
	app.Put("/v1/prices/native", UpdateNativePriceHandler(v, nativePrice))
	app.Get("/v1/events", ListEventsHandler(events))
}
