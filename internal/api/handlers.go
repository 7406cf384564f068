package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/api/bank"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/pricesource"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

func InitializeRoutes(app *fiber.App, v *vault.Vault, events bank.EventLister, nativePrice *pricesource.Static) {
	bank.InitializeRoutes(app, v, events, nativePrice)
}
