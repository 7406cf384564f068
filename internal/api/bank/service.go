package bank

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/helper"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/pricesource"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

// callerHeader identifies the caller for capability checks.
const callerHeader = "X-Api-Key"

func errorResponse(c fiber.Ctx, err error) error {
	var capErr *vault.BankCapExceededError
	var balErr *vault.InsufficientBalanceError
	var limErr *vault.WithdrawalLimitError

	switch {
	case errors.As(err, &capErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         capErr.Error(),
			"attempted_usd": capErr.AttemptedUSD,
			"available_usd": capErr.AvailableUSD,
		})
	case errors.As(err, &balErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     balErr.Error(),
			"current":   balErr.Current,
			"requested": balErr.Requested,
		})
	case errors.As(err, &limErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         limErr.Error(),
			"requested_usd": limErr.RequestedUSD,
			"limit_usd":     limErr.LimitUSD,
		})
	case errors.Is(err, vault.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, vault.ErrAssetNotConfigured):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, vault.ErrZeroAmount),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidAsset),
		errors.Is(err, vault.ErrUnsolicitedTransfer):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, vault.ErrReentrantCall):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, vault.ErrPriceSourceMissing),
		errors.Is(err, vault.ErrInvalidPrice),
		errors.Is(err, vault.ErrTransferFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return err
}

func operationResponse(c fiber.Ctx, ev vault.Event) error {
	return c.JSON(OperationResponseSchema{
		EventId:    ev.ID,
		Account:    ev.Account,
		Asset:      ev.Asset,
		Amount:     &ev.Amount,
		NewBalance: &ev.NewBalance,
		UsdValue:   &ev.USDValue,
	})
}

func GetStatusHandler(v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		cap := v.BankCapUSD()
		limit := v.WithdrawalLimitUSD()
		total, deposits, withdrawals := v.Stats()
		return c.JSON(StatusSchema{
			BankCapUsd:         &cap,
			WithdrawalLimitUsd: &limit,
			TotalUsd:           &total,
			DepositCount:       deposits,
			WithdrawCount:      withdrawals,
		})
	}
}

func DepositHandler(ctx context.Context, v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input DepositSchema
		if err := c.Bind().Body(&input); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&input); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ev, err := v.Deposit(ctx, input.Account, vault.ParseAssetRef(input.Asset), *input.Amount)
		if err != nil {
			return errorResponse(c, err)
		}
		return operationResponse(c, ev)
	}
}

func WithdrawHandler(ctx context.Context, v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input WithdrawSchema
		if err := c.Bind().Body(&input); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&input); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ev, err := v.Withdraw(ctx, input.Account, vault.ParseAssetRef(input.Asset), *input.Amount)
		if err != nil {
			return errorResponse(c, err)
		}
		return operationResponse(c, ev)
	}
}

func RescueHandler(ctx context.Context, v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input RescueSchema
		if err := c.Bind().Body(&input); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&input); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ev, err := v.Rescue(ctx, c.Get(callerHeader), vault.ParseAssetRef(input.Asset), input.Destination, *input.Amount)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(RescueResponseSchema{
			EventId:     ev.ID,
			Asset:       ev.Asset,
			Destination: ev.Destination,
			Amount:      &ev.Amount,
		})
	}
}

// DirectTransferHandler rejects native-asset credits sent outside the
// deposit protocol.
func DirectTransferHandler(v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input DirectTransferSchema
		if err := c.Bind().Body(&input); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&input); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return errorResponse(c, v.ReceiveDirect(input.From, *input.Amount))
	}
}

func GetBalanceHandler(v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		account := c.Params("id")
		asset := c.Params("asset")
		if account == "" || asset == "" {
			return fiber.ErrBadRequest
		}

		balance := v.BalanceOf(account, vault.ParseAssetRef(asset))
		return c.JSON(BalanceSchema{
			Account: account,
			Asset:   asset,
			Balance: &balance,
		})
	}
}

func GetAssetHandler(v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		asset := c.Params("asset")
		meta, ok := v.Registry().Lookup(asset)
		if !ok {
			return fiber.ErrNotFound
		}
		return c.JSON(AssetShowSchema{
			Asset:       asset,
			Precision:   meta.Precision,
			PriceSource: describeMeta(meta),
			Registered:  meta.Registered,
		})
	}
}

func describeMeta(meta vault.AssetMeta) string {
	if s, ok := meta.PriceSource.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

func RegisterAssetHandler(ctx context.Context, v *vault.Vault) fiber.Handler {
	return registerOrUpdateAssetHandler(ctx, v, false)
}

func UpdateAssetHandler(ctx context.Context, v *vault.Vault) fiber.Handler {
	return registerOrUpdateAssetHandler(ctx, v, true)
}

func registerOrUpdateAssetHandler(ctx context.Context, v *vault.Vault, update bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		asset := c.Params("asset")
		if asset == "" {
			return fiber.ErrBadRequest
		}

		var input RegisterAssetSchema
		if err := c.Bind().Body(&input); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&input); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		source := pricesource.NewStatic("static:"+asset, *input.Price, *input.PriceDecimals)
		caller := c.Get(callerHeader)

		var err error
		if update {
			err = v.Registry().Update(ctx, caller, asset, *input.Precision, source)
		} else {
			err = v.Registry().Register(ctx, caller, asset, *input.Precision, source)
		}
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(AssetShowSchema{
			Asset:       asset,
			Precision:   *input.Precision,
			PriceSource: source.String(),
			Registered:  true,
		})
	}
}

func DeregisterAssetHandler(ctx context.Context, v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		asset := c.Params("asset")
		if err := v.Registry().Deregister(ctx, c.Get(callerHeader), asset); err != nil {
			return errorResponse(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func QuoteHandler(v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		asset := c.Params("asset")
		amount, err := decimal.NewFromString(c.Query("amount", "0"))
		if err != nil {
			return fiber.ErrBadRequest
		}

		usd, err := v.QuoteUSD(context.Background(), vault.ParseAssetRef(asset), amount)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(QuoteSchema{
			Asset:    asset,
			Amount:   &amount,
			UsdValue: &usd,
		})
	}
}

func CapPreviewHandler(v *vault.Vault) fiber.Handler {
	return func(c fiber.Ctx) error {
		asset := c.Params("asset")
		amount, err := decimal.NewFromString(c.Query("amount", "0"))
		if err != nil {
			return fiber.ErrBadRequest
		}

		exceeds, usd, available, err := v.WouldExceedCap(context.Background(), vault.ParseAssetRef(asset), amount)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(CapPreviewSchema{
			Asset:        asset,
			Amount:       &amount,
			Exceeds:      exceeds,
			UsdValue:     &usd,
			AvailableUsd: &available,
		})
	}
}

func UpdateNativePriceHandler(v *vault.Vault, source *pricesource.Static) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !v.Authorize(c.Get(callerHeader), vault.CapConfigureAssets) {
			return errorResponse(c, vault.ErrUnauthorized)
		}

		var input UpdateNativePriceSchema
		if err := c.Bind().Body(&input); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&input); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		source.Set(*input.Price, *input.Decimals)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListEventsHandler(events EventLister) fiber.Handler {
	return func(c fiber.Ctx) error {
		pagination := helper.GetPagination[vault.Event](c)

		items, total, err := events.List(context.Background(), (pagination.Page-1)*pagination.Size, pagination.Size)
		if err != nil {
			return err
		}
		pagination.Total = &total
		pagination.Items = items
		return c.JSON(pagination)
	}
}
