package bank

import (
	"github.com/shopspring/decimal"
)

type DepositSchema struct {
	Account string           `json:"account" validate:"required"`
	Asset   string           `json:"asset" validate:"required"`
	Amount  *decimal.Decimal `json:"amount" validate:"required"`
}

type WithdrawSchema = DepositSchema

type RescueSchema struct {
	Asset       string           `json:"asset" validate:"required"`
	Destination string           `json:"destination" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
}

type RegisterAssetSchema struct {
	Precision     *uint8           `json:"precision" validate:"required"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	PriceDecimals *uint8           `json:"price_decimals" validate:"required"`
}

type UpdateNativePriceSchema struct {
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Decimals *uint8           `json:"decimals" validate:"required"`
}

type DirectTransferSchema struct {
	From   string           `json:"from" validate:"required"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type OperationResponseSchema struct {
	EventId    string           `json:"event_id"`
	Account    string           `json:"account"`
	Asset      string           `json:"asset"`
	Amount     *decimal.Decimal `json:"amount"`
	NewBalance *decimal.Decimal `json:"new_balance"`
	UsdValue   *decimal.Decimal `json:"usd_value"`
}

type RescueResponseSchema struct {
	EventId     string           `json:"event_id"`
	Asset       string           `json:"asset"`
	Destination string           `json:"destination"`
	Amount      *decimal.Decimal `json:"amount"`
}

type StatusSchema struct {
	BankCapUsd         *decimal.Decimal `json:"bank_cap_usd"`
	WithdrawalLimitUsd *decimal.Decimal `json:"withdrawal_limit_usd"`
	TotalUsd           *decimal.Decimal `json:"total_usd"`
	DepositCount       uint64           `json:"deposit_count"`
	WithdrawCount      uint64           `json:"withdraw_count"`
}

type BalanceSchema struct {
	Account string           `json:"account"`
	Asset   string           `json:"asset"`
	Balance *decimal.Decimal `json:"balance"`
}

type QuoteSchema struct {
	Asset    string           `json:"asset"`
	Amount   *decimal.Decimal `json:"amount"`
	UsdValue *decimal.Decimal `json:"usd_value"`
}

type CapPreviewSchema struct {
	Asset        string           `json:"asset"`
	Amount       *decimal.Decimal `json:"amount"`
	Exceeds      bool             `json:"exceeds"`
	UsdValue     *decimal.Decimal `json:"usd_value"`
	AvailableUsd *decimal.Decimal `json:"available_usd"`
}

type AssetShowSchema struct {
	Asset       string `json:"asset"`
	Precision   uint8  `json:"precision"`
	PriceSource string `json:"price_source"`
	Registered  bool   `json:"registered"`
}
