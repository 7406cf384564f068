package vault

import (
	"context"

	"github.com/shopspring/decimal"
)

// Capabilities checked against the Authorizer for privileged operations.
const (
	CapConfigureAssets = "configure-assets"
	CapAdminRescue     = "admin-rescue"
)

// PriceSource supplies the current price of an asset. Freshness and staleness
// validation are the source's problem; the vault only rejects quotes the
// source itself marks as unusable.
type PriceSource interface {
	LatestQuote(ctx context.Context) Quote
}

// Authorizer answers whether a caller may perform a privileged action.
type Authorizer interface {
	IsAllowed(caller, capability string) bool
}

// AssetTransfer moves asset amounts between the vault's custody and external
// parties. Both operations must either fully succeed or fail without effect.
type AssetTransfer interface {
	// Pull moves amount of asset from the counterparty into custody.
	Pull(ctx context.Context, asset AssetRef, from string, amount decimal.Decimal) error
	// Push moves amount of asset out of custody to the destination.
	Push(ctx context.Context, asset AssetRef, to string, amount decimal.Decimal) error
}
