package vault

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Input validation.
	ErrZeroAmount    = errors.New("deposit amount is zero")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidAsset  = errors.New("invalid asset identifier")

	// Configuration / dependency failures.
	ErrAssetNotConfigured = errors.New("asset not configured")
	ErrPriceSourceMissing = errors.New("asset has no price source")
	ErrInvalidPrice       = errors.New("price source returned an unusable quote")

	// Protocol failures.
	ErrReentrantCall       = errors.New("reentrant call rejected")
	ErrTransferFailed      = errors.New("external transfer failed")
	ErrUnsolicitedTransfer = errors.New("direct transfers outside deposit are rejected")
	ErrUnauthorized        = errors.New("caller lacks required capability")
)

// BankCapExceededError reports a deposit whose USD value would push the vault
// past its cap. AvailableUSD is the remaining headroom, floored at zero.
type BankCapExceededError struct {
	AttemptedUSD decimal.Decimal
	AvailableUSD decimal.Decimal
}

func (e *BankCapExceededError) Error() string {
	return fmt.Sprintf("bank cap exceeded: attempted %s USD, available %s USD",
		e.AttemptedUSD, e.AvailableUSD)
}

// InsufficientBalanceError reports a withdrawal larger than the account's
// stored balance, both in native units.
type InsufficientBalanceError struct {
	Current   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current %s, requested %s",
		e.Current, e.Requested)
}

// WithdrawalLimitError reports a withdrawal whose USD value exceeds the
// per-transaction ceiling.
type WithdrawalLimitError struct {
	RequestedUSD decimal.Decimal
	LimitUSD     decimal.Decimal
}

func (e *WithdrawalLimitError) Error() string {
	return fmt.Sprintf("withdrawal limit exceeded: requested %s USD, limit %s USD",
		e.RequestedUSD, e.LimitUSD)
}
