package vault

import "github.com/shopspring/decimal"

// USDDecimals is the number of fractional digits of the vault's unit of
// account. All USD values are unsigned integers scaled by 10^USDDecimals.
const USDDecimals = 6

func pow10(n uint8) decimal.Decimal {
	return decimal.New(1, int32(n))
}

// ToUSD converts amountNative, expressed with assetPrecision fractional
// digits, into the 6-decimal fixed-point USD unit using the given quote.
//
// The computation is exact integer arithmetic with truncating (round-down)
// division: raw = amountNative * price / 10^assetPrecision, then rescaled
// from the quote's precision to USDDecimals. The truncation bias is
// deliberate: the vault never overestimates custodied value.
func ToUSD(amountNative decimal.Decimal, assetPrecision uint8, quote Quote) (decimal.Decimal, error) {
	if !quote.Ok || quote.Price.Sign() <= 0 {
		return decimal.Zero, ErrInvalidPrice
	}
	if amountNative.Sign() < 0 || !amountNative.IsInteger() {
		return decimal.Zero, ErrInvalidAmount
	}

	raw, _ := amountNative.Mul(quote.Price).QuoRem(pow10(assetPrecision), 0)

	if quote.Decimals >= USDDecimals {
		usd, _ := raw.QuoRem(pow10(quote.Decimals-USDDecimals), 0)
		return usd, nil
	}
	return raw.Mul(pow10(USDDecimals - quote.Decimals)), nil
}
