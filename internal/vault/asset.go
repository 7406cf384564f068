package vault

import "github.com/shopspring/decimal"

// NativeAssetID is the reserved identifier for the chain-native asset.
// Token identifiers must never collide with it.
const NativeAssetID = "native"

// AssetRef identifies an asset held by the vault: either the native asset or
// a fungible token type. The zero value is not a valid reference.
type AssetRef struct {
	native bool
	token  string
}

// Native returns the reference for the native asset.
func Native() AssetRef {
	return AssetRef{native: true}
}

// Token returns the reference for the fungible token with the given id.
func Token(id string) AssetRef {
	return AssetRef{token: id}
}

func (a AssetRef) IsNative() bool {
	return a.native
}

// TokenID returns the token identifier, or the empty string for the native asset.
func (a AssetRef) TokenID() string {
	return a.token
}

func (a AssetRef) IsZero() bool {
	return !a.native && a.token == ""
}

func (a AssetRef) String() string {
	if a.native {
		return NativeAssetID
	}
	return a.token
}

// ParseAssetRef maps an asset identifier string onto an AssetRef. The
// reserved value "native" denotes the native asset.
func ParseAssetRef(id string) AssetRef {
	if id == NativeAssetID {
		return Native()
	}
	return Token(id)
}

// AssetMeta is the registry's record for a single token type.
type AssetMeta struct {
	Precision   uint8
	PriceSource PriceSource
	Registered  bool
}

// Quote is a point-in-time price for one whole unit of an asset, expressed
// as an integer scaled by 10^Decimals. Ok is false when the source could not
// produce a usable price.
type Quote struct {
	Price    decimal.Decimal
	Decimals uint8
	Ok       bool
}
