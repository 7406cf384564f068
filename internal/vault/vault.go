package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultNativePrecision is used when Config.NativePrecision is zero.
const DefaultNativePrecision = 18

// Config carries the construction parameters. All values are immutable for
// the life of the vault instance.
type Config struct {
	// BankCapUSD is the maximum total USD value the vault may custody.
	// Must be positive.
	BankCapUSD decimal.Decimal
	// WithdrawalLimitUSD is the maximum USD value of a single withdrawal.
	// Zero disables withdrawals entirely.
	WithdrawalLimitUSD decimal.Decimal
	// NativeSource prices the native asset. Required; tokens get their
	// sources through the registry instead.
	NativeSource PriceSource
	// NativePrecision is the native asset's fractional digits.
	NativePrecision uint8
}

// Vault is the custodial multi-asset ledger. It is the sole owner of balance
// and total state; every mutation goes through its guarded operations.
//
// Mutating operations (Deposit, Withdraw, Rescue) run one at a time per
// instance. A re-entrant call made from within the external transfer step
// fails with ErrReentrantCall instead of blocking.
type Vault struct {
	cfg      Config
	registry *Registry
	auth     Authorizer
	transfer AssetTransfer
	events   EventSink

	// op is the transfer guard: held for the whole of a mutating
	// operation, acquired with TryLock only.
	op sync.Mutex

	// mu guards the bookkeeping pair (balances, totalUSD) plus the
	// counters, so readers never see one without the other's matching
	// update.
	mu            sync.RWMutex
	balances      map[balanceKey]decimal.Decimal
	totalUSD      decimal.Decimal
	depositCount  uint64
	withdrawCount uint64
}

type balanceKey struct {
	account string
	asset   string
}

// New validates the configuration and collaborators and builds a vault.
func New(cfg Config, auth Authorizer, transfer AssetTransfer, events EventSink) (*Vault, error) {
	if cfg.BankCapUSD.Sign() <= 0 {
		return nil, errors.New("bank cap must be positive")
	}
	if cfg.WithdrawalLimitUSD.Sign() < 0 {
		return nil, errors.New("withdrawal limit cannot be negative")
	}
	if cfg.NativeSource == nil {
		return nil, errors.New("native asset price source is required")
	}
	if auth == nil || transfer == nil || events == nil {
		return nil, errors.New("authorizer, transfer adapter and event sink are required")
	}
	if cfg.NativePrecision == 0 {
		cfg.NativePrecision = DefaultNativePrecision
	}
	return &Vault{
		cfg:      cfg,
		registry: newRegistry(auth, events),
		auth:     auth,
		transfer: transfer,
		events:   events,
		balances: make(map[balanceKey]decimal.Decimal),
	}, nil
}

// Registry exposes asset configuration.
func (v *Vault) Registry() *Registry {
	return v.registry
}

func (v *Vault) BankCapUSD() decimal.Decimal {
	return v.cfg.BankCapUSD
}

func (v *Vault) WithdrawalLimitUSD() decimal.Decimal {
	return v.cfg.WithdrawalLimitUSD
}

// Authorize reports whether caller holds the capability. Exposed so outer
// surfaces can gate actions that do not map to a single vault operation.
func (v *Vault) Authorize(caller, capability string) bool {
	return v.auth.IsAllowed(caller, capability)
}

// guard acquires the transfer guard or fails fast.
func (v *Vault) guard() error {
	if !v.op.TryLock() {
		return ErrReentrantCall
	}
	return nil
}

// resolveAsset returns the precision and price source for an asset.
// Deposits additionally require the registered flag; withdrawals of assets
// that were deregistered after deposit stay valid.
func (v *Vault) resolveAsset(asset AssetRef, forDeposit bool) (uint8, PriceSource, error) {
	if asset.IsZero() {
		return 0, nil, ErrInvalidAsset
	}
	if asset.IsNative() {
		return v.cfg.NativePrecision, v.cfg.NativeSource, nil
	}
	meta, ok := v.registry.Lookup(asset.TokenID())
	if !ok {
		return 0, nil, ErrAssetNotConfigured
	}
	if forDeposit && !meta.Registered {
		return 0, nil, ErrAssetNotConfigured
	}
	if meta.PriceSource == nil {
		return 0, nil, ErrPriceSourceMissing
	}
	return meta.Precision, meta.PriceSource, nil
}

func (v *Vault) quoteUSD(ctx context.Context, asset AssetRef, amount decimal.Decimal, forDeposit bool) (decimal.Decimal, error) {
	precision, source, err := v.resolveAsset(asset, forDeposit)
	if err != nil {
		return decimal.Zero, err
	}
	return ToUSD(amount, precision, source.LatestQuote(ctx))
}

// Deposit credits amountNative of asset to account. Token amounts are pulled
// from the caller before bookkeeping is finalized; if the deposit would push
// the custodied total past the bank cap, the pulled amount is pushed back and
// the operation fails with *BankCapExceededError.
func (v *Vault) Deposit(ctx context.Context, account string, asset AssetRef, amountNative decimal.Decimal) (Event, error) {
	if amountNative.Sign() == 0 {
		return Event{}, ErrZeroAmount
	}
	if amountNative.Sign() < 0 || !amountNative.IsInteger() {
		return Event{}, ErrInvalidAmount
	}

	if err := v.guard(); err != nil {
		return Event{}, err
	}
	defer v.op.Unlock()

	usd, err := v.quoteUSD(ctx, asset, amountNative, true)
	if err != nil {
		return Event{}, err
	}

	// Native deposits arrive bundled with the call; token amounts must be
	// pulled from the caller before bookkeeping is finalized.
	if !asset.IsNative() {
		if err := v.transfer.Pull(ctx, asset, account, amountNative); err != nil {
			return Event{}, fmt.Errorf("%w: pull: %v", ErrTransferFailed, err)
		}
	}

	v.mu.RLock()
	total := v.totalUSD
	v.mu.RUnlock()

	if total.Add(usd).GreaterThan(v.cfg.BankCapUSD) {
		available := decimal.Max(v.cfg.BankCapUSD.Sub(total), decimal.Zero)
		capErr := &BankCapExceededError{AttemptedUSD: usd, AvailableUSD: available}

		// The amount is already in custody; it must go back before failing.
		if err := v.transfer.Push(ctx, asset, account, amountNative); err != nil {
			return Event{}, errors.Join(capErr, fmt.Errorf("%w: refund: %v", ErrTransferFailed, err))
		}

		ev := newEvent(EventBankCapExceeded)
		ev.Account = account
		ev.Asset = asset.String()
		ev.AttemptedUSD = usd
		ev.AvailableUSD = available
		if err := v.events.Append(ctx, ev); err != nil {
			return Event{}, errors.Join(capErr, err)
		}
		return Event{}, capErr
	}

	key := balanceKey{account: account, asset: asset.String()}
	v.mu.Lock()
	newBalance := v.balances[key].Add(amountNative)
	v.balances[key] = newBalance
	v.totalUSD = v.totalUSD.Add(usd)
	v.depositCount++
	v.mu.Unlock()

	ev := newEvent(EventDeposit)
	ev.Account = account
	ev.Asset = asset.String()
	ev.Amount = amountNative
	ev.NewBalance = newBalance
	ev.USDValue = usd
	if err := v.events.Append(ctx, ev); err != nil {
		return ev, fmt.Errorf("record deposit: %w", err)
	}
	return ev, nil
}

// Withdraw debits amountNative of asset from account and pushes it out.
// Bookkeeping is mutated before the external transfer; a transfer failure
// rolls the whole unit of work back and fails with ErrTransferFailed.
func (v *Vault) Withdraw(ctx context.Context, account string, asset AssetRef, amountNative decimal.Decimal) (Event, error) {
	if amountNative.Sign() <= 0 || !amountNative.IsInteger() {
		return Event{}, ErrInvalidAmount
	}

	if err := v.guard(); err != nil {
		return Event{}, err
	}
	defer v.op.Unlock()

	precision, source, err := v.resolveAsset(asset, false)
	if err != nil {
		return Event{}, err
	}

	key := balanceKey{account: account, asset: asset.String()}
	v.mu.RLock()
	current := v.balances[key]
	v.mu.RUnlock()

	if amountNative.GreaterThan(current) {
		return Event{}, &InsufficientBalanceError{Current: current, Requested: amountNative}
	}

	usd, err := ToUSD(amountNative, precision, source.LatestQuote(ctx))
	if err != nil {
		return Event{}, err
	}
	if usd.GreaterThan(v.cfg.WithdrawalLimitUSD) {
		return Event{}, &WithdrawalLimitError{RequestedUSD: usd, LimitUSD: v.cfg.WithdrawalLimitUSD}
	}

	v.mu.Lock()
	prevBalance := v.balances[key]
	prevTotal := v.totalUSD
	newBalance := prevBalance.Sub(amountNative)
	v.balances[key] = newBalance
	// Floored at zero: per-operation truncation can leave the running
	// total a hair below the exact sum of balances.
	v.totalUSD = decimal.Max(prevTotal.Sub(usd), decimal.Zero)
	v.withdrawCount++
	v.mu.Unlock()

	if err := v.transfer.Push(ctx, asset, account, amountNative); err != nil {
		v.mu.Lock()
		v.balances[key] = prevBalance
		v.totalUSD = prevTotal
		v.withdrawCount--
		v.mu.Unlock()
		return Event{}, fmt.Errorf("%w: push: %v", ErrTransferFailed, err)
	}

	ev := newEvent(EventWithdraw)
	ev.Account = account
	ev.Asset = asset.String()
	ev.Amount = amountNative
	ev.NewBalance = newBalance
	ev.USDValue = usd
	if err := v.events.Append(ctx, ev); err != nil {
		return ev, fmt.Errorf("record withdraw: %w", err)
	}
	return ev, nil
}

// Rescue pushes amount of asset out of pooled custody to destination,
// bypassing per-account balances. Intended only for assets that arrived
// outside the deposit protocol; no bookkeeping invariant is checked.
func (v *Vault) Rescue(ctx context.Context, caller string, asset AssetRef, destination string, amountNative decimal.Decimal) (Event, error) {
	if !v.auth.IsAllowed(caller, CapAdminRescue) {
		return Event{}, ErrUnauthorized
	}
	if asset.IsZero() {
		return Event{}, ErrInvalidAsset
	}
	if amountNative.Sign() <= 0 || !amountNative.IsInteger() {
		return Event{}, ErrInvalidAmount
	}

	if err := v.guard(); err != nil {
		return Event{}, err
	}
	defer v.op.Unlock()

	if err := v.transfer.Push(ctx, asset, destination, amountNative); err != nil {
		return Event{}, fmt.Errorf("%w: push: %v", ErrTransferFailed, err)
	}

	ev := newEvent(EventRescue)
	ev.Asset = asset.String()
	ev.Destination = destination
	ev.Amount = amountNative
	if err := v.events.Append(ctx, ev); err != nil {
		return ev, fmt.Errorf("record rescue: %w", err)
	}
	return ev, nil
}

// ReceiveDirect rejects native-asset credits arriving outside the deposit
// protocol. The vault never accepts unaccounted value silently.
func (v *Vault) ReceiveDirect(from string, amountNative decimal.Decimal) error {
	return ErrUnsolicitedTransfer
}

// BalanceOf returns account's stored balance of asset in native units.
func (v *Vault) BalanceOf(account string, asset AssetRef) decimal.Decimal {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balances[balanceKey{account: account, asset: asset.String()}]
}

// QuoteUSD previews the USD value of amountNative without mutating state.
func (v *Vault) QuoteUSD(ctx context.Context, asset AssetRef, amountNative decimal.Decimal) (decimal.Decimal, error) {
	if amountNative.Sign() < 0 || !amountNative.IsInteger() {
		return decimal.Zero, ErrInvalidAmount
	}
	return v.quoteUSD(ctx, asset, amountNative, false)
}

// WouldExceedCap previews whether depositing amountNative of asset would
// exceed the bank cap, returning the USD value and remaining headroom.
func (v *Vault) WouldExceedCap(ctx context.Context, asset AssetRef, amountNative decimal.Decimal) (bool, decimal.Decimal, decimal.Decimal, error) {
	usd, err := v.QuoteUSD(ctx, asset, amountNative)
	if err != nil {
		return false, decimal.Zero, decimal.Zero, err
	}
	v.mu.RLock()
	total := v.totalUSD
	v.mu.RUnlock()
	available := decimal.Max(v.cfg.BankCapUSD.Sub(total), decimal.Zero)
	return total.Add(usd).GreaterThan(v.cfg.BankCapUSD), usd, available, nil
}

// Stats returns the running USD total and the operation counters as one
// consistent snapshot.
func (v *Vault) Stats() (totalUSD decimal.Decimal, deposits, withdrawals uint64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.totalUSD, v.depositCount, v.withdrawCount
}
