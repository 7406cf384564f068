package vault_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/auth"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/journal"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/pricesource"
	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

type fakeTransfer struct {
	pullErr    error
	pushErr    error
	beforePush func()
	pulls      []string
	pushes     []string
}

func (f *fakeTransfer) Pull(ctx context.Context, asset vault.AssetRef, from string, amount decimal.Decimal) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	f.pulls = append(f.pulls, fmt.Sprintf("%s|%s|%s", asset, from, amount))
	return nil
}

func (f *fakeTransfer) Push(ctx context.Context, asset vault.AssetRef, to string, amount decimal.Decimal) error {
	if f.beforePush != nil {
		f.beforePush()
	}
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, fmt.Sprintf("%s|%s|%s", asset, to, amount))
	return nil
}

type fixture struct {
	vault    *vault.Vault
	transfer *fakeTransfer
	events   *journal.Memory
	native   *pricesource.Static
}

// newFixture builds a vault custodying an 18-digit native asset priced at
// $2000.000000 with a 6-decimal quote.
func newFixture(t *testing.T, bankCapUSD, withdrawalLimitUSD string) *fixture {
	t.Helper()

	authorizer := auth.NewStatic()
	authorizer.Grant("admin", vault.CapConfigureAssets, vault.CapAdminRescue)
	authorizer.Grant("config", vault.CapConfigureAssets)

	native := pricesource.NewStatic("static:native", d("2000000000"), 6)
	transfer := &fakeTransfer{}
	events := journal.NewMemory()

	v, err := vault.New(vault.Config{
		BankCapUSD:         d(bankCapUSD),
		WithdrawalLimitUSD: d(withdrawalLimitUSD),
		NativeSource:       native,
		NativePrecision:    18,
	}, authorizer, transfer, events)
	require.NoError(t, err)

	return &fixture{vault: v, transfer: transfer, events: events, native: native}
}

// registerUSDC adds a 6-digit token priced $1.00 with an 8-decimal quote.
func (f *fixture) registerUSDC(t *testing.T) {
	t.Helper()
	source := pricesource.NewStatic("static:usdc", d("100000000"), 8)
	require.NoError(t, f.vault.Registry().Register(context.Background(), "config", "usdc", 6, source))
}

func (f *fixture) stats() (decimal.Decimal, uint64, uint64) {
	return f.vault.Stats()
}

func TestNew_ValidatesConfig(t *testing.T) {
	native := pricesource.NewStatic("static:native", d("2000000000"), 6)
	authorizer := auth.NewStatic()

	_, err := vault.New(vault.Config{
		BankCapUSD:   decimal.Zero,
		NativeSource: native,
	}, authorizer, &fakeTransfer{}, journal.NewMemory())
	require.Error(t, err)

	_, err = vault.New(vault.Config{
		BankCapUSD: d("1000000"),
	}, authorizer, &fakeTransfer{}, journal.NewMemory())
	require.Error(t, err)

	_, err = vault.New(vault.Config{
		BankCapUSD:   d("1000000"),
		NativeSource: native,
	}, nil, &fakeTransfer{}, journal.NewMemory())
	require.Error(t, err)
}

func TestDeposit_RejectsZeroAndMalformedAmounts(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), decimal.Zero)
	require.ErrorIs(t, err, vault.ErrZeroAmount)

	_, err = f.vault.Deposit(context.Background(), "alice", vault.Native(), d("-1"))
	require.ErrorIs(t, err, vault.ErrInvalidAmount)

	_, err = f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1.5"))
	require.ErrorIs(t, err, vault.ErrInvalidAmount)

	total, deposits, _ := f.stats()
	require.True(t, total.IsZero())
	require.Zero(t, deposits)
}

func TestDeposit_RequiresConfiguredAsset(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Token("usdc"), d("1000000"))
	require.ErrorIs(t, err, vault.ErrAssetNotConfigured)
}

func TestDeposit_CreditsBalanceAndTotal(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	ev, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)
	require.True(t, ev.USDValue.Equal(d("2000000000")), "usd %s", ev.USDValue)
	require.True(t, ev.NewBalance.Equal(d("1000000000000000000")))

	require.True(t, f.vault.BalanceOf("alice", vault.Native()).Equal(d("1000000000000000000")))
	total, deposits, withdrawals := f.stats()
	require.True(t, total.Equal(d("2000000000")))
	require.Equal(t, uint64(1), deposits)
	require.Zero(t, withdrawals)

	// Native funds arrive with the call; nothing is pulled.
	require.Empty(t, f.transfer.pulls)

	recorded := f.events.All()
	require.Len(t, recorded, 1)
	require.Equal(t, vault.EventDeposit, recorded[0].Type)
}

func TestDeposit_PullsTokenAmounts(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.registerUSDC(t)

	ev, err := f.vault.Deposit(context.Background(), "alice", vault.Token("usdc"), d("1000000"))
	require.NoError(t, err)
	require.True(t, ev.USDValue.Equal(d("1000000")), "usd %s", ev.USDValue)

	require.Equal(t, []string{"usdc|alice|1000000"}, f.transfer.pulls)
}

func TestDeposit_PullFailureLeavesNoState(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.registerUSDC(t)
	f.transfer.pullErr = fmt.Errorf("token contract reverted")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Token("usdc"), d("1000000"))
	require.ErrorIs(t, err, vault.ErrTransferFailed)

	require.True(t, f.vault.BalanceOf("alice", vault.Token("usdc")).IsZero())
	total, deposits, _ := f.stats()
	require.True(t, total.IsZero())
	require.Zero(t, deposits)
	require.Empty(t, f.events.All())
}

func TestDeposit_BankCapExceeded(t *testing.T) {
	// $2000 deposit against a $1500 cap.
	f := newFixture(t, "1500000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))

	var capErr *vault.BankCapExceededError
	require.ErrorAs(t, err, &capErr)
	require.True(t, capErr.AttemptedUSD.Equal(d("2000000000")), "attempted %s", capErr.AttemptedUSD)
	require.True(t, capErr.AvailableUSD.Equal(d("1500000000")), "available %s", capErr.AvailableUSD)

	// The bundled amount went back and nothing was committed.
	require.Equal(t, []string{"native|alice|1000000000000000000"}, f.transfer.pushes)
	require.True(t, f.vault.BalanceOf("alice", vault.Native()).IsZero())
	total, deposits, _ := f.stats()
	require.True(t, total.IsZero())
	require.Zero(t, deposits)

	recorded := f.events.All()
	require.Len(t, recorded, 1)
	require.Equal(t, vault.EventBankCapExceeded, recorded[0].Type)
	require.True(t, recorded[0].AttemptedUSD.Equal(d("2000000000")))
	require.True(t, recorded[0].AvailableUSD.Equal(d("1500000000")))
}

func TestDeposit_FillsCapExactly(t *testing.T) {
	// A deposit landing exactly on the cap is allowed; the next one is not.
	f := newFixture(t, "4000000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("2000000000000000000"))
	require.NoError(t, err)

	_, err = f.vault.Deposit(context.Background(), "bob", vault.Native(), d("1000000000000000000"))
	var capErr *vault.BankCapExceededError
	require.ErrorAs(t, err, &capErr)
	require.True(t, capErr.AvailableUSD.IsZero(), "available %s", capErr.AvailableUSD)
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)

	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Native(), d("2000000000000000000"))
	var balErr *vault.InsufficientBalanceError
	require.ErrorAs(t, err, &balErr)
	require.True(t, balErr.Current.Equal(d("1000000000000000000")))
	require.True(t, balErr.Requested.Equal(d("2000000000000000000")))

	// No state change.
	require.True(t, f.vault.BalanceOf("alice", vault.Native()).Equal(d("1000000000000000000")))
	total, _, withdrawals := f.stats()
	require.True(t, total.Equal(d("2000000000")))
	require.Zero(t, withdrawals)
}

func TestWithdraw_LimitEnforcedPerCall(t *testing.T) {
	// $2000 balance, $500 per-withdrawal limit.
	f := newFixture(t, "1000000000000", "500000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)

	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	var limErr *vault.WithdrawalLimitError
	require.ErrorAs(t, err, &limErr)
	require.True(t, limErr.RequestedUSD.Equal(d("2000000000")))
	require.True(t, limErr.LimitUSD.Equal(d("500000000")))

	// A quarter unit is $500 and passes.
	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Native(), d("250000000000000000"))
	require.NoError(t, err)
}

func TestWithdraw_ZeroLimitDisablesWithdrawals(t *testing.T) {
	f := newFixture(t, "1000000000000", "0")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)

	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	var limErr *vault.WithdrawalLimitError
	require.ErrorAs(t, err, &limErr)
}

func TestWithdraw_RoundTripRestoresState(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.registerUSDC(t)

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Token("usdc"), d("2500000"))
	require.NoError(t, err)

	ev, err := f.vault.Withdraw(context.Background(), "alice", vault.Token("usdc"), d("2500000"))
	require.NoError(t, err)
	require.True(t, ev.NewBalance.IsZero())

	require.True(t, f.vault.BalanceOf("alice", vault.Token("usdc")).IsZero())
	total, deposits, withdrawals := f.stats()
	require.True(t, total.IsZero(), "total %s", total)
	require.Equal(t, uint64(1), deposits)
	require.Equal(t, uint64(1), withdrawals)
	require.Equal(t, []string{"usdc|alice|2500000"}, f.transfer.pushes)
}

func TestWithdraw_TransferFailureRollsBack(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)

	f.transfer.pushErr = fmt.Errorf("recipient rejected")
	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.ErrorIs(t, err, vault.ErrTransferFailed)

	// Balance, total and counter all restored.
	require.True(t, f.vault.BalanceOf("alice", vault.Native()).Equal(d("1000000000000000000")))
	total, _, withdrawals := f.stats()
	require.True(t, total.Equal(d("2000000000")))
	require.Zero(t, withdrawals)

	// Only the deposit made it to the journal.
	recorded := f.events.All()
	require.Len(t, recorded, 1)
	require.Equal(t, vault.EventDeposit, recorded[0].Type)
}

func TestReentrantCallFailsAndPreservesState(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("2000000000000000000"))
	require.NoError(t, err)

	var reentrantErr error
	f.transfer.beforePush = func() {
		// Attempted from within the external transfer step of an
		// in-flight withdrawal.
		_, reentrantErr = f.vault.Deposit(context.Background(), "mallory", vault.Native(), d("1000000000000000000"))
	}

	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)
	require.ErrorIs(t, reentrantErr, vault.ErrReentrantCall)

	// The re-entrant attempt left no trace.
	require.True(t, f.vault.BalanceOf("mallory", vault.Native()).IsZero())
	require.True(t, f.vault.BalanceOf("alice", vault.Native()).Equal(d("1000000000000000000")))
	total, deposits, withdrawals := f.stats()
	require.True(t, total.Equal(d("2000000000")))
	require.Equal(t, uint64(1), deposits)
	require.Equal(t, uint64(1), withdrawals)
}

func TestTotalMatchesSumOfBalances(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.registerUSDC(t)

	ops := []struct {
		withdraw bool
		account  string
		asset    vault.AssetRef
		amount   string
	}{
		{false, "alice", vault.Native(), "1000000000000000000"},
		{false, "bob", vault.Token("usdc"), "123456789"},
		{false, "alice", vault.Token("usdc"), "5000001"},
		{true, "alice", vault.Native(), "400000000000000007"},
		{true, "bob", vault.Token("usdc"), "23456789"},
	}

	for _, op := range ops {
		var err error
		if op.withdraw {
			_, err = f.vault.Withdraw(context.Background(), op.account, op.asset, d(op.amount))
		} else {
			_, err = f.vault.Deposit(context.Background(), op.account, op.asset, d(op.amount))
		}
		require.NoError(t, err)

		sum := decimal.Zero
		for _, account := range []string{"alice", "bob"} {
			for _, asset := range []vault.AssetRef{vault.Native(), vault.Token("usdc")} {
				usd, err := f.vault.QuoteUSD(context.Background(), asset, f.vault.BalanceOf(account, asset))
				require.NoError(t, err)
				sum = sum.Add(usd)
			}
		}

		// Per-operation truncation bounds the drift between the
		// running total and the recomputed sum to one USD unit per
		// operation applied so far.
		total, _, _ := f.stats()
		require.True(t, sum.Sub(total).Abs().LessThanOrEqual(d("10")), "total %s sum %s", total, sum)
	}
}

func TestDeregisteredAssetStaysWithdrawable(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.registerUSDC(t)

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Token("usdc"), d("1000000"))
	require.NoError(t, err)

	require.NoError(t, f.vault.Registry().Deregister(context.Background(), "config", "usdc"))

	_, err = f.vault.Deposit(context.Background(), "alice", vault.Token("usdc"), d("1000000"))
	require.ErrorIs(t, err, vault.ErrAssetNotConfigured)

	_, err = f.vault.Withdraw(context.Background(), "alice", vault.Token("usdc"), d("1000000"))
	require.NoError(t, err)
}

func TestInvalidPriceBlocksOperations(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.native.MarkInvalid()

	_, err := f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.ErrorIs(t, err, vault.ErrInvalidPrice)

	_, err = f.vault.QuoteUSD(context.Background(), vault.Native(), d("1000000000000000000"))
	require.ErrorIs(t, err, vault.ErrInvalidPrice)
}

func TestWouldExceedCapPreview(t *testing.T) {
	f := newFixture(t, "3000000000", "10000000000")

	exceeds, usd, available, err := f.vault.WouldExceedCap(context.Background(), vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)
	require.False(t, exceeds)
	require.True(t, usd.Equal(d("2000000000")))
	require.True(t, available.Equal(d("3000000000")))

	_, err = f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)

	exceeds, usd, available, err = f.vault.WouldExceedCap(context.Background(), vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)
	require.True(t, exceeds)
	require.True(t, usd.Equal(d("2000000000")))
	require.True(t, available.Equal(d("1000000000")))

	// Previews never mutate.
	total, deposits, _ := f.stats()
	require.True(t, total.Equal(d("2000000000")))
	require.Equal(t, uint64(1), deposits)
}

func TestRescue_RequiresCapabilityAndSkipsBookkeeping(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")

	_, err := f.vault.Rescue(context.Background(), "alice", vault.Native(), "treasury", d("5"))
	require.ErrorIs(t, err, vault.ErrUnauthorized)

	_, err = f.vault.Deposit(context.Background(), "alice", vault.Native(), d("1000000000000000000"))
	require.NoError(t, err)

	ev, err := f.vault.Rescue(context.Background(), "admin", vault.Native(), "treasury", d("5"))
	require.NoError(t, err)
	require.Equal(t, vault.EventRescue, ev.Type)
	require.Equal(t, "treasury", ev.Destination)

	// Pooled custody moved; ledger balances and totals untouched.
	require.True(t, f.vault.BalanceOf("alice", vault.Native()).Equal(d("1000000000000000000")))
	total, _, _ := f.stats()
	require.True(t, total.Equal(d("2000000000")))
	require.Contains(t, f.transfer.pushes, "native|treasury|5")
}

func TestRescue_TransferFailureSurfaces(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	f.transfer.pushErr = fmt.Errorf("frozen")

	_, err := f.vault.Rescue(context.Background(), "admin", vault.Native(), "treasury", d("5"))
	require.ErrorIs(t, err, vault.ErrTransferFailed)
	require.Empty(t, f.events.All())
}

func TestReceiveDirectIsRejected(t *testing.T) {
	f := newFixture(t, "1000000000000", "10000000000")
	require.ErrorIs(t, f.vault.ReceiveDirect("alice", d("1")), vault.ErrUnsolicitedTransfer)
}
