package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/poolvault/x/vault/types"
)

// TestDepositMintsShares tests the basic deposit flow with a fee
func TestDepositMintsShares(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	cfg := testConfig()
	cfg.Fees.DepositFeeBps = 500
	installVault(t, k, ctx, cfg)

	shares, fee, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1000))
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if !shares.Equal(math.NewInt(950)) {
		t.Errorf("expected 950 shares, got %s", shares.String())
	}
	if !fee.Equal(math.NewInt(50)) {
		t.Errorf("expected fee 50, got %s", fee.String())
	}

	// The full gross amount moves into the deposit account
	if got := bank.receivedByModule("vault_deposit"); !got.Equal(math.NewInt(1000)) {
		t.Errorf("expected deposit account to receive 1000, got %s", got.String())
	}

	// The fee is accrued, not minted
	state := k.GetPoolState(ctx)
	if !state.FeesOwedInAsset.Equal(math.NewInt(50)) {
		t.Errorf("expected fees owed 50, got %s", state.FeesOwedInAsset.String())
	}
	if got := k.GetShareBalance(ctx, aliceAddr); !got.Equal(math.NewInt(950)) {
		t.Errorf("expected balance 950, got %s", got.String())
	}
	if got := k.GetTotalShares(ctx); !got.Equal(math.NewInt(950)) {
		t.Errorf("expected total shares 950, got %s", got.String())
	}
}

// TestDepositValidation tests deposit precondition failures
func TestDepositValidation(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.ZeroInt()); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero deposit, got %v", err)
	}
	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(-5)); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative deposit, got %v", err)
	}
	if _, _, err := k.Deposit(ctx, aliceAddr, "", math.NewInt(100)); !errors.Is(err, types.ErrInvalidReceiver) {
		t.Errorf("expected ErrInvalidReceiver, got %v", err)
	}
}

// TestDepositCapBoundary tests that deposits fill the cap exactly and
// stop there
func TestDepositCapBoundary(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	cfg := testConfig()
	cfg.DepositCap = math.NewInt(5000)
	installVault(t, k, ctx, cfg)

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(3000)); err != nil {
		t.Fatalf("first deposit failed: %v", err)
	}
	if _, _, err := k.Deposit(ctx, bobAddr, bobAddr, math.NewInt(2000)); err != nil {
		t.Fatalf("second deposit filling the cap failed: %v", err)
	}

	// The cap is exactly full now
	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1)); !errors.Is(err, types.ErrDepositCapExceeded) {
		t.Errorf("expected ErrDepositCapExceeded, got %v", err)
	}

	total, err := k.TotalAssets(ctx)
	if err != nil {
		t.Fatalf("total assets: %v", err)
	}
	if !total.Equal(math.NewInt(5000)) {
		t.Errorf("expected total assets 5000, got %s", total.String())
	}

	remaining, unbounded, err := k.MaxDeposit(ctx)
	if err != nil {
		t.Fatalf("max deposit: %v", err)
	}
	if unbounded {
		t.Error("expected bounded deposit cap")
	}
	if !remaining.IsZero() {
		t.Errorf("expected zero remaining capacity, got %s", remaining.String())
	}
}

// TestMaxDepositUnbounded tests that a zero cap disables the limit
func TestMaxDepositUnbounded(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	remaining, unbounded, err := k.MaxDeposit(ctx)
	if err != nil {
		t.Fatalf("max deposit: %v", err)
	}
	if !unbounded {
		t.Error("expected unbounded cap for zero deposit cap")
	}
	// remaining is documented as zero and meaningless when unbounded
	if !remaining.IsZero() {
		t.Errorf("expected zero remaining with unbounded cap, got %s", remaining.String())
	}
}

// TestMintMatchesDeposit tests mint/deposit fee symmetry through the
// keeper
func TestMintMatchesDeposit(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	cfg := testConfig()
	cfg.Fees.DepositFeeBps = 500
	installVault(t, k, ctx, cfg)

	assetsPaid, fee, err := k.Mint(ctx, aliceAddr, aliceAddr, math.NewInt(950))
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if !assetsPaid.Equal(math.NewInt(1000)) {
		t.Errorf("expected 1000 assets paid, got %s", assetsPaid.String())
	}
	if !fee.Equal(math.NewInt(50)) {
		t.Errorf("expected fee 50, got %s", fee.String())
	}
	if got := k.GetShareBalance(ctx, aliceAddr); !got.Equal(math.NewInt(950)) {
		t.Errorf("expected balance 950, got %s", got.String())
	}
	if got := bank.receivedByModule("vault_deposit"); !got.Equal(math.NewInt(1000)) {
		t.Errorf("expected deposit account to receive 1000, got %s", got.String())
	}
}

// TestPauseGateBlocksFlows tests that a paused vault rejects every
// user-facing flow
func TestPauseGateBlocksFlows(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1000)); err != nil {
		t.Fatalf("deposit before pause failed: %v", err)
	}

	if err := k.SetPaused(ctx, strategistAddr, true); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(100)); !errors.Is(err, types.ErrVaultPaused) {
		t.Errorf("expected ErrVaultPaused for deposit, got %v", err)
	}
	if _, _, err := k.Mint(ctx, aliceAddr, aliceAddr, math.NewInt(100)); !errors.Is(err, types.ErrVaultPaused) {
		t.Errorf("expected ErrVaultPaused for mint, got %v", err)
	}
	if _, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(100), 0, false); !errors.Is(err, types.ErrVaultPaused) {
		t.Errorf("expected ErrVaultPaused for withdraw, got %v", err)
	}

	if err := k.SetPaused(ctx, authorityAddr, false); err != nil {
		t.Fatalf("unpause failed: %v", err)
	}
	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(100)); err != nil {
		t.Errorf("deposit after unpause failed: %v", err)
	}
}
