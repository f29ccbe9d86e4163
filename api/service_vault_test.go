package api

import (
	"errors"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	vaulttypes "github.com/openalpha/poolvault/x/vault/types"
)

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

var (
	strategistAddr = testAddr("strategist")
	aliceAddr      = testAddr("alice")
	bobAddr        = testAddr("bob")
)

func newTestService(t *testing.T) *VaultKeeperService {
	t.Helper()
	svc, err := NewVaultKeeperService(log.NewNopLogger(), strategistAddr)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestServiceDepositAndBalance(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Deposit(aliceAddr, "", math.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if result.Receiver != aliceAddr {
		t.Errorf("expected receiver to default to depositor, got %s", result.Receiver)
	}
	// 10 bps deposit fee at a 1:1 rate: 1_000_000 in, 1_000 fee, the
	// rest becomes shares
	if result.Fee != "1000" {
		t.Errorf("expected fee 1000, got %s", result.Fee)
	}
	if result.Shares != "999000" {
		t.Errorf("expected 999000 shares, got %s", result.Shares)
	}

	balance, err := svc.GetUserBalance(aliceAddr)
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Shares != "999000" {
		t.Errorf("expected balance 999000, got %s", balance.Shares)
	}
	if balance.AssetValue != "999000" {
		t.Errorf("expected asset value 999000 at 1:1 rate, got %s", balance.AssetValue)
	}
	if balance.ShareOfPool != "10000" {
		t.Errorf("sole depositor should own the whole pool, got %s bps", balance.ShareOfPool)
	}
}

func TestServiceEstimateMatchesDeposit(t *testing.T) {
	svc := newTestService(t)

	amount := math.NewInt(500_000)
	estimate, err := svc.EstimateDeposit(amount)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	result, err := svc.Deposit(aliceAddr, "", amount)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if estimate.SharesExpected != result.Shares {
		t.Errorf("estimate promised %s shares, deposit minted %s", estimate.SharesExpected, result.Shares)
	}
	if estimate.Fee != result.Fee {
		t.Errorf("estimate fee %s, actual fee %s", estimate.Fee, result.Fee)
	}
}

func TestServiceMintGrossUp(t *testing.T) {
	svc := newTestService(t)

	shares := math.NewInt(100_000)
	estimate, err := svc.EstimateMint(shares)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	result, err := svc.Mint(aliceAddr, "", shares)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if result.Shares != shares.String() {
		t.Errorf("mint must deliver exactly the requested shares, got %s", result.Shares)
	}
	if estimate.AssetsNeeded != result.AssetsPaid {
		t.Errorf("estimate charged %s, mint charged %s", estimate.AssetsNeeded, result.AssetsPaid)
	}

	balance, err := svc.GetUserBalance(aliceAddr)
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Shares != shares.String() {
		t.Errorf("expected %s shares, got %s", shares, balance.Shares)
	}
}

func TestServiceWithdrawalQueue(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Deposit(aliceAddr, "", math.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := svc.Deposit(bobAddr, "", math.NewInt(2_000_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	first, err := svc.RequestWithdrawal(aliceAddr, "", math.NewInt(100_000), 50, false)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	second, err := svc.RequestWithdrawal(bobAddr, "", math.NewInt(200_000), 50, true)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if second.RequestID <= first.RequestID {
		t.Errorf("request ids must be increasing: %d then %d", first.RequestID, second.RequestID)
	}
	if second.SolverFee == "0" {
		t.Error("solver-assisted request should carry a completion fee")
	}

	pending, err := svc.GetPendingWithdrawals(10)
	if err != nil {
		t.Fatalf("pending query failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending requests, got %d", len(pending))
	}
	// Same block time means equal maturity; the id breaks the tie
	if pending[0].RequestID != first.RequestID {
		t.Errorf("expected request %d first in queue, got %d", first.RequestID, pending[0].RequestID)
	}
	if pending[0].Mature {
		t.Error("fresh request must not be mature before the lockup elapses")
	}

	aliceReqs, err := svc.GetUserRequests(aliceAddr)
	if err != nil {
		t.Fatalf("user request query failed: %v", err)
	}
	if len(aliceReqs) != 1 || aliceReqs[0].RequestID != first.RequestID {
		t.Errorf("expected alice to own exactly request %d", first.RequestID)
	}

	// Claiming before maturity must fail with the maturity error. A
	// not-found here would mean the self-service map lookup never
	// reached the keeper.
	if _, err := svc.ClaimWithdrawal(aliceAddr, first.RequestID); !errors.Is(err, vaulttypes.ErrRequestNotMatured) {
		t.Errorf("expected not-matured claim error, got %v", err)
	}
	pending, _ = svc.GetPendingWithdrawals(10)
	if len(pending) != 2 {
		t.Errorf("failed claim must not shrink the queue, got %d", len(pending))
	}
}

func TestServiceUpdateRateAndHistory(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Deposit(aliceAddr, "", math.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	// Only the strategist can mark
	if _, err := svc.UpdateRate(aliceAddr, math.NewInt(10100), 20); err == nil {
		t.Error("expected non-strategist update to be rejected")
	}

	result, err := svc.UpdateRate(strategistAddr, math.NewInt(10100), 20)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if result.NewRate != "10100" {
		t.Errorf("expected rate 10100, got %s", result.NewRate)
	}
	if result.MaxHistoricalRate != "10100" {
		t.Errorf("rate above the old high water mark must raise it, got %s", result.MaxHistoricalRate)
	}
	if result.WithdrawFeeBps != 20 {
		t.Errorf("expected withdraw fee 20 bps, got %d", result.WithdrawFeeBps)
	}

	points, err := svc.GetRateHistory(0, 0)
	if err != nil {
		t.Fatalf("history query failed: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("expected at least one rate checkpoint after an update")
	}
	last := points[len(points)-1]
	if last.Rate != "10100" {
		t.Errorf("latest checkpoint should carry the new rate, got %s", last.Rate)
	}

	// A window that ends before the update must exclude it
	empty, err := svc.GetRateHistory(0, last.Timestamp-1)
	if err != nil {
		t.Fatalf("history query failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no checkpoints before the update, got %d", len(empty))
	}
}

func TestServicePoolState(t *testing.T) {
	svc := newTestService(t)

	state, err := svc.GetPoolState()
	if err != nil {
		t.Fatalf("state query failed: %v", err)
	}
	if state.RedemptionRate != "10000" {
		t.Errorf("fresh vault must start at a 1:1 rate, got %s", state.RedemptionRate)
	}
	if state.TotalShares != "0" {
		t.Errorf("fresh vault has no shares, got %s", state.TotalShares)
	}
	if state.Paused {
		t.Error("fresh vault must not be paused")
	}

	cfg, err := svc.GetConfig()
	if err != nil {
		t.Fatalf("config query failed: %v", err)
	}
	if cfg.Strategist != strategistAddr {
		t.Errorf("expected strategist %s, got %s", strategistAddr, cfg.Strategist)
	}
	if cfg.AssetDenom == "" {
		t.Error("config must carry the asset denom")
	}
}
