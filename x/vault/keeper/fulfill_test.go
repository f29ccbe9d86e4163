package keeper

import (
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

func matureCtx(ctx sdk.Context) sdk.Context {
	return ctx.WithBlockTime(time.Unix(testBaseTime+3*types.SecondsPerDay, 0))
}

// TestClaimRequest tests the self-service claim path
func TestClaimRequest(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	id, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(100), 0, false)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	// Not yet matured
	if _, _, err := k.ClaimRequest(ctx, aliceAddr, id); !errors.Is(err, types.ErrRequestNotMatured) {
		t.Errorf("expected ErrRequestNotMatured, got %v", err)
	}

	// Only the owner may claim
	later := matureCtx(ctx)
	if _, _, err := k.ClaimRequest(later, bobAddr, id); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	paid, _, err := k.ClaimRequest(later, aliceAddr, id)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !paid.Equal(math.NewInt(100)) {
		t.Errorf("expected payout 100, got %s", paid.String())
	}
	if got := bank.receivedByAccount(receiverAddr); !got.Equal(math.NewInt(100)) {
		t.Errorf("expected receiver to get 100, got %s", got.String())
	}

	// The request is consumed
	if req, _ := k.GetRequest(later, id); req != nil {
		t.Error("expected request to be removed after claim")
	}
	if got := k.OutstandingRequestCount(later, aliceAddr); got != 0 {
		t.Errorf("expected 0 outstanding requests, got %d", got)
	}
	if _, _, err := k.ClaimRequest(later, aliceAddr, id); !errors.Is(err, types.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound for double claim, got %v", err)
	}
}

// TestClaimAppliesWithdrawFee tests the position withdraw fee on claim
func TestClaimAppliesWithdrawFee(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(10_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	// Strategist sets a 1% position withdraw fee
	if _, err := k.Update(ctx, strategistAddr, math.NewInt(types.BasisPoints), 100); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	id, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(1000), types.BasisPoints, false)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	later := matureCtx(ctx)
	paid, fee, err := k.ClaimRequest(later, aliceAddr, id)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	// 1000 valued at 1:1, 1% fee rounds up to 10
	if !paid.Equal(math.NewInt(990)) {
		t.Errorf("expected payout 990, got %s", paid.String())
	}
	if !fee.Equal(math.NewInt(10)) {
		t.Errorf("expected fee 10, got %s", fee.String())
	}
	if got := bank.receivedByAccount(receiverAddr); !got.Equal(math.NewInt(990)) {
		t.Errorf("expected receiver to get 990, got %s", got.String())
	}
	state := k.GetPoolState(later)
	if !state.FeesOwedInAsset.Equal(math.NewInt(10)) {
		t.Errorf("expected 10 accrued from the withdraw fee, got %s", state.FeesOwedInAsset.String())
	}
}

// TestClaimMaxLoss tests the slippage bound against the rate captured
// at request time
func TestClaimMaxLoss(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(10_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	// Two requests recorded at rate 1.0: one tolerating 1%, one 3%
	strictID, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(1000), 100, false)
	if err != nil {
		t.Fatalf("strict withdraw failed: %v", err)
	}
	looseID, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(1000), 300, false)
	if err != nil {
		t.Fatalf("loose withdraw failed: %v", err)
	}

	// The rate drops 2% before maturity
	if _, err := k.Update(ctx, strategistAddr, math.NewInt(9800), 0); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	later := matureCtx(ctx)
	if _, _, err := k.ClaimRequest(later, aliceAddr, strictID); !errors.Is(err, types.ErrMaxLossExceeded) {
		t.Errorf("expected ErrMaxLossExceeded, got %v", err)
	}

	// A rejected claim leaves the request intact
	if req, _ := k.GetRequest(later, strictID); req == nil {
		t.Error("expected rejected request to remain outstanding")
	}

	paid, _, err := k.ClaimRequest(later, aliceAddr, looseID)
	if err != nil {
		t.Fatalf("loose claim failed: %v", err)
	}
	if !paid.Equal(math.NewInt(980)) {
		t.Errorf("expected payout 980, got %s", paid.String())
	}
}

// TestSolverComplete tests the solver fast path
func TestSolverComplete(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	selfID, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(100), 0, false)
	if err != nil {
		t.Fatalf("self withdraw failed: %v", err)
	}
	solverID, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(200), 0, true)
	if err != nil {
		t.Fatalf("solver withdraw failed: %v", err)
	}

	// Self-service requests are not solver-completable
	if _, _, err := k.SolverCompleteRequest(ctx, solverAddr, selfID); !errors.Is(err, types.ErrRequestNotSolver) {
		t.Errorf("expected ErrRequestNotSolver, got %v", err)
	}

	// Early completion pays the receiver and the solver immediately
	paid, _, err := k.SolverCompleteRequest(ctx, solverAddr, solverID)
	if err != nil {
		t.Fatalf("solver complete failed: %v", err)
	}
	if !paid.Equal(math.NewInt(200)) {
		t.Errorf("expected payout 200, got %s", paid.String())
	}
	if got := bank.receivedByAccount(receiverAddr); !got.Equal(math.NewInt(200)) {
		t.Errorf("expected receiver to get 200, got %s", got.String())
	}
	if got := bank.receivedByAccount(solverAddr); !got.Equal(math.NewInt(25)) {
		t.Errorf("expected solver to earn 25, got %s", got.String())
	}
	if req, _ := k.GetRequest(ctx, solverID); req != nil {
		t.Error("expected solver request to be consumed")
	}
}

// TestClaimSolverRequestRefundsFee tests that a matured solver request
// claimed by its owner refunds the escrowed fee
func TestClaimSolverRequestRefundsFee(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	id, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(200), 0, true)
	if err != nil {
		t.Fatalf("solver withdraw failed: %v", err)
	}

	later := matureCtx(ctx)
	paid, _, err := k.ClaimRequest(later, aliceAddr, id)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !paid.Equal(math.NewInt(200)) {
		t.Errorf("expected payout 200, got %s", paid.String())
	}

	// Payout plus refunded solver fee
	if got := bank.receivedByAccount(receiverAddr); !got.Equal(math.NewInt(225)) {
		t.Errorf("expected receiver to get 225 including refund, got %s", got.String())
	}
	if got := bank.receivedByAccount(solverAddr); !got.IsZero() {
		t.Errorf("expected solver to earn nothing, got %s", got.String())
	}
}

// TestReentrancyGuard tests that a reentrant call during settlement is
// rejected
func TestReentrancyGuard(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if _, _, err := k.Deposit(ctx, aliceAddr, aliceAddr, math.NewInt(1000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	id, err := k.Withdraw(ctx, aliceAddr, aliceAddr, receiverAddr, math.NewInt(100), 0, false)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	later := matureCtx(ctx)
	var reentrantErr error
	bank.onSendToAccount = func() {
		_, reentrantErr = k.Withdraw(later, aliceAddr, aliceAddr, receiverAddr, math.NewInt(100), 0, false)
	}

	if _, _, err := k.ClaimRequest(later, aliceAddr, id); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !errors.Is(reentrantErr, types.ErrReentrantCall) {
		t.Errorf("expected ErrReentrantCall from nested call, got %v", reentrantErr)
	}
}
