package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// ClaimRequest fulfils a matured withdrawal request at the current
// redemption rate. Works on both queues: a solver-assisted request that
// nobody completed before maturity can still be claimed by its owner,
// in which case the escrowed solver fee is refunded alongside the
// payout. Returns the net payout and the position withdraw fee taken
// from it.
func (k *Keeper) ClaimRequest(ctx sdk.Context, claimer string, id uint64) (math.Int, math.Int, error) {
	if k.entered {
		return math.ZeroInt(), math.ZeroInt(), types.ErrReentrantCall
	}
	k.entered = true
	defer func() { k.entered = false }()

	cfg, state, err := k.activeVault(ctx)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	req, solver := k.GetRequest(ctx, id)
	if req == nil {
		return math.ZeroInt(), math.ZeroInt(), types.ErrRequestNotFound
	}
	if claimer != req.Owner {
		return math.ZeroInt(), math.ZeroInt(), types.ErrUnauthorized.Wrapf("claimer %s is not the request owner", claimer)
	}
	if !req.IsMature(ctx.BlockTime().Unix()) {
		return math.ZeroInt(), math.ZeroInt(), types.ErrRequestNotMatured.Wrapf("claimable at %d", req.ClaimTime)
	}

	net, fee, err := k.settleRequest(ctx, cfg, state, req)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if solver && req.SolverFee.IsPositive() {
		// Nobody earned the fee; hand it back with the payout.
		if err := k.pushAssets(ctx, cfg, req.Receiver, req.SolverFee); err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
	}
	k.consumeRequest(ctx, id, req, solver)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_withdraw_claimed",
			sdk.NewAttribute("request_id", strconv.FormatUint(id, 10)),
			sdk.NewAttribute("owner", req.Owner),
			sdk.NewAttribute("receiver", req.Receiver),
			sdk.NewAttribute("assets", net.String()),
			sdk.NewAttribute("withdraw_fee", fee.String()),
		),
	)
	k.logger.Info("Withdraw request claimed",
		"request_id", id,
		"owner", req.Owner,
		"assets", net.String(),
	)
	return net, fee, nil
}

// SolverCompleteRequest settles a solver-assisted request ahead of
// maturity. Only requests created with solver completion enabled are
// eligible; the caller earns the escrowed solver fee. Returns the net
// payout and the position withdraw fee taken from it.
func (k *Keeper) SolverCompleteRequest(ctx sdk.Context, solverAddr string, id uint64) (math.Int, math.Int, error) {
	if k.entered {
		return math.ZeroInt(), math.ZeroInt(), types.ErrReentrantCall
	}
	k.entered = true
	defer func() { k.entered = false }()

	cfg, state, err := k.activeVault(ctx)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	req, solver := k.GetRequest(ctx, id)
	if req == nil {
		return math.ZeroInt(), math.ZeroInt(), types.ErrRequestNotFound
	}
	if !solver {
		return math.ZeroInt(), math.ZeroInt(), types.ErrRequestNotSolver
	}

	net, fee, err := k.settleRequest(ctx, cfg, state, req)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if req.SolverFee.IsPositive() {
		if err := k.pushAssets(ctx, cfg, solverAddr, req.SolverFee); err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
	}
	k.consumeRequest(ctx, id, req, true)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_withdraw_solver_completed",
			sdk.NewAttribute("request_id", strconv.FormatUint(id, 10)),
			sdk.NewAttribute("owner", req.Owner),
			sdk.NewAttribute("receiver", req.Receiver),
			sdk.NewAttribute("solver", solverAddr),
			sdk.NewAttribute("assets", net.String()),
			sdk.NewAttribute("withdraw_fee", fee.String()),
			sdk.NewAttribute("solver_fee", req.SolverFee.String()),
		),
	)
	k.logger.Info("Withdraw request solver-completed",
		"request_id", id,
		"solver", solverAddr,
		"assets", net.String(),
	)
	return net, fee, nil
}

// settleRequest values the shares at the current redemption rate,
// enforces the owner's slippage bound against the rate captured at
// request time, accrues the position withdraw fee, and pays the net
// amount to the receiver. Returns (net, fee).
func (k *Keeper) settleRequest(
	ctx sdk.Context,
	cfg *types.VaultConfig,
	state *types.PoolState,
	req *types.WithdrawRequest,
) (math.Int, math.Int, error) {
	value, err := state.ToAssets(req.SharesAmount, types.RoundFloor)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	// Slippage is measured on the raw rate move, before the withdraw
	// fee: the fee is known policy, not loss.
	valueAtRequest := types.MulDiv(req.SharesAmount, req.RateAtRequest, types.Basis, types.RoundFloor)
	minAcceptable := types.MulDiv(
		valueAtRequest,
		math.NewIntFromUint64(types.BasisPoints-req.MaxLossBps),
		types.Basis,
		types.RoundFloor,
	)
	if value.LT(minAcceptable) {
		return math.ZeroInt(), math.ZeroInt(),
			types.ErrMaxLossExceeded.Wrapf("value %s below floor %s", value, minAcceptable)
	}

	fee := types.MulDiv(
		value,
		math.NewIntFromUint64(state.PositionWithdrawFee),
		types.Basis,
		types.RoundCeil,
	)
	net := value.Sub(fee)
	if net.IsNegative() {
		net = math.ZeroInt()
		fee = value
	}
	if fee.IsPositive() {
		state.FeesOwedInAsset = state.FeesOwedInAsset.Add(fee)
		k.SetPoolState(ctx, state)
	}
	if net.IsPositive() {
		if err := k.pushAssets(ctx, cfg, req.Receiver, net); err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
	}
	return net, fee, nil
}
