package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// QueryServer defines the vault QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// PoolState returns the current pool accounting state
func (q *QueryServer) PoolState(ctx context.Context) (*types.PoolState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	state := q.keeper.GetPoolState(sdkCtx)
	if state == nil {
		return nil, types.ErrConfigNotSet
	}
	return state, nil
}

// Config returns the current vault configuration
func (q *QueryServer) Config(ctx context.Context) (*types.VaultConfig, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg := q.keeper.GetConfig(sdkCtx)
	if cfg == nil {
		return nil, types.ErrConfigNotSet
	}
	return cfg, nil
}

// TotalAssets returns the asset value of all outstanding shares at the
// current redemption rate.
func (q *QueryServer) TotalAssets(ctx context.Context) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.TotalAssets(sdkCtx)
}

// TotalShares returns the outstanding share supply
func (q *QueryServer) TotalShares(ctx context.Context) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetTotalShares(sdkCtx), nil
}

// ShareBalance returns an account's share balance
func (q *QueryServer) ShareBalance(ctx context.Context, owner string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetShareBalance(sdkCtx, owner), nil
}

// PreviewDeposit returns the shares a deposit of the given assets would
// mint right now, net of the deposit fee. Read-only.
func (q *QueryServer) PreviewDeposit(ctx context.Context, assets math.Int) (shares, fee math.Int, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg := q.keeper.GetConfig(sdkCtx)
	state := q.keeper.GetPoolState(sdkCtx)
	if cfg == nil || state == nil {
		return math.ZeroInt(), math.ZeroInt(), types.ErrConfigNotSet
	}
	if !assets.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}
	fee = cfg.Fees.DepositFee(assets)
	shares, err = state.ToShares(assets.Sub(fee), types.RoundFloor)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	return shares, fee, nil
}

// PreviewMint returns the assets required to mint exactly the given
// shares right now, fee included. Read-only.
func (q *QueryServer) PreviewMint(ctx context.Context, shares math.Int) (assets, fee math.Int, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cfg := q.keeper.GetConfig(sdkCtx)
	state := q.keeper.GetPoolState(sdkCtx)
	if cfg == nil || state == nil {
		return math.ZeroInt(), math.ZeroInt(), types.ErrConfigNotSet
	}
	if !shares.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}
	return cfg.Fees.MintFee(shares, state.RedemptionRate)
}

// PreviewRedeem returns the asset value of the given shares at the
// current rate, before the position withdraw fee.
func (q *QueryServer) PreviewRedeem(ctx context.Context, shares math.Int) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.ToAssets(sdkCtx, shares, types.RoundFloor)
}

// MaxDeposit returns the assets still acceptable under the deposit cap.
// The bool reports whether the cap is unbounded.
func (q *QueryServer) MaxDeposit(ctx context.Context) (math.Int, bool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.MaxDeposit(sdkCtx)
}

// Request returns a withdrawal request by id along with whether it sits
// in the solver-assisted queue.
func (q *QueryServer) Request(ctx context.Context, id uint64) (*types.WithdrawRequest, bool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	req, solver := q.keeper.GetRequest(sdkCtx, id)
	if req == nil {
		return nil, false, types.ErrRequestNotFound
	}
	return req, solver, nil
}

// UserRequests returns all outstanding requests for an owner, most
// recent first, with their ids.
func (q *QueryServer) UserRequests(ctx context.Context, owner string) ([]uint64, []*types.WithdrawRequest, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	ids, requests := q.keeper.GetUserRequests(sdkCtx, owner)
	return ids, requests, nil
}

// RateCheckpoints returns rate history in a time window with pagination
func (q *QueryServer) RateCheckpoints(ctx context.Context, fromTime, toTime int64, offset, limit uint64) ([]*types.RateCheckpoint, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	all := q.keeper.GetRateCheckpoints(sdkCtx, fromTime, toTime)

	total := uint64(len(all))

	// Apply pagination
	if offset >= total {
		return []*types.RateCheckpoint{}, total, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return all[offset:end], total, nil
}

// FeeDistributions returns the fee distribution history
func (q *QueryServer) FeeDistributions(ctx context.Context, offset, limit uint64) ([]*types.FeeDistributionRecord, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	all := q.keeper.GetFeeDistributionRecords(sdkCtx)

	total := uint64(len(all))

	// Apply pagination
	if offset >= total {
		return []*types.FeeDistributionRecord{}, total, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return all[offset:end], total, nil
}
