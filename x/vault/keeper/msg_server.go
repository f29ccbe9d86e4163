package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// MsgServer defines the vault MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseAmount(s string) (math.Int, error) {
	amount, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), types.ErrInvalidAmount.Wrapf("not an integer: %q", s)
	}
	return amount, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	assets, err := parseAmount(msg.Assets)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	shares, fee, err := m.keeper.Deposit(sdkCtx, msg.Depositor, msg.Receiver, assets)
	if err != nil {
		return nil, err
	}

	return &types.MsgDepositResponse{
		SharesMinted: shares.String(),
		FeeAccrued:   fee.String(),
	}, nil
}

// Mint handles MsgMint
func (m *MsgServer) Mint(ctx context.Context, msg *types.MsgMint) (*types.MsgMintResponse, error) {
	shares, err := parseAmount(msg.Shares)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	assetsPaid, fee, err := m.keeper.Mint(sdkCtx, msg.Depositor, msg.Receiver, shares)
	if err != nil {
		return nil, err
	}

	return &types.MsgMintResponse{
		AssetsPaid: assetsPaid.String(),
		FeeAccrued: fee.String(),
	}, nil
}

// ApproveShares handles MsgApproveShares
func (m *MsgServer) ApproveShares(ctx context.Context, msg *types.MsgApproveShares) (*types.MsgApproveSharesResponse, error) {
	shares, err := parseAmount(msg.Shares)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.ApproveShares(sdkCtx, msg.Owner, msg.Spender, shares); err != nil {
		return nil, err
	}
	return &types.MsgApproveSharesResponse{}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	shares, err := parseAmount(msg.Shares)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	id, err := m.keeper.Withdraw(sdkCtx, msg.Caller, msg.Owner, msg.Receiver, shares, msg.MaxLossBps, msg.AllowSolverCompletion)
	if err != nil {
		return nil, err
	}

	claimTime := int64(0)
	if req, _ := m.keeper.GetRequest(sdkCtx, id); req != nil {
		claimTime = req.ClaimTime
	}
	return &types.MsgWithdrawResponse{
		RequestID: id,
		ClaimTime: claimTime,
	}, nil
}

// ClaimRequest handles MsgClaimRequest
func (m *MsgServer) ClaimRequest(ctx context.Context, msg *types.MsgClaimRequest) (*types.MsgClaimRequestResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	paid, fee, err := m.keeper.ClaimRequest(sdkCtx, msg.Claimer, msg.RequestID)
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimRequestResponse{
		AssetsPaid: paid.String(),
		FeeApplied: fee.String(),
	}, nil
}

// SolverComplete handles MsgSolverComplete
func (m *MsgServer) SolverComplete(ctx context.Context, msg *types.MsgSolverComplete) (*types.MsgSolverCompleteResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	req, _ := m.keeper.GetRequest(sdkCtx, msg.RequestID)
	paid, _, err := m.keeper.SolverCompleteRequest(sdkCtx, msg.Solver, msg.RequestID)
	if err != nil {
		return nil, err
	}

	solverFee := math.ZeroInt()
	if req != nil {
		solverFee = req.SolverFee
	}
	return &types.MsgSolverCompleteResponse{
		AssetsPaid: paid.String(),
		SolverFee:  solverFee.String(),
	}, nil
}

// UpdateRate handles MsgUpdateRate
func (m *MsgServer) UpdateRate(ctx context.Context, msg *types.MsgUpdateRate) (*types.MsgUpdateRateResponse, error) {
	newRate, err := parseAmount(msg.NewRate)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	distributed, err := m.keeper.Update(sdkCtx, msg.Strategist, newRate, msg.NewWithdrawFee)
	if err != nil {
		return nil, err
	}

	state := m.keeper.GetPoolState(sdkCtx)
	return &types.MsgUpdateRateResponse{
		RedemptionRate:    state.RedemptionRate.String(),
		MaxHistoricalRate: state.MaxHistoricalRate.String(),
		FeesDistributed:   distributed.String(),
	}, nil
}

// SetConfig handles MsgSetConfig
func (m *MsgServer) SetConfig(ctx context.Context, msg *types.MsgSetConfig) (*types.MsgSetConfigResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetConfig(sdkCtx, msg.Authority, msg.ConfigBlob); err != nil {
		return nil, err
	}
	return &types.MsgSetConfigResponse{}, nil
}

// SetPause handles MsgSetPause
func (m *MsgServer) SetPause(ctx context.Context, msg *types.MsgSetPause) (*types.MsgSetPauseResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetPaused(sdkCtx, msg.Caller, msg.Paused); err != nil {
		return nil, err
	}
	return &types.MsgSetPauseResponse{}, nil
}
