package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// Deposit/mint gateway. Both paths accrue the deposit-side fee into
// FeesOwedInAsset and move the full gross amount into the deposit
// ledger: the fee stays inside the pool and is realized as extra shares
// for the fee recipients only at the next Update.

// MaxDeposit returns the assets still accepted before the deposit cap
// is hit. unbounded is true when no cap is configured (a zero cap), in
// which case remaining is zero and carries no meaning: callers must
// check unbounded before reading remaining.
func (k *Keeper) MaxDeposit(ctx sdk.Context) (remaining math.Int, unbounded bool, err error) {
	cfg := k.GetConfig(ctx)
	if cfg == nil {
		return math.ZeroInt(), false, types.ErrConfigNotSet
	}
	if cfg.DepositCap.IsZero() {
		return math.ZeroInt(), true, nil
	}
	total, err := k.TotalAssets(ctx)
	if err != nil {
		return math.ZeroInt(), false, err
	}
	if total.GTE(cfg.DepositCap) {
		return math.ZeroInt(), false, nil
	}
	return cfg.DepositCap.Sub(total), false, nil
}

// MaxMint returns the shares-equivalent of MaxDeposit. As there,
// remaining is zero and meaningless when unbounded is true.
func (k *Keeper) MaxMint(ctx sdk.Context) (remaining math.Int, unbounded bool, err error) {
	assets, unbounded, err := k.MaxDeposit(ctx)
	if err != nil || unbounded {
		return math.ZeroInt(), unbounded, err
	}
	shares, err := k.ToShares(ctx, assets, types.RoundFloor)
	if err != nil {
		return math.ZeroInt(), false, err
	}
	return shares, false, nil
}

// Deposit moves assets into the pool and mints the fee-adjusted share
// amount to the receiver.
func (k *Keeper) Deposit(ctx sdk.Context, depositor, receiver string, assets math.Int) (shares, fee math.Int, err error) {
	cfg, state, err := k.activeVault(ctx)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if !assets.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}
	if receiver == "" {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidReceiver
	}

	maxAssets, unbounded, err := k.MaxDeposit(ctx)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if !unbounded && assets.GT(maxAssets) {
		return math.ZeroInt(), math.ZeroInt(), types.ErrDepositCapExceeded
	}

	fee = cfg.Fees.DepositFee(assets)
	shares, err = state.ToShares(assets.Sub(fee), types.RoundFloor)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	if err := k.pullAssets(ctx, cfg, depositor, assets); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	state.FeesOwedInAsset = state.FeesOwedInAsset.Add(fee)
	k.SetPoolState(ctx, state)
	k.mintShares(ctx, receiver, shares)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_deposit",
			sdk.NewAttribute("depositor", depositor),
			sdk.NewAttribute("receiver", receiver),
			sdk.NewAttribute("assets", assets.String()),
			sdk.NewAttribute("shares", shares.String()),
			sdk.NewAttribute("fee", fee.String()),
		),
	)
	k.logger.Info("Deposit processed",
		"depositor", depositor,
		"receiver", receiver,
		"assets", assets.String(),
		"shares", shares.String(),
		"fee", fee.String(),
	)
	return shares, fee, nil
}

// Mint mints exactly the requested shares to the receiver, charging the
// grossed-up asset amount so the fee matches the deposit path.
func (k *Keeper) Mint(ctx sdk.Context, depositor, receiver string, shares math.Int) (assetsPaid, fee math.Int, err error) {
	cfg, state, err := k.activeVault(ctx)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if !shares.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}
	if receiver == "" {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidReceiver
	}

	maxShares, unbounded, err := k.MaxMint(ctx)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if !unbounded && shares.GT(maxShares) {
		return math.ZeroInt(), math.ZeroInt(), types.ErrDepositCapExceeded
	}

	assetsPaid, fee, err = cfg.Fees.MintFee(shares, state.RedemptionRate)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	if err := k.pullAssets(ctx, cfg, depositor, assetsPaid); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	state.FeesOwedInAsset = state.FeesOwedInAsset.Add(fee)
	k.SetPoolState(ctx, state)
	k.mintShares(ctx, receiver, shares)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_mint",
			sdk.NewAttribute("depositor", depositor),
			sdk.NewAttribute("receiver", receiver),
			sdk.NewAttribute("assets", assetsPaid.String()),
			sdk.NewAttribute("shares", shares.String()),
			sdk.NewAttribute("fee", fee.String()),
		),
	)
	k.logger.Info("Mint processed",
		"depositor", depositor,
		"receiver", receiver,
		"assets", assetsPaid.String(),
		"shares", shares.String(),
		"fee", fee.String(),
	)
	return assetsPaid, fee, nil
}

// activeVault loads the config and pool state, rejecting when the
// vault is unconfigured or paused.
func (k *Keeper) activeVault(ctx sdk.Context) (*types.VaultConfig, *types.PoolState, error) {
	cfg := k.GetConfig(ctx)
	if cfg == nil {
		return nil, nil, types.ErrConfigNotSet
	}
	state := k.GetPoolState(ctx)
	if state == nil {
		return nil, nil, types.ErrConfigNotSet
	}
	if state.Paused {
		return nil, nil, types.ErrVaultPaused
	}
	return cfg, state, nil
}

// pullAssets moves assets from an external account into the deposit
// ledger account.
func (k *Keeper) pullAssets(ctx sdk.Context, cfg *types.VaultConfig, from string, amount math.Int) error {
	fromAddr, err := sdk.AccAddressFromBech32(from)
	if err != nil {
		return types.ErrInvalidOwner.Wrapf("sender: %v", err)
	}
	coins := sdk.NewCoins(sdk.NewCoin(cfg.AssetDenom, amount))
	return k.bankKeeper.SendCoinsFromAccountToModule(ctx, fromAddr, cfg.DepositAccount, coins)
}

// pushAssets releases assets from the withdraw ledger account to an
// external account.
func (k *Keeper) pushAssets(ctx sdk.Context, cfg *types.VaultConfig, to string, amount math.Int) error {
	toAddr, err := sdk.AccAddressFromBech32(to)
	if err != nil {
		return types.ErrInvalidReceiver.Wrapf("receiver: %v", err)
	}
	coins := sdk.NewCoins(sdk.NewCoin(cfg.AssetDenom, amount))
	return k.bankKeeper.SendCoinsFromModuleToAccount(ctx, cfg.WithdrawAccount, toAddr, coins)
}
