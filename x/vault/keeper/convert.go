package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// Conversion engine. Shares and assets map through the single scalar
// redemption rate; the rounding direction is always chosen by the
// caller so each operation rounds in the pool's favor.

// ToAssets converts shares to assets at the current redemption rate
func (k *Keeper) ToAssets(ctx sdk.Context, shares math.Int, rounding types.Rounding) (math.Int, error) {
	state := k.GetPoolState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrConfigNotSet
	}
	return state.ToAssets(shares, rounding)
}

// ToShares converts assets to shares at the current redemption rate
func (k *Keeper) ToShares(ctx sdk.Context, assets math.Int, rounding types.Rounding) (math.Int, error) {
	state := k.GetPoolState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrConfigNotSet
	}
	return state.ToShares(assets, rounding)
}

// TotalAssets returns the pool's total value. It is always derived from
// the share supply, never tracked separately, so the two can never
// drift apart.
func (k *Keeper) TotalAssets(ctx sdk.Context) (math.Int, error) {
	return k.ToAssets(ctx, k.GetTotalShares(ctx), types.RoundFloor)
}
