package keeper

import (
	"math/big"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/metrics"
	"github.com/openalpha/poolvault/x/vault/types"
)

// EndBlocker is called at the end of each block. The vault has no
// block-driven state transitions; this hook only refreshes telemetry so
// operators can watch the accounting drift between strategist updates.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	blockHeight := ctx.BlockHeight()
	start := time.Now()

	state := k.GetPoolState(ctx)
	if state == nil {
		return nil
	}

	totalShares := k.GetTotalShares(ctx)
	totalAssets, err := state.ToAssets(totalShares, types.RoundFloor)
	if err != nil {
		totalAssets = math.ZeroInt()
	}

	c := metrics.GetCollector()
	c.UpdateAccountingMetrics(
		intToFloat(state.RedemptionRate),
		intToFloat(state.MaxHistoricalRate),
		intToFloat(totalShares),
		intToFloat(totalAssets),
		intToFloat(state.FeesOwedInAsset),
		state.PositionWithdrawFee,
	)
	c.UpdateSystemMetrics(blockHeight, state.Paused)

	duration := time.Since(start)

	k.logger.Debug("Vault EndBlocker completed",
		"block", blockHeight,
		"duration_ms", duration.Milliseconds(),
		"total_shares", totalShares.String(),
		"total_assets", totalAssets.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_endblock",
			sdk.NewAttribute("block_height", math.NewInt(blockHeight).String()),
			sdk.NewAttribute("total_shares", totalShares.String()),
			sdk.NewAttribute("total_assets", totalAssets.String()),
			sdk.NewAttribute("fees_owed", state.FeesOwedInAsset.String()),
		),
	)

	return nil
}

// intToFloat converts an Int to a float64 for metric gauges, losing
// precision beyond 53 bits. Fine for monitoring.
func intToFloat(x math.Int) float64 {
	f, _ := new(big.Float).SetInt(x.BigInt()).Float64()
	return f
}
