package keeper

import (
	"encoding/json"
	"strconv"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/openalpha/poolvault/x/vault/types"
)

// Update is the periodic mark operation and the single serialization
// point for the rate and fee state: it accrues the platform and
// performance fees for the elapsed period, distributes previously
// accrued fees as newly minted shares, then commits the new redemption
// rate, withdraw fee and checkpoint. Only the strategist may call it,
// and any rejected precondition leaves all state untouched. Returns the
// asset value of the fees distributed during this update.
func (k *Keeper) Update(ctx sdk.Context, caller string, newRate math.Int, newWithdrawFee uint64) (math.Int, error) {
	cfg := k.GetConfig(ctx)
	if cfg == nil {
		return math.ZeroInt(), types.ErrConfigNotSet
	}
	if caller != cfg.Strategist {
		return math.ZeroInt(), types.ErrUnauthorized
	}
	if newRate.IsZero() {
		return math.ZeroInt(), types.ErrZeroRate
	}
	if newWithdrawFee > cfg.MaxWithdrawFeeBps {
		return math.ZeroInt(), types.ErrWithdrawFeeTooHigh
	}

	state := k.GetPoolState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrConfigNotSet
	}

	currentShares := k.GetTotalShares(ctx)
	currentAssets, err := state.ToAssets(currentShares, types.RoundFloor)
	if err != nil {
		return math.ZeroInt(), err
	}
	if currentShares.IsZero() || currentAssets.IsZero() {
		return math.ZeroInt(), types.ErrEmptyPool
	}

	now := ctx.BlockTime().Unix()
	elapsed := now - state.LastUpdateTimestamp

	platformFee := cfg.Fees.PlatformFee(
		newRate, state.RedemptionRate,
		currentAssets, currentShares, state.LastUpdateTotalShares,
		elapsed,
	)
	performanceFee := cfg.Fees.PerformanceFee(newRate, state.MaxHistoricalRate, currentAssets)
	state.FeesOwedInAsset = state.FeesOwedInAsset.Add(platformFee).Add(performanceFee)

	// Distribution happens before the rate changes so the fee shares
	// are valued at the rate that produced them.
	distributed := state.FeesOwedInAsset
	if distributed.IsPositive() {
		if err := k.distributeFees(ctx, cfg, state, now); err != nil {
			return math.ZeroInt(), err
		}
	}

	state.RedemptionRate = newRate
	state.PositionWithdrawFee = newWithdrawFee
	state.LastUpdateTotalShares = k.GetTotalShares(ctx)
	state.LastUpdateTimestamp = now
	if newRate.GT(state.MaxHistoricalRate) {
		state.MaxHistoricalRate = newRate
	}
	k.SetPoolState(ctx, state)

	k.addRateCheckpoint(ctx, &types.RateCheckpoint{
		RecordID:            uuid.NewString(),
		RedemptionRate:      state.RedemptionRate,
		MaxHistoricalRate:   state.MaxHistoricalRate,
		TotalShares:         state.LastUpdateTotalShares,
		PlatformFeeAccrued:  platformFee,
		PerformanceFee:      performanceFee,
		PositionWithdrawFee: newWithdrawFee,
		Timestamp:           now,
	})

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_rate_updated",
			sdk.NewAttribute("strategist", caller),
			sdk.NewAttribute("redemption_rate", newRate.String()),
			sdk.NewAttribute("max_historical_rate", state.MaxHistoricalRate.String()),
			sdk.NewAttribute("withdraw_fee_bps", strconv.FormatUint(newWithdrawFee, 10)),
			sdk.NewAttribute("platform_fee", platformFee.String()),
			sdk.NewAttribute("performance_fee", performanceFee.String()),
		),
	)
	k.logger.Info("Rate updated",
		"rate", newRate.String(),
		"hwm", state.MaxHistoricalRate.String(),
		"platform_fee", platformFee.String(),
		"performance_fee", performanceFee.String(),
		"elapsed_seconds", elapsed,
	)
	return distributed, nil
}

// distributeFees splits the accrued fee liability between strategist
// and platform, mints the equivalent shares at the current (pre-update)
// rate with floor rounding, and resets the accumulator.
func (k *Keeper) distributeFees(ctx sdk.Context, cfg *types.VaultConfig, state *types.PoolState, now int64) error {
	owed := state.FeesOwedInAsset
	strategistAssets := types.MulDiv(owed, math.NewIntFromUint64(cfg.FeeDistribution.StrategistRatioBps), types.Basis, types.RoundFloor)
	platformAssets := owed.Sub(strategistAssets)

	strategistShares, err := state.ToShares(strategistAssets, types.RoundFloor)
	if err != nil {
		return err
	}
	platformShares, err := state.ToShares(platformAssets, types.RoundFloor)
	if err != nil {
		return err
	}

	k.mintShares(ctx, cfg.FeeDistribution.StrategistAccount, strategistShares)
	k.mintShares(ctx, cfg.FeeDistribution.PlatformAccount, platformShares)
	state.FeesOwedInAsset = math.ZeroInt()

	k.addFeeDistributionRecord(ctx, &types.FeeDistributionRecord{
		RecordID:         uuid.NewString(),
		StrategistAssets: strategistAssets,
		PlatformAssets:   platformAssets,
		StrategistShares: strategistShares,
		PlatformShares:   platformShares,
		Rate:             state.RedemptionRate,
		Timestamp:        now,
	})

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_fees_distributed",
			sdk.NewAttribute("strategist_assets", strategistAssets.String()),
			sdk.NewAttribute("platform_assets", platformAssets.String()),
			sdk.NewAttribute("strategist_shares", strategistShares.String()),
			sdk.NewAttribute("platform_shares", platformShares.String()),
		),
	)
	k.logger.Info("Fees distributed",
		"strategist_assets", strategistAssets.String(),
		"platform_assets", platformAssets.String(),
	)
	return nil
}

// ============ History Records ============

func rateCheckpointKey(timestamp int64, recordID string) []byte {
	return append(RateCheckpointKeyPrefix, []byte(strconv.FormatInt(timestamp, 10)+":"+recordID)...)
}

func (k *Keeper) addRateCheckpoint(ctx sdk.Context, cp *types.RateCheckpoint) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(cp)
	store.Set(rateCheckpointKey(cp.Timestamp, cp.RecordID), bz)
}

// GetRateCheckpoints retrieves checkpoints in a time window (0 = open end)
func (k *Keeper) GetRateCheckpoints(ctx sdk.Context, fromTime, toTime int64) []*types.RateCheckpoint {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, RateCheckpointKeyPrefix)
	defer iterator.Close()

	var checkpoints []*types.RateCheckpoint
	for ; iterator.Valid(); iterator.Next() {
		var cp types.RateCheckpoint
		if err := json.Unmarshal(iterator.Value(), &cp); err != nil {
			continue
		}
		if (fromTime == 0 || cp.Timestamp >= fromTime) && (toTime == 0 || cp.Timestamp <= toTime) {
			checkpoints = append(checkpoints, &cp)
		}
	}
	return checkpoints
}

func feeDistributionKey(timestamp int64, recordID string) []byte {
	return append(FeeDistributionKeyPrefix, []byte(strconv.FormatInt(timestamp, 10)+":"+recordID)...)
}

func (k *Keeper) addFeeDistributionRecord(ctx sdk.Context, rec *types.FeeDistributionRecord) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(rec)
	store.Set(feeDistributionKey(rec.Timestamp, rec.RecordID), bz)
}

// GetFeeDistributionRecords retrieves all fee distribution records
func (k *Keeper) GetFeeDistributionRecords(ctx sdk.Context) []*types.FeeDistributionRecord {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, FeeDistributionKeyPrefix)
	defer iterator.Close()

	var records []*types.FeeDistributionRecord
	for ; iterator.Valid(); iterator.Next() {
		var rec types.FeeDistributionRecord
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records
}
