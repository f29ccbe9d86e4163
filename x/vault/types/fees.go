package types

import (
	"cosmossdk.io/math"
)

// Fee calculator. All functions are pure given the current/previous
// state snapshots passed in; nothing here reads or writes vault state.

// DepositFee returns the fee charged on a deposit of the given assets,
// rounded up so the pool never undercollects.
func (c *FeeConfig) DepositFee(assets math.Int) math.Int {
	if c.DepositFeeBps == 0 {
		return math.ZeroInt()
	}
	return MulDiv(assets, math.NewIntFromUint64(c.DepositFeeBps), Basis, RoundCeil)
}

// MintFee returns the gross assets required to mint exactly the given
// shares at the given rate, and the fee portion of that gross amount.
// The gross-up is the inverse of DepositFee: paying gross through the
// deposit path yields exactly these shares, so deposit and mint stay
// symmetric.
func (c *FeeConfig) MintFee(shares, rate math.Int) (gross, fee math.Int, err error) {
	if rate.IsZero() {
		return math.ZeroInt(), math.ZeroInt(), ErrZeroRate
	}
	base := MulDiv(shares, rate, Basis, RoundCeil)
	if c.DepositFeeBps == 0 {
		return base, math.ZeroInt(), nil
	}
	den := Basis.Sub(math.NewIntFromUint64(c.DepositFeeBps))
	gross = MulDiv(base, Basis, den, RoundCeil)
	return gross, gross.Sub(base), nil
}

// PlatformFee returns the time-weighted platform fee for the period
// since the last update.
//
// The fee base is computed from min(currentShares, lastUpdateShares)
// valued at min(newRate, currentRate), clamped to currentAssets, so a
// flash spike in either the share supply or the rate between marks
// cannot inflate the fee. The multiplication chain completes before any
// division to preserve precision.
func (c *FeeConfig) PlatformFee(newRate, currentRate, currentAssets, currentShares, lastUpdateShares math.Int, elapsedSeconds int64) math.Int {
	if c.PlatformFeeBps == 0 || elapsedSeconds <= 0 {
		return math.ZeroInt()
	}
	sharesToUse := math.MinInt(currentShares, lastUpdateShares)
	rateToUse := math.MinInt(newRate, currentRate)
	assetsToChargeFees := math.MinInt(MulDiv(sharesToUse, rateToUse, Basis, RoundFloor), currentAssets)

	num := assetsToChargeFees.
		Mul(math.NewIntFromUint64(c.PlatformFeeBps)).
		Mul(math.NewInt(elapsedSeconds))
	den := Basis.Mul(math.NewInt(SecondsPerYear))
	return num.Quo(den)
}

// PerformanceFee returns the high-water-mark performance fee: a cut of
// the yield above the highest rate ever recorded. Recovery from a
// drawdown up to the prior peak is never charged.
func (c *FeeConfig) PerformanceFee(newRate, maxHistoricalRate, currentAssets math.Int) math.Int {
	if c.PerformanceFeeBps == 0 || newRate.LTE(maxHistoricalRate) {
		return math.ZeroInt()
	}
	yield := MulDiv(currentAssets, newRate.Sub(maxHistoricalRate), Basis, RoundFloor)
	return MulDiv(yield, math.NewIntFromUint64(c.PerformanceFeeBps), Basis, RoundFloor)
}
