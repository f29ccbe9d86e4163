package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "vault"
	StoreKey   = ModuleName
)

// Fixed-point and time denominators
const (
	// BasisPoints is the fixed-point denominator for the redemption rate
	// and every fee/ratio field.
	BasisPoints = 10000

	SecondsPerDay  = int64(24 * 60 * 60)
	SecondsPerYear = int64(365 * 24 * 60 * 60)
)

// Basis is BasisPoints as a math.Int, used in conversion arithmetic.
var Basis = math.NewInt(BasisPoints)

// Rounding selects the direction of the final division in a conversion.
// The caller picks the direction that favors the pool: Ceil when the pool
// would otherwise lose value, Floor when crediting the pool.
type Rounding int

const (
	RoundFloor Rounding = iota
	RoundCeil
)

// MulDiv computes a * b / den with the requested rounding. The
// multiplication happens before the division so no precision is lost;
// math.Int is arbitrary precision, so the intermediate product cannot
// overflow.
func MulDiv(a, b, den math.Int, rounding Rounding) math.Int {
	num := a.Mul(b)
	if rounding == RoundCeil {
		return num.Add(den.SubRaw(1)).Quo(den)
	}
	return num.Quo(den)
}

// PoolState is the single mutable accounting record of the vault.
// Invariants: MaxHistoricalRate >= RedemptionRate at all times, and
// RedemptionRate is never zero after initialization.
type PoolState struct {
	RedemptionRate        math.Int `json:"redemption_rate"`
	MaxHistoricalRate     math.Int `json:"max_historical_rate"`
	LastUpdateTotalShares math.Int `json:"last_update_total_shares"`
	LastUpdateTimestamp   int64    `json:"last_update_timestamp"`
	FeesOwedInAsset       math.Int `json:"fees_owed_in_asset"`
	PositionWithdrawFee   uint64   `json:"position_withdraw_fee"` // bps, advisory for the current period
	Paused                bool     `json:"paused"`
}

// NewPoolState creates the initial pool state at the given rate. The
// high-water mark starts equal to the rate.
func NewPoolState(rate math.Int, now int64) *PoolState {
	return &PoolState{
		RedemptionRate:        rate,
		MaxHistoricalRate:     rate,
		LastUpdateTotalShares: math.ZeroInt(),
		LastUpdateTimestamp:   now,
		FeesOwedInAsset:       math.ZeroInt(),
		PositionWithdrawFee:   0,
		Paused:                false,
	}
}

// ToAssets converts shares to assets at the current redemption rate.
func (p *PoolState) ToAssets(shares math.Int, rounding Rounding) (math.Int, error) {
	if p.RedemptionRate.IsZero() {
		return math.ZeroInt(), ErrZeroRate
	}
	return MulDiv(shares, p.RedemptionRate, Basis, rounding), nil
}

// ToShares converts assets to shares at the current redemption rate.
func (p *PoolState) ToShares(assets math.Int, rounding Rounding) (math.Int, error) {
	if p.RedemptionRate.IsZero() {
		return math.ZeroInt(), ErrZeroRate
	}
	return MulDiv(assets, Basis, p.RedemptionRate, rounding), nil
}

// WithdrawRequest is an immutable deferred withdrawal record. The shares
// were already burned from the owner when the request was created, so a
// request always represents value removed from circulation.
//
// NextID is an intrusive pointer to the same owner's previous request
// (0 = end of list). RateAtRequest is the redemption rate at creation
// time, and is the reference point for the MaxLossBps check at claim.
type WithdrawRequest struct {
	SharesAmount  math.Int `json:"shares_amount"`
	ClaimTime     int64    `json:"claim_time"`
	MaxLossBps    uint64   `json:"max_loss_bps"`
	SolverFee     math.Int `json:"solver_fee"`
	Owner         string   `json:"owner"`
	Receiver      string   `json:"receiver"`
	NextID        uint64   `json:"next_id"`
	RateAtRequest math.Int `json:"rate_at_request"`
}

// IsMature reports whether the lockup has elapsed.
func (r *WithdrawRequest) IsMature(now int64) bool {
	return now >= r.ClaimTime
}

// RateCheckpoint is an append-only record written at each successful
// rate/fee update, for external indexers and rate-history queries.
type RateCheckpoint struct {
	RecordID            string   `json:"record_id"`
	RedemptionRate      math.Int `json:"redemption_rate"`
	MaxHistoricalRate   math.Int `json:"max_historical_rate"`
	TotalShares         math.Int `json:"total_shares"`
	PlatformFeeAccrued  math.Int `json:"platform_fee_accrued"`
	PerformanceFee      math.Int `json:"performance_fee"`
	PositionWithdrawFee uint64   `json:"position_withdraw_fee"`
	Timestamp           int64    `json:"timestamp"`
}

// FeeDistributionRecord is an append-only record of one fee
// distribution: the asset split and the shares minted for it.
type FeeDistributionRecord struct {
	RecordID         string   `json:"record_id"`
	StrategistAssets math.Int `json:"strategist_assets"`
	PlatformAssets   math.Int `json:"platform_assets"`
	StrategistShares math.Int `json:"strategist_shares"`
	PlatformShares   math.Int `json:"platform_shares"`
	Rate             math.Int `json:"rate"`
	Timestamp        int64    `json:"timestamp"`
}
