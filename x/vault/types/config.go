package types

import (
	"encoding/json"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// FeeConfig holds the fee parameters for the current configuration.
type FeeConfig struct {
	DepositFeeBps       uint64   `json:"deposit_fee_bps"`
	PlatformFeeBps      uint64   `json:"platform_fee_bps"` // per year
	PerformanceFeeBps   uint64   `json:"performance_fee_bps"`
	SolverCompletionFee math.Int `json:"solver_completion_fee"` // asset units
}

// FeeDistributionConfig describes how accrued fees are split when
// distributed as newly minted shares.
type FeeDistributionConfig struct {
	StrategistAccount  string `json:"strategist_account"`
	PlatformAccount    string `json:"platform_account"`
	StrategistRatioBps uint64 `json:"strategist_ratio_bps"`
}

// VaultConfig is the full vault configuration. It is owned exclusively
// by the vault and replaced atomically on reconfiguration; there is no
// partial-field update.
type VaultConfig struct {
	DepositAccount       string                `json:"deposit_account"`
	WithdrawAccount      string                `json:"withdraw_account"`
	Strategist           string                `json:"strategist"`
	AssetDenom           string                `json:"asset_denom"`
	DepositCap           math.Int              `json:"deposit_cap"` // 0 = unbounded
	MaxWithdrawFeeBps    uint64                `json:"max_withdraw_fee_bps"`
	WithdrawLockupPeriod int64                 `json:"withdraw_lockup_period"` // seconds
	Fees                 FeeConfig             `json:"fees"`
	FeeDistribution      FeeDistributionConfig `json:"fee_distribution"`
}

// Validate rejects configurations that could make the vault unusable or
// leak value. Every failure names the precondition that broke.
func (c *VaultConfig) Validate() error {
	if c.DepositAccount == "" || c.WithdrawAccount == "" {
		return ErrInvalidConfig.Wrap("deposit and withdraw accounts must be set")
	}
	if _, err := sdk.AccAddressFromBech32(c.Strategist); err != nil {
		return ErrInvalidConfig.Wrap("strategist address invalid")
	}
	if c.AssetDenom == "" {
		return ErrInvalidConfig.Wrap("asset denom must be set")
	}
	if c.DepositCap.IsNil() || c.DepositCap.IsNegative() {
		return ErrInvalidConfig.Wrap("deposit cap must be zero or positive")
	}
	if c.MaxWithdrawFeeBps > BasisPoints {
		return ErrInvalidConfig.Wrap("max withdraw fee exceeds basis points denominator")
	}
	if c.WithdrawLockupPeriod < SecondsPerDay {
		return ErrInvalidConfig.Wrap("withdraw lockup period below one day")
	}
	if c.Fees.DepositFeeBps >= BasisPoints {
		return ErrInvalidConfig.Wrap("deposit fee must be below basis points denominator")
	}
	if c.Fees.PlatformFeeBps > BasisPoints || c.Fees.PerformanceFeeBps > BasisPoints {
		return ErrInvalidConfig.Wrap("platform and performance fees cannot exceed basis points denominator")
	}
	if c.Fees.SolverCompletionFee.IsNil() || c.Fees.SolverCompletionFee.IsNegative() {
		return ErrInvalidConfig.Wrap("solver completion fee must be zero or positive")
	}
	if _, err := sdk.AccAddressFromBech32(c.FeeDistribution.StrategistAccount); err != nil {
		return ErrInvalidConfig.Wrap("fee distribution strategist account invalid")
	}
	if _, err := sdk.AccAddressFromBech32(c.FeeDistribution.PlatformAccount); err != nil {
		return ErrInvalidConfig.Wrap("fee distribution platform account invalid")
	}
	if c.FeeDistribution.StrategistRatioBps > BasisPoints {
		return ErrInvalidConfig.Wrap("strategist ratio exceeds basis points denominator")
	}
	return nil
}

// MaxOutstandingRequests is the per-owner cap on simultaneously
// outstanding withdraw requests, tied to the lockup so the queue cannot
// grow faster than it matures.
func (c *VaultConfig) MaxOutstandingRequests() int {
	return int(c.WithdrawLockupPeriod / SecondsPerDay)
}

// DecodeVaultConfig decodes an opaque configuration blob and validates
// it. The blob format is JSON; callers replace the configuration
// wholesale.
func DecodeVaultConfig(bz []byte) (*VaultConfig, error) {
	var cfg VaultConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return nil, ErrInvalidConfig.Wrapf("decode: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
