package types

import (
	"cosmossdk.io/math"
)

// VaultService defines the interface the HTTP gateway expects from a
// vault backend. Amount fields are math.Int in base units; responses
// render them as decimal strings.
type VaultService interface {
	// State queries
	GetPoolState() (*PoolStateInfo, error)
	GetConfig() (*ConfigInfo, error)
	GetUserBalance(user string) (*UserBalance, error)
	GetRateHistory(fromTime, toTime int64) ([]*RatePoint, error)
	GetFeeDistributions(limit int) ([]*FeeDistributionInfo, error)

	// Estimates
	EstimateDeposit(amount math.Int) (*DepositEstimate, error)
	EstimateMint(shares math.Int) (*MintEstimate, error)
	EstimateRedeem(shares math.Int) (*RedeemEstimate, error)

	// Transactions
	Deposit(user, receiver string, amount math.Int) (*DepositResult, error)
	Mint(user, receiver string, shares math.Int) (*MintResult, error)
	RequestWithdrawal(user, receiver string, shares math.Int, maxLossBps uint64, solver bool) (*WithdrawalResult, error)
	ClaimWithdrawal(user string, requestID uint64) (*ClaimResult, error)
	CompleteWithdrawal(solver string, requestID uint64) (*ClaimResult, error)

	// Queue queries
	GetPendingWithdrawals(limit int) ([]*RequestInfo, error)
	GetUserRequests(user string) ([]*RequestInfo, error)

	// Strategist operations
	UpdateRate(strategist string, newRate math.Int, newWithdrawFeeBps uint64) (*UpdateResult, error)
}

// Data types for the vault service

type PoolStateInfo struct {
	RedemptionRate    string `json:"redemption_rate"`
	MaxHistoricalRate string `json:"max_historical_rate"`
	TotalShares       string `json:"total_shares"`
	TotalAssets       string `json:"total_assets"`
	FeesOwed          string `json:"fees_owed"`
	WithdrawFeeBps    uint64 `json:"withdraw_fee_bps"`
	LastUpdateTime    int64  `json:"last_update_time"`
	Paused            bool   `json:"paused"`
}

type ConfigInfo struct {
	Strategist           string `json:"strategist"`
	AssetDenom           string `json:"asset_denom"`
	DepositCap           string `json:"deposit_cap"`
	MaxWithdrawFeeBps    uint64 `json:"max_withdraw_fee_bps"`
	WithdrawLockupPeriod int64  `json:"withdraw_lockup_period"`
	DepositFeeBps        uint64 `json:"deposit_fee_bps"`
	PlatformFeeBps       uint64 `json:"platform_fee_bps"`
	PerformanceFeeBps    uint64 `json:"performance_fee_bps"`
	SolverCompletionFee  string `json:"solver_completion_fee"`
}

type UserBalance struct {
	User        string `json:"user"`
	Shares      string `json:"shares"`
	AssetValue  string `json:"asset_value"`
	ShareOfPool string `json:"share_of_pool_bps"`
}

type RatePoint struct {
	Timestamp         int64  `json:"timestamp"`
	Rate              string `json:"rate"`
	MaxHistoricalRate string `json:"max_historical_rate"`
	FeesDistributed   string `json:"fees_distributed"`
}

type FeeDistributionInfo struct {
	RecordID         string `json:"record_id"`
	Timestamp        int64  `json:"timestamp"`
	TotalAssets      string `json:"total_assets"`
	StrategistAssets string `json:"strategist_assets"`
	PlatformAssets   string `json:"platform_assets"`
	StrategistShares string `json:"strategist_shares"`
	PlatformShares   string `json:"platform_shares"`
}

type DepositEstimate struct {
	Amount         string `json:"amount"`
	Fee            string `json:"fee"`
	SharesExpected string `json:"shares_expected"`
}

type MintEstimate struct {
	Shares       string `json:"shares"`
	Fee          string `json:"fee"`
	AssetsNeeded string `json:"assets_needed"`
}

type RedeemEstimate struct {
	Shares         string `json:"shares"`
	AssetsExpected string `json:"assets_expected"`
	WithdrawFee    string `json:"withdraw_fee"`
}

type DepositResult struct {
	User      string `json:"user"`
	Receiver  string `json:"receiver"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
	Shares    string `json:"shares"`
	Timestamp int64  `json:"timestamp"`
}

type MintResult struct {
	User       string `json:"user"`
	Receiver   string `json:"receiver"`
	Shares     string `json:"shares"`
	Fee        string `json:"fee"`
	AssetsPaid string `json:"assets_paid"`
	Timestamp  int64  `json:"timestamp"`
}

type WithdrawalResult struct {
	RequestID  uint64 `json:"request_id"`
	Owner      string `json:"owner"`
	Receiver   string `json:"receiver"`
	Shares     string `json:"shares"`
	ClaimTime  int64  `json:"claim_time"`
	SolverFee  string `json:"solver_fee"`
	MaxLossBps uint64 `json:"max_loss_bps"`
}

type ClaimResult struct {
	RequestID uint64 `json:"request_id"`
	Receiver  string `json:"receiver"`
	AssetsNet string `json:"assets_net"`
	Timestamp int64  `json:"timestamp"`
}

type RequestInfo struct {
	RequestID     uint64 `json:"request_id"`
	Owner         string `json:"owner"`
	Receiver      string `json:"receiver"`
	Shares        string `json:"shares"`
	ClaimTime     int64  `json:"claim_time"`
	Mature        bool   `json:"mature"`
	MaxLossBps    uint64 `json:"max_loss_bps"`
	SolverFee     string `json:"solver_fee"`
	RateAtRequest string `json:"rate_at_request"`
}

type UpdateResult struct {
	NewRate           string `json:"new_rate"`
	MaxHistoricalRate string `json:"max_historical_rate"`
	WithdrawFeeBps    uint64 `json:"withdraw_fee_bps"`
	FeesDistributed   string `json:"fees_distributed"`
	Timestamp         int64  `json:"timestamp"`
}
