package types

import (
	"encoding/json"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

func validConfig() *VaultConfig {
	return &VaultConfig{
		DepositAccount:       "vault_deposit",
		WithdrawAccount:      "vault_withdraw",
		Strategist:           testAddr("strategist"),
		AssetDenom:           "uusdc",
		DepositCap:           math.ZeroInt(),
		MaxWithdrawFeeBps:    100,
		WithdrawLockupPeriod: 7 * SecondsPerDay,
		Fees: FeeConfig{
			DepositFeeBps:       500,
			PlatformFeeBps:      1000,
			PerformanceFeeBps:   2000,
			SolverCompletionFee: math.NewInt(25),
		},
		FeeDistribution: FeeDistributionConfig{
			StrategistAccount:  testAddr("stratfees"),
			PlatformAccount:    testAddr("platfees"),
			StrategistRatioBps: 5000,
		},
	}
}

// TestConfigValidate tests configuration validation
func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*VaultConfig)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *VaultConfig) {},
			wantErr: false,
		},
		{
			name:    "missing deposit account",
			mutate:  func(c *VaultConfig) { c.DepositAccount = "" },
			wantErr: true,
		},
		{
			name:    "invalid strategist address",
			mutate:  func(c *VaultConfig) { c.Strategist = "not-an-address" },
			wantErr: true,
		},
		{
			name:    "missing asset denom",
			mutate:  func(c *VaultConfig) { c.AssetDenom = "" },
			wantErr: true,
		},
		{
			name:    "lockup below one day",
			mutate:  func(c *VaultConfig) { c.WithdrawLockupPeriod = SecondsPerDay - 1 },
			wantErr: true,
		},
		{
			name:    "deposit fee at full basis points",
			mutate:  func(c *VaultConfig) { c.Fees.DepositFeeBps = BasisPoints },
			wantErr: true,
		},
		{
			name:    "negative solver fee",
			mutate:  func(c *VaultConfig) { c.Fees.SolverCompletionFee = math.NewInt(-1) },
			wantErr: true,
		},
		{
			name:    "strategist ratio above denominator",
			mutate:  func(c *VaultConfig) { c.FeeDistribution.StrategistRatioBps = BasisPoints + 1 },
			wantErr: true,
		},
		{
			name:    "max withdraw fee above denominator",
			mutate:  func(c *VaultConfig) { c.MaxWithdrawFeeBps = BasisPoints + 1 },
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

// TestMaxOutstandingRequests tests the per-owner cap derivation
func TestMaxOutstandingRequests(t *testing.T) {
	cfg := validConfig()

	cfg.WithdrawLockupPeriod = 7 * SecondsPerDay
	if got := cfg.MaxOutstandingRequests(); got != 7 {
		t.Errorf("expected cap 7 for a 7 day lockup, got %d", got)
	}

	cfg.WithdrawLockupPeriod = SecondsPerDay
	if got := cfg.MaxOutstandingRequests(); got != 1 {
		t.Errorf("expected cap 1 for a 1 day lockup, got %d", got)
	}
}

// TestDecodeVaultConfig tests blob decode and validation
func TestDecodeVaultConfig(t *testing.T) {
	blob, err := json.Marshal(validConfig())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	cfg, err := DecodeVaultConfig(blob)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if cfg.AssetDenom != "uusdc" {
		t.Errorf("expected denom uusdc, got %s", cfg.AssetDenom)
	}

	if _, err := DecodeVaultConfig([]byte("{not json")); err == nil {
		t.Error("expected error for malformed blob")
	}

	bad := validConfig()
	bad.Strategist = "oops"
	badBlob, _ := json.Marshal(bad)
	if _, err := DecodeVaultConfig(badBlob); err == nil {
		t.Error("expected error for invalid decoded config")
	}
}
