package types

import (
	"testing"

	"cosmossdk.io/math"
)

// TestDepositFee tests deposit fee rounding
func TestDepositFee(t *testing.T) {
	testCases := []struct {
		name     string
		feeBps   uint64
		assets   int64
		expected int64
	}{
		{
			name:     "exact fee at 5 percent",
			feeBps:   500,
			assets:   1000,
			expected: 50,
		},
		{
			name:     "fee rounds up against the depositor",
			feeBps:   500,
			assets:   999,
			expected: 50, // 49.95 rounds up
		},
		{
			name:     "zero fee configured",
			feeBps:   0,
			assets:   1000,
			expected: 0,
		},
		{
			name:     "one basis point on small amount still collects",
			feeBps:   1,
			assets:   1,
			expected: 1, // 0.0001 rounds up
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := FeeConfig{DepositFeeBps: tc.feeBps}
			fee := cfg.DepositFee(math.NewInt(tc.assets))
			if !fee.Equal(math.NewInt(tc.expected)) {
				t.Errorf("expected fee %d, got %s", tc.expected, fee.String())
			}
		})
	}
}

// TestMintFeeSymmetry tests that minting the shares a deposit would
// produce costs exactly that deposit's gross amount
func TestMintFeeSymmetry(t *testing.T) {
	cfg := FeeConfig{DepositFeeBps: 500}
	rate := math.NewInt(10000) // 1:1

	// Deposit path: 1000 assets, fee 50, 950 shares
	assets := math.NewInt(1000)
	fee := cfg.DepositFee(assets)
	if !fee.Equal(math.NewInt(50)) {
		t.Fatalf("expected deposit fee 50, got %s", fee.String())
	}
	shares := MulDiv(assets.Sub(fee), Basis, rate, RoundFloor)
	if !shares.Equal(math.NewInt(950)) {
		t.Fatalf("expected 950 shares, got %s", shares.String())
	}

	// Mint path: requesting those 950 shares must cost the same 1000
	gross, mintFee, err := cfg.MintFee(shares, rate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gross.Equal(assets) {
		t.Errorf("expected gross %s, got %s", assets.String(), gross.String())
	}
	if !mintFee.Equal(fee) {
		t.Errorf("expected mint fee %s, got %s", fee.String(), mintFee.String())
	}
}

// TestMintFeeZeroRate tests mint fee with an uninitialized rate
func TestMintFeeZeroRate(t *testing.T) {
	cfg := FeeConfig{DepositFeeBps: 100}
	_, _, err := cfg.MintFee(math.NewInt(100), math.ZeroInt())
	if err == nil {
		t.Fatal("expected error for zero rate")
	}
}

// TestPlatformFeeTimeProportionality tests that the platform fee scales
// linearly with the elapsed period
func TestPlatformFeeTimeProportionality(t *testing.T) {
	cfg := FeeConfig{PlatformFeeBps: 1000} // 10% per year
	rate := math.NewInt(10000)
	assets := math.NewInt(1_000_000_000)
	shares := assets // 1:1

	// A quarter year should charge exactly a quarter of the annual fee
	quarterYear := SecondsPerYear / 4
	fee := cfg.PlatformFee(rate, rate, assets, shares, shares, quarterYear)
	expected := math.NewInt(25_000_000)
	if !fee.Equal(expected) {
		t.Errorf("expected quarter-year fee %s, got %s", expected.String(), fee.String())
	}

	// A full year charges the full 10%
	fee = cfg.PlatformFee(rate, rate, assets, shares, shares, SecondsPerYear)
	expected = math.NewInt(100_000_000)
	if !fee.Equal(expected) {
		t.Errorf("expected full-year fee %s, got %s", expected.String(), fee.String())
	}

	// Zero elapsed charges nothing
	fee = cfg.PlatformFee(rate, rate, assets, shares, shares, 0)
	if !fee.IsZero() {
		t.Errorf("expected zero fee for zero elapsed, got %s", fee.String())
	}
}

// TestPlatformFeeSnapshots tests that the fee base uses the smaller of
// the before/after snapshots
func TestPlatformFeeSnapshots(t *testing.T) {
	cfg := FeeConfig{PlatformFeeBps: 1000}
	assets := math.NewInt(1_000_000_000)
	shares := assets

	// Rate spiked between marks: the lower current rate is used
	feeSpiked := cfg.PlatformFee(math.NewInt(20000), math.NewInt(10000), assets, shares, shares, SecondsPerYear)
	feeFlat := cfg.PlatformFee(math.NewInt(10000), math.NewInt(10000), assets, shares, shares, SecondsPerYear)
	if !feeSpiked.Equal(feeFlat) {
		t.Errorf("rate spike inflated the fee: %s vs %s", feeSpiked.String(), feeFlat.String())
	}

	// Share supply grew between marks: the smaller last-update supply is used
	grown := shares.MulRaw(2)
	feeGrown := cfg.PlatformFee(math.NewInt(10000), math.NewInt(10000), assets, grown, shares, SecondsPerYear)
	if !feeGrown.Equal(feeFlat) {
		t.Errorf("supply growth inflated the fee: %s vs %s", feeGrown.String(), feeFlat.String())
	}
}

// TestPerformanceFeeHighWaterMark tests the high-water-mark gate
func TestPerformanceFeeHighWaterMark(t *testing.T) {
	cfg := FeeConfig{PerformanceFeeBps: 2000} // 20% of yield
	assets := math.NewInt(1_000_000)

	testCases := []struct {
		name     string
		newRate  int64
		hwm      int64
		expected int64
	}{
		{
			name:     "below high water mark charges nothing",
			newRate:  13000,
			hwm:      15000,
			expected: 0,
		},
		{
			name:     "at high water mark charges nothing",
			newRate:  15000,
			hwm:      15000,
			expected: 0,
		},
		{
			name:     "above high water mark charges on the excess only",
			newRate:  16000,
			hwm:      15000,
			expected: 20_000, // yield 100_000, 20% cut
		},
		{
			name:     "recovery from drawdown is free up to the prior peak",
			newRate:  14999,
			hwm:      15000,
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fee := cfg.PerformanceFee(math.NewInt(tc.newRate), math.NewInt(tc.hwm), assets)
			if !fee.Equal(math.NewInt(tc.expected)) {
				t.Errorf("expected fee %d, got %s", tc.expected, fee.String())
			}
		})
	}
}
