package types

import (
	"testing"

	"cosmossdk.io/math"
)

// TestMulDivRounding tests both rounding directions
func TestMulDivRounding(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     int64
		den      int64
		rounding Rounding
		expected int64
	}{
		{"floor on exact division", 100, 10, 10, RoundFloor, 100},
		{"ceil on exact division", 100, 10, 10, RoundCeil, 100},
		{"floor drops the remainder", 10, 1, 3, RoundFloor, 3},
		{"ceil keeps the remainder", 10, 1, 3, RoundCeil, 4},
		{"floor of tiny fraction", 1, 1, 10000, RoundFloor, 0},
		{"ceil of tiny fraction", 1, 1, 10000, RoundCeil, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := MulDiv(math.NewInt(tc.a), math.NewInt(tc.b), math.NewInt(tc.den), tc.rounding)
			if !result.Equal(math.NewInt(tc.expected)) {
				t.Errorf("expected %d, got %s", tc.expected, result.String())
			}
		})
	}
}

// TestConversionRoundTrip tests that shares -> assets -> shares never
// credits more than the original amount
func TestConversionRoundTrip(t *testing.T) {
	rates := []int64{10000, 10001, 12345, 15000, 99999}
	amounts := []int64{1, 7, 950, 1_000_000, 123_456_789}

	for _, r := range rates {
		state := NewPoolState(math.NewInt(r), 0)
		for _, a := range amounts {
			shares := math.NewInt(a)
			assets, err := state.ToAssets(shares, RoundFloor)
			if err != nil {
				t.Fatalf("rate %d: unexpected error: %v", r, err)
			}
			back, err := state.ToShares(assets, RoundFloor)
			if err != nil {
				t.Fatalf("rate %d: unexpected error: %v", r, err)
			}
			if back.GT(shares) {
				t.Errorf("rate %d amount %d: round trip gained value, %s > %s",
					r, a, back.String(), shares.String())
			}
		}
	}
}

// TestConversionZeroRate tests defensive handling of a zero rate
func TestConversionZeroRate(t *testing.T) {
	state := &PoolState{RedemptionRate: math.ZeroInt()}

	if _, err := state.ToAssets(math.NewInt(100), RoundFloor); err == nil {
		t.Error("expected error converting shares at zero rate")
	}
	if _, err := state.ToShares(math.NewInt(100), RoundFloor); err == nil {
		t.Error("expected error converting assets at zero rate")
	}
}

// TestNewPoolState tests initial pool state values
func TestNewPoolState(t *testing.T) {
	rate := math.NewInt(10000)
	state := NewPoolState(rate, 1700000000)

	if !state.RedemptionRate.Equal(rate) {
		t.Errorf("expected rate %s, got %s", rate.String(), state.RedemptionRate.String())
	}
	if !state.MaxHistoricalRate.Equal(rate) {
		t.Errorf("expected high water mark %s, got %s", rate.String(), state.MaxHistoricalRate.String())
	}
	if !state.FeesOwedInAsset.IsZero() {
		t.Errorf("expected zero fees owed, got %s", state.FeesOwedInAsset.String())
	}
	if state.LastUpdateTimestamp != 1700000000 {
		t.Errorf("expected timestamp 1700000000, got %d", state.LastUpdateTimestamp)
	}
	if state.Paused {
		t.Error("expected new pool to be unpaused")
	}
}

// TestWithdrawRequestMaturity tests the claim-time boundary
func TestWithdrawRequestMaturity(t *testing.T) {
	req := &WithdrawRequest{ClaimTime: 1000}

	if req.IsMature(999) {
		t.Error("expected request to be immature one second early")
	}
	if !req.IsMature(1000) {
		t.Error("expected request to be mature exactly at claim time")
	}
	if !req.IsMature(1001) {
		t.Error("expected request to be mature after claim time")
	}
}
