package keeper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

const testBaseTime = int64(1_700_000_000)

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

var (
	authorityAddr  = testAddr("authority")
	strategistAddr = testAddr("strategist")
	aliceAddr      = testAddr("alice")
	bobAddr        = testAddr("bob")
	receiverAddr   = testAddr("receiver")
	solverAddr     = testAddr("solver")
	stratFeesAddr  = testAddr("stratfees")
	platFeesAddr   = testAddr("platfees")
)

// mockBankKeeper records asset movements per module account and per
// external address. A single denom is enough for these tests.
type mockBankKeeper struct {
	moduleIn  map[string]math.Int // module account -> cumulative received
	accountIn map[string]math.Int // external addr -> cumulative received

	// invoked after an outbound transfer, for reentrancy tests
	onSendToAccount func()
}

func newMockBankKeeper() *mockBankKeeper {
	return &mockBankKeeper{
		moduleIn:  make(map[string]math.Int),
		accountIn: make(map[string]math.Int),
	}
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	cur, ok := m.moduleIn[recipientModule]
	if !ok {
		cur = math.ZeroInt()
	}
	m.moduleIn[recipientModule] = cur.Add(amt[0].Amount)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	cur, ok := m.accountIn[recipientAddr.String()]
	if !ok {
		cur = math.ZeroInt()
	}
	m.accountIn[recipientAddr.String()] = cur.Add(amt[0].Amount)
	if m.onSendToAccount != nil {
		m.onSendToAccount()
	}
	return nil
}

func (m *mockBankKeeper) receivedByModule(module string) math.Int {
	if v, ok := m.moduleIn[module]; ok {
		return v
	}
	return math.ZeroInt()
}

func (m *mockBankKeeper) receivedByAccount(addr string) math.Int {
	if v, ok := m.accountIn[addr]; ok {
		return v
	}
	return math.ZeroInt()
}

// setupKeeper creates a test keeper with an in-memory store
func setupKeeper(tb testing.TB) (*Keeper, sdk.Context, *mockBankKeeper) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())
	ctx = ctx.WithBlockTime(time.Unix(testBaseTime, 0))

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := newMockBankKeeper()
	keeper := NewKeeper(cdc, storeKey, bank, authorityAddr, log.NewNopLogger())

	return keeper, ctx, bank
}

// testConfig returns a valid baseline configuration; tests mutate it
// before installing.
func testConfig() *types.VaultConfig {
	return &types.VaultConfig{
		DepositAccount:       "vault_deposit",
		WithdrawAccount:      "vault_withdraw",
		Strategist:           strategistAddr,
		AssetDenom:           "uusdc",
		DepositCap:           math.ZeroInt(),
		MaxWithdrawFeeBps:    100,
		WithdrawLockupPeriod: 3 * types.SecondsPerDay,
		Fees: zeroFees(),
		FeeDistribution: types.FeeDistributionConfig{
			StrategistAccount:  stratFeesAddr,
			PlatformAccount:    platFeesAddr,
			StrategistRatioBps: 5000,
		},
	}
}

// zeroFees returns a fee config with everything off
func zeroFees() types.FeeConfig {
	return types.FeeConfig{
		DepositFeeBps:       0,
		PlatformFeeBps:      0,
		PerformanceFeeBps:   0,
		SolverCompletionFee: math.NewInt(25),
	}
}

// installVault installs the config and initializes the pool at 1:1
func installVault(tb testing.TB, k *Keeper, ctx sdk.Context, cfg *types.VaultConfig) {
	tb.Helper()
	blob, err := json.Marshal(cfg)
	if err != nil {
		tb.Fatalf("marshal config: %v", err)
	}
	if err := k.SetConfig(ctx, authorityAddr, blob); err != nil {
		tb.Fatalf("set config: %v", err)
	}
	if err := k.InitPool(ctx, math.NewInt(types.BasisPoints)); err != nil {
		tb.Fatalf("init pool: %v", err)
	}
}

// TestInitPool tests pool initialization invariants
func TestInitPool(t *testing.T) {
	k, ctx, _ := setupKeeper(t)

	if err := k.InitPool(ctx, math.ZeroInt()); err == nil {
		t.Error("expected error initializing with zero rate")
	}

	if err := k.InitPool(ctx, math.NewInt(types.BasisPoints)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := k.InitPool(ctx, math.NewInt(types.BasisPoints)); err == nil {
		t.Error("expected error initializing twice")
	}

	state := k.GetPoolState(ctx)
	if state == nil {
		t.Fatal("expected pool state after init")
	}
	if !state.MaxHistoricalRate.Equal(state.RedemptionRate) {
		t.Errorf("expected high water mark equal to rate, got %s vs %s",
			state.MaxHistoricalRate.String(), state.RedemptionRate.String())
	}
	if state.LastUpdateTimestamp != testBaseTime {
		t.Errorf("expected timestamp %d, got %d", testBaseTime, state.LastUpdateTimestamp)
	}
}

// TestSetConfigAuthority tests that only the vault owner may replace
// the configuration, and a bad blob leaves the old one untouched
func TestSetConfigAuthority(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	cfg := testConfig()
	blob, _ := json.Marshal(cfg)

	if err := k.SetConfig(ctx, strategistAddr, blob); err == nil {
		t.Error("expected error for non-owner caller")
	}
	if err := k.SetConfig(ctx, authorityAddr, blob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Invalid replacement keeps the stored config
	if err := k.SetConfig(ctx, authorityAddr, []byte("{broken")); err == nil {
		t.Error("expected error for malformed blob")
	}
	bad := testConfig()
	bad.Strategist = "invalid"
	badBlob, _ := json.Marshal(bad)
	if err := k.SetConfig(ctx, authorityAddr, badBlob); err == nil {
		t.Error("expected error for invalid config")
	}

	stored := k.GetConfig(ctx)
	if stored == nil || stored.Strategist != strategistAddr {
		t.Error("expected original config to survive failed replacements")
	}
}

// TestSetPausedJointAuthority tests the pause gate authority rules
func TestSetPausedJointAuthority(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	installVault(t, k, ctx, testConfig())

	if err := k.SetPaused(ctx, aliceAddr, true); err == nil {
		t.Error("expected error for unauthorized caller")
	}
	if err := k.SetPaused(ctx, strategistAddr, true); err != nil {
		t.Fatalf("strategist pause failed: %v", err)
	}
	if err := k.SetPaused(ctx, strategistAddr, true); err == nil {
		t.Error("expected error pausing an already paused vault")
	}
	if err := k.SetPaused(ctx, authorityAddr, false); err != nil {
		t.Fatalf("owner unpause failed: %v", err)
	}
	if err := k.SetPaused(ctx, authorityAddr, false); err == nil {
		t.Error("expected error unpausing an already active vault")
	}
}
