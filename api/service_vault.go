package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/google/btree"
	"github.com/huandu/skiplist"

	"github.com/openalpha/poolvault/api/types"
	vaultkeeper "github.com/openalpha/poolvault/x/vault/keeper"
	vaulttypes "github.com/openalpha/poolvault/x/vault/types"
)

const rateTreeDegree = 16

// ledgerBank is an in-memory asset ledger implementing the keeper's
// bank interface. The standalone gateway has no chain to settle
// against, so transfers are recorded rather than enforced.
type ledgerBank struct {
	mu       sync.Mutex
	modules  map[string]math.Int
	accounts map[string]math.Int
}

func newLedgerBank() *ledgerBank {
	return &ledgerBank{
		modules:  make(map[string]math.Int),
		accounts: make(map[string]math.Int),
	}
}

func (b *ledgerBank) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.modules[recipientModule]
	if !ok {
		cur = math.ZeroInt()
	}
	b.modules[recipientModule] = cur.Add(amt[0].Amount)
	return nil
}

func (b *ledgerBank) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.accounts[recipientAddr.String()]
	if !ok {
		cur = math.ZeroInt()
	}
	b.accounts[recipientAddr.String()] = cur.Add(amt[0].Amount)
	return nil
}

// rateHistoryItem indexes a rate checkpoint by timestamp in the btree.
type rateHistoryItem struct {
	checkpoint *vaulttypes.RateCheckpoint
}

func (a *rateHistoryItem) Less(b btree.Item) bool {
	other := b.(*rateHistoryItem)
	if a.checkpoint.Timestamp != other.checkpoint.Timestamp {
		return a.checkpoint.Timestamp < other.checkpoint.Timestamp
	}
	return a.checkpoint.RecordID < other.checkpoint.RecordID
}

// claimKey orders pending withdrawal requests by maturity, id breaking
// ties so keys stay unique in the skip list.
type claimKey struct {
	claimTime int64
	id        uint64
}

// claimKeyAsc is a comparator for ascending claim-time order
type claimKeyAsc struct{}

func (k claimKeyAsc) Compare(lhs, rhs interface{}) int {
	l := lhs.(claimKey)
	r := rhs.(claimKey)
	if l.claimTime != r.claimTime {
		if l.claimTime < r.claimTime {
			return -1
		}
		return 1
	}
	if l.id != r.id {
		if l.id < r.id {
			return -1
		}
		return 1
	}
	return 0
}

func (k claimKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(claimKey).claimTime)
}

// VaultKeeperService implements VaultService against the real vault
// keeper over an in-memory store. This is for standalone gateway usage
// without a running chain: the accounting is exact, the asset transfers
// are ledger entries only.
type VaultKeeperService struct {
	keeper *vaultkeeper.Keeper
	bank   *ledgerBank
	sdkCtx sdk.Context
	mu     sync.Mutex
	logger log.Logger

	strategist string
	denom      string

	// pending withdrawal requests ordered by claim time - O(log n)
	// insert/remove, O(limit) front walk
	pending *skiplist.SkipList

	// rate checkpoints ordered by timestamp for range queries
	rateTree *btree.BTree
}

// NewVaultKeeperService creates a standalone vault service. The
// strategist address is both the vault owner and the only identity
// allowed to push rate updates.
func NewVaultKeeperService(logger log.Logger, strategist string) (*VaultKeeperService, error) {
	db := dbm.NewMemDB()
	storeKey := storetypes.NewKVStoreKey(vaulttypes.StoreKey)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := newLedgerBank()
	keeper := vaultkeeper.NewKeeper(cdc, storeKey, bank, strategist, logger)

	header := tmproto.Header{Height: 1}
	sdkCtx := sdk.NewContext(cms, header, false, logger)
	sdkCtx = sdkCtx.WithBlockTime(time.Now())

	s := &VaultKeeperService{
		keeper:     keeper,
		bank:       bank,
		sdkCtx:     sdkCtx,
		logger:     logger,
		strategist: strategist,
		denom:      "uusdc",
		pending:    skiplist.New(claimKeyAsc{}),
		rateTree:   btree.New(rateTreeDegree),
	}

	if err := s.installDefaultVault(); err != nil {
		return nil, err
	}
	return s, nil
}

// installDefaultVault writes the gateway's default configuration and
// initializes the pool at a 1:1 rate.
func (s *VaultKeeperService) installDefaultVault() error {
	cfg := &vaulttypes.VaultConfig{
		DepositAccount:       "vault_deposit",
		WithdrawAccount:      "vault_withdraw",
		Strategist:           s.strategist,
		AssetDenom:           s.denom,
		DepositCap:           math.ZeroInt(),
		MaxWithdrawFeeBps:    100,
		WithdrawLockupPeriod: 7 * vaulttypes.SecondsPerDay,
		Fees: vaulttypes.FeeConfig{
			DepositFeeBps:       10,
			PlatformFeeBps:      200,
			PerformanceFeeBps:   1000,
			SolverCompletionFee: math.NewInt(50_000),
		},
		FeeDistribution: vaulttypes.FeeDistributionConfig{
			StrategistAccount:  authtypes.NewModuleAddress("vault_fees_strategist").String(),
			PlatformAccount:    authtypes.NewModuleAddress("vault_fees_platform").String(),
			StrategistRatioBps: 5000,
		},
	}
	blob, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	ctx := s.ctx()
	if err := s.keeper.SetConfig(ctx, s.strategist, blob); err != nil {
		return err
	}
	return s.keeper.InitPool(ctx, vaulttypes.Basis)
}

// ctx returns the service context stamped with the current wall clock.
func (s *VaultKeeperService) ctx() sdk.Context {
	return s.sdkCtx.WithBlockTime(time.Now())
}

// ============ State queries ============

func (s *VaultKeeperService) GetPoolState() (*types.PoolStateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	state := s.keeper.GetPoolState(ctx)
	if state == nil {
		return nil, fmt.Errorf("vault not initialized")
	}
	totalShares := s.keeper.GetTotalShares(ctx)
	totalAssets, err := s.keeper.TotalAssets(ctx)
	if err != nil {
		return nil, err
	}

	return &types.PoolStateInfo{
		RedemptionRate:    state.RedemptionRate.String(),
		MaxHistoricalRate: state.MaxHistoricalRate.String(),
		TotalShares:       totalShares.String(),
		TotalAssets:       totalAssets.String(),
		FeesOwed:          state.FeesOwedInAsset.String(),
		WithdrawFeeBps:    state.PositionWithdrawFee,
		LastUpdateTime:    state.LastUpdateTimestamp,
		Paused:            state.Paused,
	}, nil
}

func (s *VaultKeeperService) GetConfig() (*types.ConfigInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.keeper.GetConfig(s.ctx())
	if cfg == nil {
		return nil, fmt.Errorf("vault not configured")
	}
	return &types.ConfigInfo{
		Strategist:           cfg.Strategist,
		AssetDenom:           cfg.AssetDenom,
		DepositCap:           cfg.DepositCap.String(),
		MaxWithdrawFeeBps:    cfg.MaxWithdrawFeeBps,
		WithdrawLockupPeriod: cfg.WithdrawLockupPeriod,
		DepositFeeBps:        cfg.Fees.DepositFeeBps,
		PlatformFeeBps:       cfg.Fees.PlatformFeeBps,
		PerformanceFeeBps:    cfg.Fees.PerformanceFeeBps,
		SolverCompletionFee:  cfg.Fees.SolverCompletionFee.String(),
	}, nil
}

func (s *VaultKeeperService) GetUserBalance(user string) (*types.UserBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	shares := s.keeper.GetShareBalance(ctx, user)
	value, err := s.keeper.ToAssets(ctx, shares, vaulttypes.RoundFloor)
	if err != nil {
		return nil, err
	}
	totalShares := s.keeper.GetTotalShares(ctx)
	shareOfPool := math.ZeroInt()
	if totalShares.IsPositive() {
		shareOfPool = vaulttypes.MulDiv(shares, vaulttypes.Basis, totalShares, vaulttypes.RoundFloor)
	}
	return &types.UserBalance{
		User:        user,
		Shares:      shares.String(),
		AssetValue:  value.String(),
		ShareOfPool: shareOfPool.String(),
	}, nil
}

func (s *VaultKeeperService) GetRateHistory(fromTime, toTime int64) ([]*types.RatePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if toTime <= 0 {
		toTime = time.Now().Unix() + 1
	}
	points := make([]*types.RatePoint, 0)
	min := &rateHistoryItem{checkpoint: &vaulttypes.RateCheckpoint{Timestamp: fromTime}}
	max := &rateHistoryItem{checkpoint: &vaulttypes.RateCheckpoint{Timestamp: toTime, RecordID: "\xff"}}
	s.rateTree.AscendRange(min, max, func(item btree.Item) bool {
		cp := item.(*rateHistoryItem).checkpoint
		points = append(points, &types.RatePoint{
			Timestamp:         cp.Timestamp,
			Rate:              cp.RedemptionRate.String(),
			MaxHistoricalRate: cp.MaxHistoricalRate.String(),
			FeesDistributed:   cp.PlatformFeeAccrued.Add(cp.PerformanceFee).String(),
		})
		return true
	})
	return points, nil
}

func (s *VaultKeeperService) GetFeeDistributions(limit int) ([]*types.FeeDistributionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.keeper.GetFeeDistributionRecords(s.ctx())
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	infos := make([]*types.FeeDistributionInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, &types.FeeDistributionInfo{
			RecordID:         r.RecordID,
			Timestamp:        r.Timestamp,
			TotalAssets:      r.StrategistAssets.Add(r.PlatformAssets).String(),
			StrategistAssets: r.StrategistAssets.String(),
			PlatformAssets:   r.PlatformAssets.String(),
			StrategistShares: r.StrategistShares.String(),
			PlatformShares:   r.PlatformShares.String(),
		})
	}
	return infos, nil
}

// ============ Estimates ============

func (s *VaultKeeperService) EstimateDeposit(amount math.Int) (*types.DepositEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	cfg := s.keeper.GetConfig(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("vault not configured")
	}
	fee := cfg.Fees.DepositFee(amount)
	shares, err := s.keeper.ToShares(ctx, amount.Sub(fee), vaulttypes.RoundFloor)
	if err != nil {
		return nil, err
	}
	return &types.DepositEstimate{
		Amount:         amount.String(),
		Fee:            fee.String(),
		SharesExpected: shares.String(),
	}, nil
}

func (s *VaultKeeperService) EstimateMint(shares math.Int) (*types.MintEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	cfg := s.keeper.GetConfig(ctx)
	state := s.keeper.GetPoolState(ctx)
	if cfg == nil || state == nil {
		return nil, fmt.Errorf("vault not configured")
	}
	gross, fee, err := cfg.Fees.MintFee(shares, state.RedemptionRate)
	if err != nil {
		return nil, err
	}
	return &types.MintEstimate{
		Shares:       shares.String(),
		Fee:          fee.String(),
		AssetsNeeded: gross.String(),
	}, nil
}

func (s *VaultKeeperService) EstimateRedeem(shares math.Int) (*types.RedeemEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	state := s.keeper.GetPoolState(ctx)
	if state == nil {
		return nil, fmt.Errorf("vault not initialized")
	}
	value, err := state.ToAssets(shares, vaulttypes.RoundFloor)
	if err != nil {
		return nil, err
	}
	fee := vaulttypes.MulDiv(value, math.NewIntFromUint64(state.PositionWithdrawFee), vaulttypes.Basis, vaulttypes.RoundCeil)
	return &types.RedeemEstimate{
		Shares:         shares.String(),
		AssetsExpected: value.Sub(fee).String(),
		WithdrawFee:    fee.String(),
	}, nil
}

// ============ Transactions ============

func (s *VaultKeeperService) Deposit(user, receiver string, amount math.Int) (*types.DepositResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if receiver == "" {
		receiver = user
	}
	ctx := s.ctx()
	shares, fee, err := s.keeper.Deposit(ctx, user, receiver, amount)
	if err != nil {
		return nil, err
	}
	return &types.DepositResult{
		User:      user,
		Receiver:  receiver,
		Amount:    amount.String(),
		Fee:       fee.String(),
		Shares:    shares.String(),
		Timestamp: ctx.BlockTime().Unix(),
	}, nil
}

func (s *VaultKeeperService) Mint(user, receiver string, shares math.Int) (*types.MintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if receiver == "" {
		receiver = user
	}
	ctx := s.ctx()
	paid, fee, err := s.keeper.Mint(ctx, user, receiver, shares)
	if err != nil {
		return nil, err
	}
	return &types.MintResult{
		User:       user,
		Receiver:   receiver,
		Shares:     shares.String(),
		Fee:        fee.String(),
		AssetsPaid: paid.String(),
		Timestamp:  ctx.BlockTime().Unix(),
	}, nil
}

func (s *VaultKeeperService) RequestWithdrawal(user, receiver string, shares math.Int, maxLossBps uint64, solver bool) (*types.WithdrawalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if receiver == "" {
		receiver = user
	}
	ctx := s.ctx()
	id, err := s.keeper.Withdraw(ctx, user, user, receiver, shares, maxLossBps, solver)
	if err != nil {
		return nil, err
	}
	req, _ := s.keeper.GetRequest(ctx, id)
	if req == nil {
		return nil, fmt.Errorf("request %d vanished after creation", id)
	}
	s.pending.Set(claimKey{claimTime: req.ClaimTime, id: id}, id)

	return &types.WithdrawalResult{
		RequestID:  id,
		Owner:      user,
		Receiver:   receiver,
		Shares:     shares.String(),
		ClaimTime:  req.ClaimTime,
		SolverFee:  req.SolverFee.String(),
		MaxLossBps: maxLossBps,
	}, nil
}

func (s *VaultKeeperService) ClaimWithdrawal(user string, requestID uint64) (*types.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	req, _ := s.keeper.GetRequest(ctx, requestID)
	if req == nil {
		return nil, vaulttypes.ErrRequestNotFound
	}
	net, _, err := s.keeper.ClaimRequest(ctx, user, requestID)
	if err != nil {
		return nil, err
	}
	s.pending.Remove(claimKey{claimTime: req.ClaimTime, id: requestID})

	return &types.ClaimResult{
		RequestID: requestID,
		Receiver:  req.Receiver,
		AssetsNet: net.String(),
		Timestamp: ctx.BlockTime().Unix(),
	}, nil
}

func (s *VaultKeeperService) CompleteWithdrawal(solver string, requestID uint64) (*types.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	req, _ := s.keeper.GetRequest(ctx, requestID)
	if req == nil {
		return nil, vaulttypes.ErrRequestNotFound
	}
	net, _, err := s.keeper.SolverCompleteRequest(ctx, solver, requestID)
	if err != nil {
		return nil, err
	}
	s.pending.Remove(claimKey{claimTime: req.ClaimTime, id: requestID})

	return &types.ClaimResult{
		RequestID: requestID,
		Receiver:  req.Receiver,
		AssetsNet: net.String(),
		Timestamp: ctx.BlockTime().Unix(),
	}, nil
}

// ============ Queue queries ============

func (s *VaultKeeperService) GetPendingWithdrawals(limit int) ([]*types.RequestInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	ctx := s.ctx()
	now := ctx.BlockTime().Unix()

	infos := make([]*types.RequestInfo, 0, limit)
	for elem := s.pending.Front(); elem != nil && len(infos) < limit; elem = elem.Next() {
		id := elem.Value.(uint64)
		req, _ := s.keeper.GetRequest(ctx, id)
		if req == nil {
			continue
		}
		infos = append(infos, requestInfo(id, req, now))
	}
	return infos, nil
}

func (s *VaultKeeperService) GetUserRequests(user string) ([]*types.RequestInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	now := ctx.BlockTime().Unix()
	ids, reqs := s.keeper.GetUserRequests(ctx, user)

	infos := make([]*types.RequestInfo, 0, len(ids))
	for i, id := range ids {
		infos = append(infos, requestInfo(id, reqs[i], now))
	}
	return infos, nil
}

// ============ Strategist operations ============

func (s *VaultKeeperService) UpdateRate(strategist string, newRate math.Int, newWithdrawFeeBps uint64) (*types.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.ctx()
	distributed, err := s.keeper.Update(ctx, strategist, newRate, newWithdrawFeeBps)
	if err != nil {
		return nil, err
	}

	state := s.keeper.GetPoolState(ctx)
	// Index the checkpoint the mark just wrote. ReplaceOrInsert keys on
	// (timestamp, record id), so re-inserting an already indexed
	// checkpoint from the same second is harmless.
	for _, cp := range s.keeper.GetRateCheckpoints(ctx, ctx.BlockTime().Unix(), 0) {
		s.rateTree.ReplaceOrInsert(&rateHistoryItem{checkpoint: cp})
	}

	return &types.UpdateResult{
		NewRate:           state.RedemptionRate.String(),
		MaxHistoricalRate: state.MaxHistoricalRate.String(),
		WithdrawFeeBps:    state.PositionWithdrawFee,
		FeesDistributed:   distributed.String(),
		Timestamp:         ctx.BlockTime().Unix(),
	}, nil
}

func requestInfo(id uint64, req *vaulttypes.WithdrawRequest, now int64) *types.RequestInfo {
	return &types.RequestInfo{
		RequestID:     id,
		Owner:         req.Owner,
		Receiver:      req.Receiver,
		Shares:        req.SharesAmount.String(),
		ClaimTime:     req.ClaimTime,
		Mature:        req.IsMature(now),
		MaxLossBps:    req.MaxLossBps,
		SolverFee:     req.SolverFee.String(),
		RateAtRequest: req.RateAtRequest.String(),
	}
}
