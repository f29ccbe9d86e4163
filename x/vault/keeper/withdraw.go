package keeper

import (
	"encoding/binary"
	"encoding/json"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// Withdrawal request queue. Requests are nodes in an arena keyed by a
// monotonically increasing id, split across two disjoint maps
// (self-service vs solver-assisted). Each owner's outstanding requests
// form an intrusive singly-linked list threaded through the NextID
// field, most recent first, with the head stored per owner. Prepending
// is O(1) so concurrent request creation never re-links another
// owner's list.

// Withdraw burns shares from the owner and creates a deferred
// withdrawal request maturing after the lockup period. The shares are
// removed from circulation before any queue bookkeeping, so a request
// can never reference shares that no longer exist.
func (k *Keeper) Withdraw(
	ctx sdk.Context,
	caller, owner, receiver string,
	shares math.Int,
	maxLossBps uint64,
	allowSolverCompletion bool,
) (uint64, error) {
	if k.entered {
		return 0, types.ErrReentrantCall
	}
	k.entered = true
	defer func() { k.entered = false }()

	cfg, state, err := k.activeVault(ctx)
	if err != nil {
		return 0, err
	}
	if receiver == "" {
		return 0, types.ErrInvalidReceiver
	}
	if owner == "" {
		return 0, types.ErrInvalidOwner
	}
	if !shares.IsPositive() {
		return 0, types.ErrInvalidAmount
	}
	if maxLossBps > types.BasisPoints {
		return 0, types.ErrInvalidMaxLoss
	}

	// The cap ties queue growth per owner to how long requests take
	// to mature.
	if k.OutstandingRequestCount(ctx, owner) >= cfg.MaxOutstandingRequests() {
		return 0, types.ErrTooManyRequests
	}

	if caller != owner {
		if err := k.spendShareAllowance(ctx, owner, caller, shares); err != nil {
			return 0, err
		}
	}
	if err := k.burnShares(ctx, owner, shares); err != nil {
		return 0, err
	}

	now := ctx.BlockTime().Unix()
	id := k.nextRequestID(ctx)
	request := &types.WithdrawRequest{
		SharesAmount:  shares,
		ClaimTime:     now + cfg.WithdrawLockupPeriod,
		MaxLossBps:    maxLossBps,
		SolverFee:     math.ZeroInt(),
		Owner:         owner,
		Receiver:      receiver,
		NextID:        k.getUserFirstRequestID(ctx, owner),
		RateAtRequest: state.RedemptionRate,
	}

	if allowSolverCompletion {
		request.SolverFee = cfg.Fees.SolverCompletionFee
		if request.SolverFee.IsPositive() {
			// Escrowed in the withdraw account, where it is later paid
			// out from: to the solver on completion, or back to the
			// receiver on a plain claim.
			if err := k.escrowSolverFee(ctx, cfg, caller, request.SolverFee); err != nil {
				return 0, err
			}
		}
		k.setRequest(ctx, solverRequestKey(id), request)
	} else {
		k.setRequest(ctx, selfRequestKey(id), request)
	}
	k.setUserFirstRequestID(ctx, owner, id)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_withdraw_requested",
			sdk.NewAttribute("request_id", strconv.FormatUint(id, 10)),
			sdk.NewAttribute("owner", owner),
			sdk.NewAttribute("receiver", receiver),
			sdk.NewAttribute("shares", shares.String()),
			sdk.NewAttribute("claim_time", strconv.FormatInt(request.ClaimTime, 10)),
			sdk.NewAttribute("solver_fee", request.SolverFee.String()),
			sdk.NewAttribute("max_loss_bps", strconv.FormatUint(maxLossBps, 10)),
		),
	)
	k.logger.Info("Withdraw request created",
		"request_id", id,
		"owner", owner,
		"shares", shares.String(),
		"solver", allowSolverCompletion,
	)
	return id, nil
}

// GetRequest looks a request up by id, probing the self-service map
// first and falling back to the solver-assisted map. A request lives in
// exactly one of the two. solver reports which map held it and is
// meaningless when req is nil; existence is req != nil, not solver.
func (k *Keeper) GetRequest(ctx sdk.Context, id uint64) (req *types.WithdrawRequest, solver bool) {
	if req := k.getRequestAt(ctx, selfRequestKey(id)); req != nil {
		return req, false
	}
	if req := k.getRequestAt(ctx, solverRequestKey(id)); req != nil {
		return req, true
	}
	return nil, false
}

// OutstandingRequestCount walks the owner's linked list and counts its
// outstanding requests. O(n), bounded by the per-owner cap.
func (k *Keeper) OutstandingRequestCount(ctx sdk.Context, owner string) int {
	count := 0
	id := k.getUserFirstRequestID(ctx, owner)
	for id != 0 {
		req, _ := k.GetRequest(ctx, id)
		if req == nil {
			break
		}
		count++
		id = req.NextID
	}
	return count
}

// GetUserRequests returns the owner's outstanding requests with their
// ids, most recent first.
func (k *Keeper) GetUserRequests(ctx sdk.Context, owner string) ([]uint64, []*types.WithdrawRequest) {
	var ids []uint64
	var requests []*types.WithdrawRequest
	id := k.getUserFirstRequestID(ctx, owner)
	for id != 0 {
		req, _ := k.GetRequest(ctx, id)
		if req == nil {
			break
		}
		ids = append(ids, id)
		requests = append(requests, req)
		id = req.NextID
	}
	return ids, requests
}

// consumeRequest removes a fulfilled request from its map and unlinks
// it from the owner's list. Every completion path goes through here so
// the record lifecycle stays in one place.
func (k *Keeper) consumeRequest(ctx sdk.Context, id uint64, req *types.WithdrawRequest, solver bool) {
	store := k.GetStore(ctx)
	if solver {
		store.Delete(solverRequestKey(id))
	} else {
		store.Delete(selfRequestKey(id))
	}

	head := k.getUserFirstRequestID(ctx, req.Owner)
	if head == id {
		k.setUserFirstRequestID(ctx, req.Owner, req.NextID)
		return
	}
	prev := head
	for prev != 0 {
		node, _ := k.GetRequest(ctx, prev)
		if node == nil {
			return
		}
		if node.NextID == id {
			node.NextID = req.NextID
			nodeSolver := k.getRequestAt(ctx, selfRequestKey(prev)) == nil
			if nodeSolver {
				k.setRequest(ctx, solverRequestKey(prev), node)
			} else {
				k.setRequest(ctx, selfRequestKey(prev), node)
			}
			return
		}
		prev = node.NextID
	}
}

func (k *Keeper) escrowSolverFee(ctx sdk.Context, cfg *types.VaultConfig, from string, amount math.Int) error {
	fromAddr, err := sdk.AccAddressFromBech32(from)
	if err != nil {
		return types.ErrInvalidOwner.Wrapf("sender: %v", err)
	}
	coins := sdk.NewCoins(sdk.NewCoin(cfg.AssetDenom, amount))
	return k.bankKeeper.SendCoinsFromAccountToModule(ctx, fromAddr, cfg.WithdrawAccount, coins)
}

// ============ Store Plumbing ============

func (k *Keeper) setRequest(ctx sdk.Context, key []byte, req *types.WithdrawRequest) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(req)
	store.Set(key, bz)
}

func (k *Keeper) getRequestAt(ctx sdk.Context, key []byte) *types.WithdrawRequest {
	store := k.GetStore(ctx)
	bz := store.Get(key)
	if bz == nil {
		return nil
	}
	var req types.WithdrawRequest
	if err := json.Unmarshal(bz, &req); err != nil {
		return nil
	}
	return &req
}

// nextRequestID allocates the next sequential request id, starting at 1
// so 0 can mean "end of list".
func (k *Keeper) nextRequestID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	next := uint64(1)
	if bz := store.Get(NextRequestIDKey); bz != nil {
		next = binary.BigEndian.Uint64(bz)
	}
	store.Set(NextRequestIDKey, requestIDBytes(next+1))
	return next
}

func (k *Keeper) getUserFirstRequestID(ctx sdk.Context, owner string) uint64 {
	store := k.GetStore(ctx)
	bz := store.Get(userFirstRequestKey(owner))
	if bz == nil {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func (k *Keeper) setUserFirstRequestID(ctx sdk.Context, owner string, id uint64) {
	store := k.GetStore(ctx)
	if id == 0 {
		store.Delete(userFirstRequestKey(owner))
		return
	}
	store.Set(userFirstRequestKey(owner), requestIDBytes(id))
}
