package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// Fungible share ledger. Vault shares are the module's own liability,
// so balances, the total supply and delegated-spend allowances live in
// module state rather than behind the bank interface.

// GetShareBalance returns the share balance of an account
func (k *Keeper) GetShareBalance(ctx sdk.Context, addr string) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(shareBalanceKey(addr))
	if bz == nil {
		return math.ZeroInt()
	}
	var bal math.Int
	if err := bal.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return bal
}

func (k *Keeper) setShareBalance(ctx sdk.Context, addr string, bal math.Int) {
	store := k.GetStore(ctx)
	if bal.IsZero() {
		store.Delete(shareBalanceKey(addr))
		return
	}
	bz, _ := bal.Marshal()
	store.Set(shareBalanceKey(addr), bz)
}

// GetTotalShares returns the total share supply
func (k *Keeper) GetTotalShares(ctx sdk.Context) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(TotalSharesKey)
	if bz == nil {
		return math.ZeroInt()
	}
	var total math.Int
	if err := total.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return total
}

func (k *Keeper) setTotalShares(ctx sdk.Context, total math.Int) {
	store := k.GetStore(ctx)
	bz, _ := total.Marshal()
	store.Set(TotalSharesKey, bz)
}

// mintShares credits shares to an account and grows the supply
func (k *Keeper) mintShares(ctx sdk.Context, addr string, amount math.Int) {
	if amount.IsZero() {
		return
	}
	k.setShareBalance(ctx, addr, k.GetShareBalance(ctx, addr).Add(amount))
	k.setTotalShares(ctx, k.GetTotalShares(ctx).Add(amount))
}

// burnShares removes shares from an account and shrinks the supply
func (k *Keeper) burnShares(ctx sdk.Context, addr string, amount math.Int) error {
	bal := k.GetShareBalance(ctx, addr)
	if bal.LT(amount) {
		return types.ErrInsufficientShares
	}
	k.setShareBalance(ctx, addr, bal.Sub(amount))
	k.setTotalShares(ctx, k.GetTotalShares(ctx).Sub(amount))
	return nil
}

// ============ Allowances ============

// GetShareAllowance returns the remaining allowance of spender on
// owner's shares
func (k *Keeper) GetShareAllowance(ctx sdk.Context, owner, spender string) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(shareAllowanceKey(owner, spender))
	if bz == nil {
		return math.ZeroInt()
	}
	var allowance math.Int
	if err := allowance.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return allowance
}

// ApproveShares sets spender's allowance on owner's shares, replacing
// any previous value
func (k *Keeper) ApproveShares(ctx sdk.Context, owner, spender string, amount math.Int) error {
	if amount.IsNegative() {
		return types.ErrInvalidAmount
	}
	store := k.GetStore(ctx)
	if amount.IsZero() {
		store.Delete(shareAllowanceKey(owner, spender))
	} else {
		bz, _ := amount.Marshal()
		store.Set(shareAllowanceKey(owner, spender), bz)
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_shares_approved",
			sdk.NewAttribute("owner", owner),
			sdk.NewAttribute("spender", spender),
			sdk.NewAttribute("shares", amount.String()),
		),
	)
	return nil
}

// spendShareAllowance consumes part of spender's allowance on owner's
// shares, rejecting if the remaining allowance is too small
func (k *Keeper) spendShareAllowance(ctx sdk.Context, owner, spender string, amount math.Int) error {
	allowance := k.GetShareAllowance(ctx, owner, spender)
	if allowance.LT(amount) {
		return types.ErrInsufficientAllowance
	}
	remaining := allowance.Sub(amount)
	store := k.GetStore(ctx)
	if remaining.IsZero() {
		store.Delete(shareAllowanceKey(owner, spender))
		return nil
	}
	bz, _ := remaining.Marshal()
	store.Set(shareAllowanceKey(owner, spender), bz)
	return nil
}
