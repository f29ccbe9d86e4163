package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strconv"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/poolvault/x/vault/types"
)

// Store key prefixes
var (
	PoolStateKey             = []byte{0x01}
	ConfigKey                = []byte{0x02}
	ShareBalanceKeyPrefix    = []byte{0x10}
	ShareAllowanceKeyPrefix  = []byte{0x11}
	TotalSharesKey           = []byte{0x12}
	SelfRequestKeyPrefix     = []byte{0x20}
	SolverRequestKeyPrefix   = []byte{0x21}
	UserFirstRequestPrefix   = []byte{0x22}
	NextRequestIDKey         = []byte{0x23}
	RateCheckpointKeyPrefix  = []byte{0x30}
	FeeDistributionKeyPrefix = []byte{0x31}
)

// BankKeeper defines the expected interface for the bank module. The
// vault never inspects asset balances; it only instructs transfers
// between external accounts and its deposit/withdraw ledger accounts.
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the vault module state
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string

	// withdraw performs an external transfer before the queue
	// bookkeeping is finalized; this flag rejects reentrant calls
	// during that window.
	entered bool
}

// NewKeeper creates a new vault keeper. The authority is the vault
// owner identity: it may replace the configuration wholesale and toggle
// the pause gate.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/vault"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the vault owner address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Pool State ============

// InitPool writes the initial pool state. The rate must be non-zero;
// the high-water mark starts equal to it.
func (k *Keeper) InitPool(ctx sdk.Context, rate math.Int) error {
	if rate.IsZero() {
		return types.ErrZeroRate
	}
	if k.GetPoolState(ctx) != nil {
		return types.ErrInvalidConfig.Wrap("pool already initialized")
	}
	state := types.NewPoolState(rate, ctx.BlockTime().Unix())
	k.SetPoolState(ctx, state)
	k.logger.Info("Pool initialized", "rate", rate.String())
	return nil
}

// SetPoolState saves the pool state to the store
func (k *Keeper) SetPoolState(ctx sdk.Context, state *types.PoolState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(state)
	store.Set(PoolStateKey, bz)
}

// GetPoolState retrieves the pool state from the store
func (k *Keeper) GetPoolState(ctx sdk.Context) *types.PoolState {
	store := k.GetStore(ctx)
	bz := store.Get(PoolStateKey)
	if bz == nil {
		return nil
	}
	var state types.PoolState
	if err := json.Unmarshal(bz, &state); err != nil {
		return nil
	}
	return &state
}

// ============ Configuration ============

// SetConfig decodes an opaque config blob and atomically replaces the
// current configuration. Only the vault owner may call this; a blob
// that fails validation leaves the old configuration untouched.
func (k *Keeper) SetConfig(ctx sdk.Context, authority string, blob []byte) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	cfg, err := types.DecodeVaultConfig(blob)
	if err != nil {
		return err
	}
	k.storeConfig(ctx, cfg)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_config_replaced",
			sdk.NewAttribute("strategist", cfg.Strategist),
			sdk.NewAttribute("deposit_cap", cfg.DepositCap.String()),
			sdk.NewAttribute("lockup_seconds", strconv.FormatInt(cfg.WithdrawLockupPeriod, 10)),
		),
	)
	k.logger.Info("Vault config replaced",
		"strategist", cfg.Strategist,
		"deposit_cap", cfg.DepositCap.String(),
	)
	return nil
}

func (k *Keeper) storeConfig(ctx sdk.Context, cfg *types.VaultConfig) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(cfg)
	store.Set(ConfigKey, bz)
}

// GetConfig retrieves the vault configuration
func (k *Keeper) GetConfig(ctx sdk.Context) *types.VaultConfig {
	store := k.GetStore(ctx)
	bz := store.Get(ConfigKey)
	if bz == nil {
		return nil
	}
	var cfg types.VaultConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return nil
	}
	return &cfg
}

// ============ Pause Gate ============

// SetPaused toggles the pause gate. The vault owner and the strategist
// hold joint pause authority.
func (k *Keeper) SetPaused(ctx sdk.Context, caller string, paused bool) error {
	cfg := k.GetConfig(ctx)
	if cfg == nil {
		return types.ErrConfigNotSet
	}
	if caller != k.authority && caller != cfg.Strategist {
		return types.ErrUnauthorized
	}
	state := k.GetPoolState(ctx)
	if state == nil {
		return types.ErrConfigNotSet
	}
	if state.Paused == paused {
		if paused {
			return types.ErrVaultPaused
		}
		return types.ErrVaultNotPaused
	}
	state.Paused = paused
	k.SetPoolState(ctx, state)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"vault_pause_toggled",
			sdk.NewAttribute("caller", caller),
			sdk.NewAttribute("paused", strconv.FormatBool(paused)),
		),
	)
	k.logger.Info("Pause gate toggled", "caller", caller, "paused", paused)
	return nil
}

// ============ Key Helpers ============

func shareBalanceKey(addr string) []byte {
	return append(ShareBalanceKeyPrefix, []byte(addr)...)
}

func shareAllowanceKey(owner, spender string) []byte {
	return append(ShareAllowanceKeyPrefix, []byte(owner+":"+spender)...)
}

func selfRequestKey(id uint64) []byte {
	return append(SelfRequestKeyPrefix, requestIDBytes(id)...)
}

func solverRequestKey(id uint64) []byte {
	return append(SolverRequestKeyPrefix, requestIDBytes(id)...)
}

func userFirstRequestKey(owner string) []byte {
	return append(UserFirstRequestPrefix, []byte(owner)...)
}

func requestIDBytes(id uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	return bz
}
