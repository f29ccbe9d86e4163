package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgDeposit        = "deposit"
	TypeMsgMint           = "mint"
	TypeMsgApproveShares  = "approve_shares"
	TypeMsgWithdraw       = "withdraw"
	TypeMsgClaimRequest   = "claim_request"
	TypeMsgSolverComplete = "solver_complete"
	TypeMsgUpdateRate     = "update_rate"
	TypeMsgSetConfig      = "set_config"
	TypeMsgSetPause       = "set_pause"
)

// MsgDeposit defines the Deposit message
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	Receiver  string `json:"receiver"`
	Assets    string `json:"assets"`
}

// Route implements sdk.Msg
func (msg MsgDeposit) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgDeposit) Type() string { return TypeMsgDeposit }

// ValidateBasic implements sdk.Msg
func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrInvalidReceiver
	}
	if msg.Assets == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgDeposit) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgDeposit) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgDeposit) Reset() { *msg = MsgDeposit{} }

// String implements proto.Message
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, Receiver: %s, Assets: %s}", msg.Depositor, msg.Receiver, msg.Assets)
}

// MsgDepositResponse defines the Deposit response
type MsgDepositResponse struct {
	SharesMinted string `json:"shares_minted"`
	FeeAccrued   string `json:"fee_accrued"`
}

// MsgMint defines the Mint message
type MsgMint struct {
	Depositor string `json:"depositor"`
	Receiver  string `json:"receiver"`
	Shares    string `json:"shares"`
}

// Route implements sdk.Msg
func (msg MsgMint) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgMint) Type() string { return TypeMsgMint }

// ValidateBasic implements sdk.Msg
func (msg MsgMint) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrInvalidReceiver
	}
	if msg.Shares == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgMint) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgMint) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgMint) Reset() { *msg = MsgMint{} }

// String implements proto.Message
func (msg MsgMint) String() string {
	return fmt.Sprintf("MsgMint{Depositor: %s, Receiver: %s, Shares: %s}", msg.Depositor, msg.Receiver, msg.Shares)
}

// MsgMintResponse defines the Mint response
type MsgMintResponse struct {
	AssetsPaid string `json:"assets_paid"`
	FeeAccrued string `json:"fee_accrued"`
}

// MsgApproveShares defines the ApproveShares message
type MsgApproveShares struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Shares  string `json:"shares"`
}

// Route implements sdk.Msg
func (msg MsgApproveShares) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgApproveShares) Type() string { return TypeMsgApproveShares }

// ValidateBasic implements sdk.Msg
func (msg MsgApproveShares) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return ErrInvalidOwner
	}
	if _, err := sdk.AccAddressFromBech32(msg.Spender); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgApproveShares) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgApproveShares) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgApproveShares) Reset() { *msg = MsgApproveShares{} }

// String implements proto.Message
func (msg MsgApproveShares) String() string {
	return fmt.Sprintf("MsgApproveShares{Owner: %s, Spender: %s, Shares: %s}", msg.Owner, msg.Spender, msg.Shares)
}

// MsgApproveSharesResponse defines the ApproveShares response
type MsgApproveSharesResponse struct{}

// MsgWithdraw defines the Withdraw message (creates a deferred request)
type MsgWithdraw struct {
	Caller                string `json:"caller"`
	Owner                 string `json:"owner"`
	Receiver              string `json:"receiver"`
	Shares                string `json:"shares"`
	MaxLossBps            uint64 `json:"max_loss_bps"`
	AllowSolverCompletion bool   `json:"allow_solver_completion"`
}

// Route implements sdk.Msg
func (msg MsgWithdraw) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgWithdraw) Type() string { return TypeMsgWithdraw }

// ValidateBasic implements sdk.Msg
func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return ErrInvalidOwner
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrInvalidReceiver
	}
	if msg.MaxLossBps > BasisPoints {
		return ErrInvalidMaxLoss
	}
	if msg.Shares == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgWithdraw) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgWithdraw) Reset() { *msg = MsgWithdraw{} }

// String implements proto.Message
func (msg MsgWithdraw) String() string {
	return fmt.Sprintf("MsgWithdraw{Caller: %s, Owner: %s, Shares: %s}", msg.Caller, msg.Owner, msg.Shares)
}

// MsgWithdrawResponse defines the Withdraw response
type MsgWithdrawResponse struct {
	RequestID uint64 `json:"request_id"`
	ClaimTime int64  `json:"claim_time"`
}

// MsgClaimRequest defines the ClaimRequest message (self-service path)
type MsgClaimRequest struct {
	Claimer   string `json:"claimer"`
	RequestID uint64 `json:"request_id"`
}

// Route implements sdk.Msg
func (msg MsgClaimRequest) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgClaimRequest) Type() string { return TypeMsgClaimRequest }

// ValidateBasic implements sdk.Msg
func (msg MsgClaimRequest) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Claimer); err != nil {
		return err
	}
	if msg.RequestID == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgClaimRequest) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Claimer)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgClaimRequest) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClaimRequest) Reset() { *msg = MsgClaimRequest{} }

// String implements proto.Message
func (msg MsgClaimRequest) String() string {
	return fmt.Sprintf("MsgClaimRequest{Claimer: %s, RequestID: %d}", msg.Claimer, msg.RequestID)
}

// MsgClaimRequestResponse defines the ClaimRequest response
type MsgClaimRequestResponse struct {
	AssetsPaid string `json:"assets_paid"`
	FeeApplied string `json:"fee_applied"`
}

// MsgSolverComplete defines the SolverComplete message (fast path)
type MsgSolverComplete struct {
	Solver    string `json:"solver"`
	RequestID uint64 `json:"request_id"`
}

// Route implements sdk.Msg
func (msg MsgSolverComplete) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSolverComplete) Type() string { return TypeMsgSolverComplete }

// ValidateBasic implements sdk.Msg
func (msg MsgSolverComplete) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Solver); err != nil {
		return err
	}
	if msg.RequestID == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSolverComplete) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Solver)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSolverComplete) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSolverComplete) Reset() { *msg = MsgSolverComplete{} }

// String implements proto.Message
func (msg MsgSolverComplete) String() string {
	return fmt.Sprintf("MsgSolverComplete{Solver: %s, RequestID: %d}", msg.Solver, msg.RequestID)
}

// MsgSolverCompleteResponse defines the SolverComplete response
type MsgSolverCompleteResponse struct {
	AssetsPaid string `json:"assets_paid"`
	SolverFee  string `json:"solver_fee"`
}

// MsgUpdateRate defines the UpdateRate message (strategist only)
type MsgUpdateRate struct {
	Strategist     string `json:"strategist"`
	NewRate        string `json:"new_rate"`
	NewWithdrawFee uint64 `json:"new_withdraw_fee"`
}

// Route implements sdk.Msg
func (msg MsgUpdateRate) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgUpdateRate) Type() string { return TypeMsgUpdateRate }

// ValidateBasic implements sdk.Msg
func (msg MsgUpdateRate) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Strategist); err != nil {
		return err
	}
	if msg.NewRate == "" {
		return ErrZeroRate
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgUpdateRate) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Strategist)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgUpdateRate) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgUpdateRate) Reset() { *msg = MsgUpdateRate{} }

// String implements proto.Message
func (msg MsgUpdateRate) String() string {
	return fmt.Sprintf("MsgUpdateRate{Strategist: %s, NewRate: %s}", msg.Strategist, msg.NewRate)
}

// MsgUpdateRateResponse defines the UpdateRate response
type MsgUpdateRateResponse struct {
	RedemptionRate    string `json:"redemption_rate"`
	MaxHistoricalRate string `json:"max_historical_rate"`
	FeesDistributed   string `json:"fees_distributed"`
}

// MsgSetConfig defines the SetConfig message (vault owner only). The
// configuration travels as an opaque encoded blob and replaces the
// current configuration wholesale.
type MsgSetConfig struct {
	Authority  string `json:"authority"`
	ConfigBlob []byte `json:"config_blob"`
}

// Route implements sdk.Msg
func (msg MsgSetConfig) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetConfig) Type() string { return TypeMsgSetConfig }

// ValidateBasic implements sdk.Msg
func (msg MsgSetConfig) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if len(msg.ConfigBlob) == 0 {
		return ErrInvalidConfig
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetConfig) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetConfig) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetConfig) Reset() { *msg = MsgSetConfig{} }

// String implements proto.Message
func (msg MsgSetConfig) String() string {
	return fmt.Sprintf("MsgSetConfig{Authority: %s}", msg.Authority)
}

// MsgSetConfigResponse defines the SetConfig response
type MsgSetConfigResponse struct{}

// MsgSetPause defines the SetPause message (owner or strategist)
type MsgSetPause struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

// Route implements sdk.Msg
func (msg MsgSetPause) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetPause) Type() string { return TypeMsgSetPause }

// ValidateBasic implements sdk.Msg
func (msg MsgSetPause) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetPause) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetPause) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetPause) Reset() { *msg = MsgSetPause{} }

// String implements proto.Message
func (msg MsgSetPause) String() string {
	return fmt.Sprintf("MsgSetPause{Caller: %s, Paused: %t}", msg.Caller, msg.Paused)
}

// MsgSetPauseResponse defines the SetPause response
type MsgSetPauseResponse struct{}

// Ensure all messages implement sdk.Msg interface
var (
	_ sdk.Msg = &MsgDeposit{}
	_ sdk.Msg = &MsgMint{}
	_ sdk.Msg = &MsgApproveShares{}
	_ sdk.Msg = &MsgWithdraw{}
	_ sdk.Msg = &MsgClaimRequest{}
	_ sdk.Msg = &MsgSolverComplete{}
	_ sdk.Msg = &MsgUpdateRate{}
	_ sdk.Msg = &MsgSetConfig{}
	_ sdk.Msg = &MsgSetPause{}
)
