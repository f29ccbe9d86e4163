package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/poolvault/x/vault/types"
)

// GetTxCmd returns the transaction commands for the vault module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Vault module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdDeposit(),
		CmdMint(),
		CmdApproveShares(),
		CmdWithdraw(),
		CmdClaimRequest(),
		CmdSolverComplete(),
		CmdUpdateRate(),
		CmdSetConfig(),
		CmdSetPause(),
	)

	return cmd
}

// CmdDeposit returns the command to deposit assets for shares
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [assets] [receiver]",
		Short: "Deposit assets and mint shares to the receiver",
		Long: `Deposit an exact amount of assets into the vault.

Examples:
  poolvaultd tx vault deposit 1000000 cosmos1receiver... --from alice
  poolvaultd tx vault deposit 1000000 "" --from alice   (shares go to the sender)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			receiver := args[1]
			if receiver == "" {
				receiver = clientCtx.GetFromAddress().String()
			}

			msg := &types.MsgDeposit{
				Depositor: clientCtx.GetFromAddress().String(),
				Receiver:  receiver,
				Assets:    args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdMint returns the command to mint an exact number of shares
func CmdMint() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint [shares] [receiver]",
		Short: "Mint an exact number of shares, paying whatever assets it costs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			receiver := args[1]
			if receiver == "" {
				receiver = clientCtx.GetFromAddress().String()
			}

			msg := &types.MsgMint{
				Depositor: clientCtx.GetFromAddress().String(),
				Receiver:  receiver,
				Shares:    args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdApproveShares returns the command to approve a spender for shares
func CmdApproveShares() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve-shares [spender] [shares]",
		Short: "Allow a spender to withdraw up to the given shares on your behalf",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgApproveShares{
				Owner:   clientCtx.GetFromAddress().String(),
				Spender: args[0],
				Shares:  args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to create a withdrawal request
func CmdWithdraw() *cobra.Command {
	var maxLossBps uint64
	var solver bool
	var owner string

	cmd := &cobra.Command{
		Use:   "withdraw [shares] [receiver]",
		Short: "Burn shares and create a deferred withdrawal request",
		Long: `Burn shares now and queue a withdrawal that becomes claimable after the
lockup period. With --solver, a solver may complete the request early for
the configured completion fee.

Examples:
  poolvaultd tx vault withdraw 500000 cosmos1receiver... --max-loss-bps 100 --from alice
  poolvaultd tx vault withdraw 500000 cosmos1receiver... --solver --from alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			caller := clientCtx.GetFromAddress().String()
			if owner == "" {
				owner = caller
			}

			msg := &types.MsgWithdraw{
				Caller:                caller,
				Owner:                 owner,
				Receiver:              args[1],
				Shares:                args[0],
				MaxLossBps:            maxLossBps,
				AllowSolverCompletion: solver,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Uint64Var(&maxLossBps, "max-loss-bps", 0, "maximum acceptable rate loss in basis points")
	cmd.Flags().BoolVar(&solver, "solver", false, "allow early completion by a solver")
	cmd.Flags().StringVar(&owner, "owner", "", "share owner when withdrawing via an allowance")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClaimRequest returns the command to claim a matured request
func CmdClaimRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim [request-id]",
		Short: "Claim a matured withdrawal request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			requestID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id: %v", err)
			}

			msg := &types.MsgClaimRequest{
				Claimer:   clientCtx.GetFromAddress().String(),
				RequestID: requestID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSolverComplete returns the command to complete a request as a solver
func CmdSolverComplete() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solver-complete [request-id]",
		Short: "Complete a solver-assisted withdrawal request ahead of maturity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			requestID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id: %v", err)
			}

			msg := &types.MsgSolverComplete{
				Solver:    clientCtx.GetFromAddress().String(),
				RequestID: requestID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdUpdateRate returns the strategist command to mark the pool
func CmdUpdateRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-rate [new-rate] [new-withdraw-fee-bps]",
		Short: "Update the redemption rate and position withdraw fee (strategist only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			withdrawFee, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid withdraw fee: %v", err)
			}

			msg := &types.MsgUpdateRate{
				Strategist:     clientCtx.GetFromAddress().String(),
				NewRate:        args[0],
				NewWithdrawFee: withdrawFee,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetConfig returns the owner command to replace the configuration
func CmdSetConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-config [config-file.json]",
		Short: "Replace the vault configuration wholesale (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			blob, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read config file: %v", err)
			}

			msg := &types.MsgSetConfig{
				Authority:  clientCtx.GetFromAddress().String(),
				ConfigBlob: blob,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetPause returns the command to toggle the pause gate
func CmdSetPause() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-pause [true|false]",
		Short: "Pause or resume vault operations (owner or strategist)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			paused, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid pause flag: %v", err)
			}

			msg := &types.MsgSetPause{
				Caller: clientCtx.GetFromAddress().String(),
				Paused: paused,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
