package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the vault module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Querying commands for the vault module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPoolState(),
		CmdQueryConfig(),
		CmdQueryShareBalance(),
		CmdQueryRequest(),
		CmdQueryUserRequests(),
		CmdQueryRateHistory(),
	)

	return cmd
}

// CmdQueryPoolState returns the command to query the pool state
func CmdQueryPoolState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool-state",
		Short: "Query the redemption rate, share supply and accrued fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pool state query requires running node connection")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryConfig returns the command to query the vault configuration
func CmdQueryConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Query the current vault configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Config query requires running node connection")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryShareBalance returns the command to query a share balance
func CmdQueryShareBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shares [owner]",
		Short: "Query an account's share balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Share balance query for %s requires running node connection\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRequest returns the command to query a withdrawal request
func CmdQueryRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request [request-id]",
		Short: "Query a withdrawal request by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Request query for ID %s requires running node connection\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryUserRequests returns the command to list an owner's requests
func CmdQueryUserRequests() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests [owner]",
		Short: "List an owner's outstanding withdrawal requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Request list query for %s requires running node connection\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRateHistory returns the command to query rate checkpoints
func CmdQueryRateHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate-history",
		Short: "Query the redemption rate checkpoint history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Rate history query requires running node connection")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
