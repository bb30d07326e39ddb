package main

import (
	"fmt"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:     "wallet",
	Short:   "Inspect and fund your wallet",
	GroupID: "market",
}

// balanceView is the JSON shape of every wallet command.
type balanceView struct {
	Principal model.Principal `json:"principal"`
	Balance   float64         `json:"balance"`
}

func showBalance(cmd *cobra.Command, p model.Principal, balance float64) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), balanceView{Principal: p, Balance: balance})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", p, model.FormatDisplay(balance))
	return nil
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [<principal>]",
	Short: "Show a wallet balance (defaults to yours)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := principalArgOrMe(canister.MethodGetWalletBalance, args)
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		balance, err := ledger.GetWalletBalance(ctx, p)
		if err != nil {
			return err
		}
		return showBalance(cmd, p, balance)
	},
}

var walletFundCmd = &cobra.Command{
	Use:   "fund <amount>",
	Short: "Add funds to your wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseDisplayAmount(args[0])
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		self, err := me(canister.MethodAddFundsToWallet)
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		balance, err := ledger.AddFundsToWallet(ctx, amount)
		if err != nil {
			return err
		}
		return showBalance(cmd, self, balance)
	},
}

var walletInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create your wallet on the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		self, err := me(canister.MethodInitializeUserWallet)
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		balance, err := ledger.InitializeUserWallet(ctx)
		if err != nil {
			return err
		}
		return showBalance(cmd, self, balance)
	},
}

func init() {
	walletCmd.AddCommand(walletBalanceCmd)
	walletCmd.AddCommand(walletFundCmd)
	walletCmd.AddCommand(walletInitCmd)
}
