package main

import (
	"fmt"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/spf13/cobra"
)

var marketCmd = &cobra.Command{
	Use:     "market",
	Short:   "Buy and sell land on the marketplace",
	GroupID: "market",
}

var marketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lands for sale",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		ctx, cancel := callContext(cmd)
		defer cancel()
		lands, err := ledger.GetLandsForSale(ctx)
		if err != nil {
			return err
		}
		if !all {
			if self, ok := ledger.Principal(); ok {
				lands = listedByOthers(lands, self)
			}
		}
		return showLands(cmd, lands, 0)
	},
}

var marketSellCmd = &cobra.Command{
	Use:   "sell <id> <price>",
	Short: "List a land you own for sale",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		price, err := parseDisplayAmount(args[1])
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		self, err := me(canister.MethodSetLandForSale)
		if err != nil {
			return err
		}
		land, err := getLand(cmd, id)
		if err != nil {
			return err
		}
		if err := checkOwner(land, self); err != nil {
			return err
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		land, err = ledger.SetLandForSale(ctx, id, price)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var marketUnlistCmd = &cobra.Command{
	Use:   "unlist <id>",
	Short: "Withdraw a land from sale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		self, err := me(canister.MethodRemoveLandFromSale)
		if err != nil {
			return err
		}
		land, err := getLand(cmd, id)
		if err != nil {
			return err
		}
		if err := checkOwner(land, self); err != nil {
			return err
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		land, err = ledger.RemoveLandFromSale(ctx, id)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var marketBuyCmd = &cobra.Command{
	Use:   "buy <id>",
	Short: "Buy a land listed for sale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		self, err := me(canister.MethodBuyLand)
		if err != nil {
			return err
		}
		land, err := getLand(cmd, id)
		if err != nil {
			return err
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		balance, err := ledger.GetWalletBalance(ctx, self)
		if err != nil {
			return err
		}
		if err := checkCanBuy(land, self, balance); err != nil {
			return err
		}

		land, err = ledger.BuyLand(ctx, id)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

func init() {
	marketListCmd.Flags().Bool("all", false, "include your own listings")

	marketCmd.AddCommand(marketListCmd)
	marketCmd.AddCommand(marketSellCmd)
	marketCmd.AddCommand(marketUnlistCmd)
	marketCmd.AddCommand(marketBuyCmd)
}
