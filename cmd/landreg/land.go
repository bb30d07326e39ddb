package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/gateway"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/alfredjeanlab/landreg/internal/ui"
	"github.com/spf13/cobra"
)

var landCmd = &cobra.Command{
	Use:     "land",
	Short:   "Register, inspect and transfer land parcels",
	GroupID: "lands",
}

var landRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new land parcel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, _ := cmd.Flags().GetString("coords")
		size, _ := cmd.Flags().GetFloat64("size")
		desc, _ := cmd.Flags().GetString("description")
		meta, _ := cmd.Flags().GetString("metadata")

		in := model.LandInput{Coordinates: coords, Size: size, Description: desc, Metadata: meta}
		if cmd.Flags().Changed("price") {
			text, _ := cmd.Flags().GetString("price")
			price, err := parseDisplayAmount(text)
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			in.Price = &price
		}
		if err := model.ValidateLandInput(&in); err != nil {
			return err
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		land, err := ledger.RegisterLand(ctx, in)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var landShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a land parcel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		land, err := getLand(cmd, id)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var landListCmd = &cobra.Command{
	Use:   "list [<principal>]",
	Short: "List lands owned by a principal (defaults to you)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := principalArgOrMe(canister.MethodGetUserLands, args)
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		lands, err := ledger.GetUserLands(ctx, owner)
		if err != nil {
			return err
		}
		return showLands(cmd, lands, 0)
	},
}

var landAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every registered land",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext(cmd)
		defer cancel()
		lands, err := ledger.GetAllLands(ctx)
		if err != nil {
			return err
		}
		total, err := ledger.GetTotalLands(ctx)
		if err != nil {
			return err
		}
		return showLands(cmd, lands, total)
	},
}

var landSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search lands by coordinates or description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext(cmd)
		defer cancel()
		lands, err := ledger.SearchLands(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return showLands(cmd, lands, 0)
	},
}

var landHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the ownership history of a land parcel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		history, err := ledger.GetLandHistory(ctx, id)
		if errors.Is(err, gateway.ErrLandNotFound) {
			return fmt.Errorf("land %d not found", id)
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), history)
		}
		return printHistoryTable(cmd.OutOrStdout(), history)
	},
}

var landTransferCmd = &cobra.Command{
	Use:   "transfer <id> <principal>",
	Short: "Transfer a land parcel you own to another principal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		to, err := model.ParsePrincipal(args[1])
		if err != nil {
			return fmt.Errorf("new owner: %w", err)
		}
		self, err := me(canister.MethodTransferOwnership)
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
		if to.Equal(self) {
			return fmt.Errorf("land %d is already yours", id)
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		land, err = ledger.TransferOwnership(ctx, id, to)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var landPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List lands awaiting verification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext(cmd)
		defer cancel()
		lands, err := ledger.GetPendingVerificationLands(ctx)
		if err != nil {
			return err
		}
		return showLands(cmd, lands, 0)
	},
}

var landStatusCmd = &cobra.Command{
	Use:   "status <status>",
	Short: "List lands with a given status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := parseStatus(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		lands, err := ledger.GetLandsByStatus(ctx, status)
		if err != nil {
			return err
		}
		return showLands(cmd, lands, 0)
	},
}

func getLand(cmd *cobra.Command, id uint64) (*model.Land, error) {
	ctx, cancel := callContext(cmd)
	defer cancel()
	land, err := ledger.GetLandDetails(ctx, id)
	if errors.Is(err, gateway.ErrLandNotFound) {
		return nil, fmt.Errorf("land %d not found", id)
	}
	return land, err
}

func principalArgOrMe(op string, args []string) (model.Principal, error) {
	if len(args) == 1 {
		p, err := model.ParsePrincipal(args[0])
		if err != nil {
			return model.Principal{}, fmt.Errorf("principal: %w", err)
		}
		return p, nil
	}
	return me(op)
}

func showLand(cmd *cobra.Command, land *model.Land) error {
	if err := model.ValidateLand(land); err != nil {
		logger.Warn("ledger returned an inconsistent record", "land", land.ID, "err", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), land)
	}
	printLand(cmd.OutOrStdout(), land, ui.ShouldUseColor())
	return nil
}

func showLands(cmd *cobra.Command, lands []*model.Land, total uint64) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), lands)
	}
	return printLandTable(cmd.OutOrStdout(), lands, total)
}

func init() {
	landRegisterCmd.Flags().String("coords", "", "parcel coordinates")
	landRegisterCmd.Flags().Float64("size", 0, "parcel size")
	landRegisterCmd.Flags().StringP("description", "d", "", "parcel description")
	landRegisterCmd.Flags().String("metadata", "", "free-form metadata")
	landRegisterCmd.Flags().String("price", "", "asking price in display units")

	landCmd.AddCommand(landRegisterCmd)
	landCmd.AddCommand(landShowCmd)
	landCmd.AddCommand(landListCmd)
	landCmd.AddCommand(landAllCmd)
	landCmd.AddCommand(landSearchCmd)
	landCmd.AddCommand(landHistoryCmd)
	landCmd.AddCommand(landTransferCmd)
	landCmd.AddCommand(landPendingCmd)
	landCmd.AddCommand(landStatusCmd)
}
