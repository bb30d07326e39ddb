package main

import (
	"fmt"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:     "verify",
	Short:   "Verify lands and manage verifiers",
	GroupID: "admin",
}

var verifyApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Mark a pending land as verified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		land, err := ledger.VerifyLand(ctx, id)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var verifyRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending land",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		land, err := ledger.RejectLandVerification(ctx, id)
		if err != nil {
			return err
		}
		return showLand(cmd, land)
	},
}

var verifyAddCmd = &cobra.Command{
	Use:   "add <principal>",
	Short: "Grant a principal verifier rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := model.ParsePrincipal(args[0])
		if err != nil {
			return fmt.Errorf("principal: %w", err)
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		msg, err := ledger.AddVerifier(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var verifyRemoveCmd = &cobra.Command{
	Use:   "remove <principal>",
	Short: "Revoke a principal's verifier rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := model.ParsePrincipal(args[0])
		if err != nil {
			return fmt.Errorf("principal: %w", err)
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		msg, err := ledger.RemoveVerifier(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var verifyCheckCmd = &cobra.Command{
	Use:   "check [<principal>]",
	Short: "Report whether a principal is a verifier (defaults to you)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := principalArgOrMe(canister.MethodIsUserVerifier, args)
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		ok, err := ledger.IsUserVerifier(ctx, p)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"principal": p, "verifier": ok})
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is a verifier\n", p)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not a verifier\n", p)
		}
		return nil
	},
}

func init() {
	verifyCmd.AddCommand(verifyApproveCmd)
	verifyCmd.AddCommand(verifyRejectCmd)
	verifyCmd.AddCommand(verifyAddCmd)
	verifyCmd.AddCommand(verifyRemoveCmd)
	verifyCmd.AddCommand(verifyCheckCmd)
}
