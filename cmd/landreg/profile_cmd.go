package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/landreg/internal/config"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Manage named ledger profiles",
	GroupID: "system",
	// All profile subcommands are local file operations.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <host>",
	Short: "Add or update a named profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, host := args[0], args[1]
		transport, _ := cmd.Flags().GetString("transport")
		canister, _ := cmd.Flags().GetString("canister")
		principal, _ := cmd.Flags().GetString("principal")
		token, _ := cmd.Flags().GetString("token")
		natsURL, _ := cmd.Flags().GetString("nats")

		switch transport {
		case "", config.TransportHTTP, config.TransportGRPC:
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}

		p := Profile{Host: host, Transport: transport, CanisterID: canister, Token: token, NATSURL: natsURL}
		if principal != "" {
			parsed, err := model.ParsePrincipal(principal)
			if err != nil {
				return fmt.Errorf("principal: %w", err)
			}
			p.Principal = &parsed
		}

		cfg, err := loadProfilesConfig()
		if err != nil {
			return err
		}
		cfg.Profiles[name] = p
		if err := saveProfilesConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "profile %q added (%s)\n", name, host)
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := loadProfilesConfig()
		if err != nil {
			return err
		}
		if _, ok := cfg.Profiles[name]; !ok {
			return fmt.Errorf("profile %q not found", name)
		}
		delete(cfg.Profiles, name)
		if cfg.Active == name {
			cfg.Active = ""
		}
		if err := saveProfilesConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "profile %q removed\n", name)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfilesConfig()
		if err != nil {
			return err
		}
		if len(cfg.Profiles) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no profiles configured")
			return nil
		}
		names := make([]string, 0, len(cfg.Profiles))
		for name := range cfg.Profiles {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tHOST\tCANISTER\tPRINCIPAL\tTOKEN")
		for _, name := range names {
			p := cfg.Profiles[name]
			marker := "  "
			if name == cfg.Active {
				marker = "* "
			}
			principal := ""
			if p.Principal != nil {
				principal = p.Principal.Short()
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n", marker, name, p.Host, p.CanisterID, principal, maskToken(p.Token, "..."))
		}
		return w.Flush()
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := loadProfilesConfig()
		if err != nil {
			return err
		}
		if _, ok := cfg.Profiles[name]; !ok {
			return fmt.Errorf("profile %q not found", name)
		}
		cfg.Active = name
		if err := saveProfilesConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active profile set to %q\n", name)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [<name>]",
	Short: "Show details for a profile (defaults to active)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfilesConfig()
		if err != nil {
			return err
		}

		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no active profile; specify a name or run 'landreg profile use <name>'")
		}

		p, ok := cfg.Profiles[name]
		if !ok {
			return fmt.Errorf("profile %q not found", name)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		active := ""
		if name == cfg.Active {
			active = " (active)"
		}
		fmt.Fprintf(w, "name:\t%s%s\n", name, active)
		fmt.Fprintf(w, "host:\t%s\n", p.Host)
		if p.Transport != "" {
			fmt.Fprintf(w, "transport:\t%s\n", p.Transport)
		}
		if p.CanisterID != "" {
			fmt.Fprintf(w, "canister:\t%s\n", p.CanisterID)
		}
		if p.Principal != nil {
			fmt.Fprintf(w, "principal:\t%s\n", p.Principal)
		}
		if p.Token != "" {
			fmt.Fprintf(w, "token:\t%s\n", maskToken(p.Token, "*"))
		}
		if p.NATSURL != "" {
			fmt.Fprintf(w, "nats_url:\t%s\n", p.NATSURL)
		}
		return w.Flush()
	},
}

// maskToken keeps the first eight characters of a credential. With pad "*"
// the hidden characters are starred; any other pad is appended once.
func maskToken(token, pad string) string {
	if len(token) <= 8 {
		return token
	}
	if pad == "*" {
		return token[:8] + strings.Repeat("*", len(token)-8)
	}
	return token[:8] + pad
}

func init() {
	profileAddCmd.Flags().String("transport", "", "transport protocol (http or grpc)")
	profileAddCmd.Flags().String("canister", "", "land registry canister id")
	profileAddCmd.Flags().String("principal", "", "principal to call as")
	profileAddCmd.Flags().String("token", "", "bearer token for authentication")
	profileAddCmd.Flags().String("nats", "", "NATS URL for event streaming")

	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileShowCmd)
}
