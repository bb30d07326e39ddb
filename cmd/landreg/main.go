package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/config"
	"github.com/alfredjeanlab/landreg/internal/events"
	"github.com/alfredjeanlab/landreg/internal/gateway"
	"github.com/alfredjeanlab/landreg/internal/metrics"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/alfredjeanlab/landreg/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	serverAddr   string
	transport    string
	canisterID   string
	principalArg string
	token        string
	profileName  string
	jsonOutput   bool
	verbose      bool

	cfg       *config.Config
	logger    *slog.Logger
	ledger    *gateway.Gateway
	session   *gateway.Session
	publisher events.Publisher
	registry  = prometheus.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:           "landreg <command>",
	Short:         "CLI client for the land registry ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)

		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = c

		conn, err := dial(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to ledger: %w", err)
		}

		publisher = &events.NoopPublisher{}
		if cfg.NATSURL != "" {
			p, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				logger.Warn("event publishing disabled", "nats", cfg.NATSURL, "err", err)
			} else {
				publisher = p
			}
		}

		ledger = gateway.New(
			gateway.WithLogger(logger),
			gateway.WithPublisher(publisher),
			gateway.WithMetrics(metrics.NewGateway(registry)),
		)

		// Without a principal the gateway stays unbound and every ledger
		// command fails with a not-bound error.
		if cfg.Principal == "" {
			conn.Close()
			return nil
		}
		p, err := model.ParsePrincipal(cfg.Principal)
		if err != nil {
			conn.Close()
			return fmt.Errorf("principal: %w", err)
		}
		if p.IsAnonymous() {
			logger.Warn("calling as the anonymous principal; the ledger rejects most mutations from it")
		}
		s, err := gateway.NewSession(conn, p)
		if err != nil {
			conn.Close()
			return err
		}
		session = s
		ledger.Bind(session)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ledger != nil {
			ledger.Bind(nil)
		}
		if session != nil {
			session.Close()
		}
		if publisher != nil {
			publisher.Close()
		}
	},
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers settings: environment, then the selected profile, then
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}

	name := profileName
	if name == "" {
		name = os.Getenv("LANDREG_PROFILE")
	}
	prof, err := selectProfile(name)
	if err != nil {
		return nil, err
	}
	if prof != nil {
		prof.apply(c)
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		c.Transport = transport
		if !flags.Changed("server") && os.Getenv("LANDREG_HOST") == "" && (prof == nil || prof.Host == "") {
			c.Host = config.DefaultHost(c.Env, c.Transport)
		}
	}
	if flags.Changed("server") {
		c.Host = serverAddr
	}
	if flags.Changed("canister") {
		c.CanisterID = canisterID
	}
	if flags.Changed("principal") {
		c.Principal = principalArg
	}
	if flags.Changed("token") {
		c.Token = token
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func signerFor(c *config.Config) canister.Signer {
	switch {
	case c.HMACKeyID != "" && c.HMACSecret != "":
		return canister.HMACSigner{KeyID: c.HMACKeyID, Secret: c.HMACSecret}
	case c.Token != "":
		return canister.BearerToken(c.Token)
	default:
		return nil
	}
}

func dial(c *config.Config) (canister.Conn, error) {
	opts := []canister.ConnOption{canister.WithLogger(logger)}
	if s := signerFor(c); s != nil {
		opts = append(opts, canister.WithSigner(s))
	}
	switch c.Transport {
	case config.TransportGRPC:
		return canister.NewGRPCConn(c.Host, c.CanisterID, opts...)
	default:
		opts = append(opts, canister.WithHTTPClient(&http.Client{Timeout: c.Timeout}))
		return canister.NewHTTPConn(c.Host, c.CanisterID, opts...), nil
	}
}

// callContext bounds a single ledger call by the configured timeout.
func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil || cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}

// me returns the bound principal or a not-bound error naming the command.
func me(op string) (model.Principal, error) {
	p, ok := ledger.Principal()
	if !ok {
		return model.Principal{}, &gateway.NotBoundError{Operation: op}
	}
	return p, nil
}

// addGlobalFlags registers the connection and output flags on cmd.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&serverAddr, "server", "", "ledger host (URL for http, host:port for grpc)")
	cmd.PersistentFlags().StringVar(&transport, "transport", config.TransportHTTP, "transport protocol (http or grpc)")
	cmd.PersistentFlags().StringVar(&canisterID, "canister", "", "land registry canister id")
	cmd.PersistentFlags().StringVar(&principalArg, "principal", "", "principal to call as")
	cmd.PersistentFlags().StringVar(&token, "token", "", "bearer token for authentication")
	cmd.PersistentFlags().StringVar(&profileName, "profile", "", "named profile (defaults to the active one)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every ledger call")
}

func init() {
	addGlobalFlags(rootCmd)

	rootCmd.AddGroup(
		&cobra.Group{ID: "lands", Title: "Lands:"},
		&cobra.Group{ID: "market", Title: "Marketplace:"},
		&cobra.Group{ID: "admin", Title: "Verification:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	rootCmd.AddCommand(landCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error:")+" "+describeError(err))
		os.Exit(1)
	}
}
