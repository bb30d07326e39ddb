package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alfredjeanlab/landreg/internal/config"
	"github.com/alfredjeanlab/landreg/internal/model"
	landsync "github.com/alfredjeanlab/landreg/internal/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export your portfolio as JSONL",
	Long:    "Export your lands and wallet balance as JSONL. With no destination configured the export is written to stdout or --out; otherwise it is shipped to every configured S3, git and Postgres destination, once or every --every.",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		every, _ := cmd.Flags().GetDuration("every")
		if !cmd.Flags().Changed("every") {
			every = cfg.ExportInterval
		}
		out, _ := cmd.Flags().GetString("out")

		self, err := me("export")
		if err != nil {
			return err
		}

		dests, closeDests, err := exportDestinations(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDests()

		if len(dests) == 0 {
			if every > 0 {
				return fmt.Errorf("--every needs at least one export destination (LANDREG_EXPORT_*)")
			}
			return exportToFile(cmd, self, out)
		}

		sched := landsync.NewScheduler(ledger, self, dests, every, logger)
		if every <= 0 {
			return sched.RunOnce(cmd.Context())
		}

		stopMetrics := serveMetrics(cfg.MetricsAddr, registry)
		defer stopMetrics()

		sched.Start(cmd.Context())
		logger.Info("export scheduler started", "interval", every, "destinations", len(dests))
		<-cmd.Context().Done()
		sched.Stop()
		return nil
	},
}

var exportLatestCmd = &cobra.Command{
	Use:   "latest [<principal>]",
	Short: "Print the most recent Postgres snapshot (defaults to yours)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ExportDatabaseURL == "" {
			return fmt.Errorf("LANDREG_EXPORT_DATABASE_URL is not set")
		}
		owner, err := principalArgOrMe("export", args)
		if err != nil {
			return err
		}

		db, err := landsync.NewPostgresDestination(cfg.ExportDatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		payload, at, err := db.Latest(cmd.Context(), owner.String())
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no snapshot recorded for %s", owner)
		}
		if err != nil {
			return err
		}
		logger.Debug("snapshot found", "owner", owner.String(), "exported_at", at)
		_, err = cmd.OutOrStdout().Write(payload)
		return err
	},
}

// exportDestinations builds every destination enabled in c. The returned
// func releases them.
func exportDestinations(ctx context.Context, c *config.Config) ([]landsync.Destination, func(), error) {
	var (
		dests   []landsync.Destination
		closers []func() error
	)
	closeAll := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}

	if c.ExportS3Bucket != "" {
		s3Dest, err := landsync.NewS3Destination(ctx, c.ExportS3Bucket, c.ExportS3Key, c.ExportS3Region, c.ExportS3Endpoint)
		if err != nil {
			return nil, func() {}, fmt.Errorf("S3 export destination: %w", err)
		}
		dests = append(dests, s3Dest)
		logger.Info("export S3 destination enabled", "bucket", c.ExportS3Bucket, "key", c.ExportS3Key)
	}

	if c.ExportGitRepo != "" {
		dests = append(dests, landsync.NewGitDestination(c.ExportGitRepo, c.ExportGitFile, c.ExportGitBranch))
		logger.Info("export git destination enabled", "repo", c.ExportGitRepo, "file", c.ExportGitFile)
	}

	if c.ExportDatabaseURL != "" {
		pg, err := landsync.NewPostgresDestination(c.ExportDatabaseURL)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("postgres export destination: %w", err)
		}
		dests = append(dests, pg)
		closers = append(closers, pg.Close)
		logger.Info("export postgres destination enabled")
	}

	return dests, closeAll, nil
}

func exportToFile(cmd *cobra.Command, owner model.Principal, path string) error {
	ctx, cancel := callContext(cmd)
	defer cancel()

	if path == "" || path == "-" {
		return landsync.ExportJSONL(ctx, ledger, owner, cmd.OutOrStdout())
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := landsync.ExportJSONL(ctx, ledger, owner, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s portfolio to %s\n", owner.Short(), path)
	return nil
}

// serveMetrics exposes reg on addr/metrics until the returned func is called.
// An empty addr disables the listener.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "addr", addr, "err", err)
		}
	}()
	logger.Info("metrics listener started", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	exportCmd.Flags().Duration("every", 0, "export repeatedly at this interval (default LANDREG_EXPORT_INTERVAL)")
	exportCmd.Flags().StringP("out", "o", "-", "file to write when no destination is configured")

	exportCmd.AddCommand(exportLatestCmd)
}
