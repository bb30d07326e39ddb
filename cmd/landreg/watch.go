package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/landreg/internal/events"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Watch the marketplace for new and changed listings",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")
		raw, _ := cmd.Flags().GetBool("events")
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		stopMetrics := serveMetrics(cfg.MetricsAddr, registry)
		defer stopMetrics()

		if raw {
			if cfg.NATSURL == "" {
				return fmt.Errorf("--events needs LANDREG_NATS_URL or a profile nats_url")
			}
			return streamEvents(ctx, cfg.NATSURL, out)
		}

		seen := make(map[uint64]time.Time)
		if err := queryAndPrint(ctx, out, seen); err != nil {
			return err
		}
		if once {
			return nil
		}
		if cfg.NATSURL != "" {
			return watchNATS(ctx, cfg.NATSURL, out, seen)
		}
		return watchPoll(ctx, interval, out, seen)
	},
}

func subscribe(natsURL string, opts ...nats.Option) (events.Subscriber, <-chan events.Message, func(), error) {
	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		logger.Warn("nats: disconnected", "err", err)
	}))
	sub, err := events.NewNATSSubscriber(natsURL, opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		sub.Close()
		return nil, nil, nil, fmt.Errorf("subscribing to events: %w", err)
	}
	return sub, ch, cancel, nil
}

// watchNATS re-queries the marketplace shortly after any ledger event.
func watchNATS(ctx context.Context, natsURL string, out io.Writer, seen map[uint64]time.Time) error {
	// A reconnect may have dropped events, so re-query immediately.
	reconnectCh := make(chan struct{}, 1)
	sub, ch, cancel, err := subscribe(natsURL, nats.ReconnectHandler(func(_ *nats.Conn) {
		logger.Info("nats: reconnected")
		select {
		case reconnectCh <- struct{}{}:
		default:
		}
	}))
	if err != nil {
		return err
	}
	defer sub.Close()
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0)
		case <-debounce.C:
			if err := queryAndPrint(ctx, out, seen); err != nil {
				return err
			}
		}
	}
}

func watchPoll(ctx context.Context, interval time.Duration, out io.Writer, seen map[uint64]time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := queryAndPrint(ctx, out, seen); err != nil {
			return err
		}
	}
}

// streamEvents prints one line per ledger event until ctx ends.
func streamEvents(ctx context.Context, natsURL string, out io.Writer) error {
	sub, ch, cancel, err := subscribe(natsURL)
	if err != nil {
		return err
	}
	defer sub.Close()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				fmt.Fprintf(out, "{\"topic\":%q,\"event\":%s}\n", msg.Topic, msg.Data)
				continue
			}
			ev, err := events.Decode(msg.Topic, msg.Data)
			if err != nil {
				logger.Warn("skipping event", "topic", msg.Topic, "err", err)
				continue
			}
			fmt.Fprintln(out, describeEvent(msg.Topic, ev))
		}
	}
}

func describeEvent(topic string, ev any) string {
	switch e := ev.(type) {
	case *events.LandTransferred:
		if e.Land == nil {
			return topic
		}
		return fmt.Sprintf("%s  %s  land %d  %s -> %s", e.At.Local().Format(timeLayout), topic, e.Land.ID, e.From.Short(), e.Land.Owner.Short())
	case *events.LandChanged:
		if e.Land == nil {
			return topic
		}
		return fmt.Sprintf("%s  %s  land %d  %s  by %s", e.At.Local().Format(timeLayout), topic, e.Land.ID, e.Land.Status, e.Actor.Short())
	case *events.WalletChanged:
		return fmt.Sprintf("%s  %s  %s  balance %s", e.At.Local().Format(timeLayout), topic, e.Principal.Short(), model.FormatDisplay(e.Balance))
	default:
		return topic
	}
}

func queryAndPrint(ctx context.Context, out io.Writer, seen map[uint64]time.Time) error {
	lands, err := ledger.GetLandsForSale(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	changed := diffLands(lands, seen)
	if len(changed) == 0 {
		return nil
	}
	if jsonOutput {
		return printJSON(out, changed)
	}
	return printLandTable(out, changed, uint64(len(lands)))
}

// diffLands returns lands that are new or have a different updated_at since
// last seen. It updates seen in place.
func diffLands(lands []*model.Land, seen map[uint64]time.Time) []*model.Land {
	var changed []*model.Land
	for _, l := range lands {
		prev, ok := seen[l.ID]
		if !ok || !l.UpdatedAt.Equal(prev) {
			changed = append(changed, l)
		}
		seen[l.ID] = l.UpdatedAt
	}
	return changed
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
	watchCmd.Flags().Bool("once", false, "exit after the first query")
	watchCmd.Flags().Bool("events", false, "print raw ledger events instead of listings")
}
