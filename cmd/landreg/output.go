package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/landreg/internal/gateway"
	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/alfredjeanlab/landreg/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return model.FormatDisplay(*p)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printLand(w io.Writer, l *model.Land, color bool) {
	status := l.Status.String()
	if color {
		status = ui.RenderStatus(l.Status)
	}
	fmt.Fprintf(w, "ID:           %d\n", l.ID)
	fmt.Fprintf(w, "Owner:        %s\n", l.Owner)
	fmt.Fprintf(w, "Status:       %s\n", status)
	fmt.Fprintf(w, "Coordinates:  %s\n", l.Coordinates)
	fmt.Fprintf(w, "Size:         %s\n", strconv.FormatFloat(l.Size, 'f', -1, 64))
	fmt.Fprintf(w, "Price:        %s\n", formatPrice(l.Price))
	if l.Description != "" {
		fmt.Fprintf(w, "Description:  %s\n", l.Description)
	}
	if l.Metadata != "" {
		fmt.Fprintf(w, "Metadata:     %s\n", l.Metadata)
	}
	if l.PreviewImageURL != "" {
		fmt.Fprintf(w, "Preview:      %s\n", l.PreviewImageURL)
	}
	if l.VerifiedBy != nil {
		fmt.Fprintf(w, "Verified By:  %s\n", l.VerifiedBy)
	}
	fmt.Fprintf(w, "Created At:   %s\n", formatTime(l.CreatedAt))
	fmt.Fprintf(w, "Updated At:   %s\n", formatTime(l.UpdatedAt))
	if len(l.History) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "History:")
		for _, t := range l.History {
			fmt.Fprintf(w, "  [%s] %s -> %s\n", formatTime(t.Timestamp), t.From.Short(), t.To.Short())
		}
	}
}

// printLandTable prints lands one per row. A total above len(lands) is
// reported in the footer.
func printLandTable(w io.Writer, lands []*model.Land, total uint64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tOWNER\tSIZE\tPRICE\tCOORDINATES\tDESCRIPTION")
	for _, l := range lands {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			l.Status,
			l.Owner.Short(),
			strconv.FormatFloat(l.Size, 'f', -1, 64),
			formatPrice(l.Price),
			ui.Truncate(l.Coordinates, 24),
			ui.Truncate(l.Description, 40),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if total > uint64(len(lands)) {
		fmt.Fprintf(w, "\n%d lands (%d total)\n", len(lands), total)
	} else {
		fmt.Fprintf(w, "\n%d lands\n", len(lands))
	}
	return nil
}

func printHistoryTable(w io.Writer, history []model.Transfer) error {
	if len(history) == 0 {
		fmt.Fprintln(w, "no transfers recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFROM\tTO\tVERIFIED BY")
	for _, t := range history {
		verifier := "-"
		if t.VerifiedBy != nil {
			verifier = t.VerifiedBy.Short()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatTime(t.Timestamp), t.From, t.To, verifier)
	}
	return tw.Flush()
}

// describeError renders err for the terminal. Ledger rejections are shown
// verbatim.
func describeError(err error) string {
	var rej *gateway.RemoteRejection
	switch {
	case errors.As(err, &rej):
		return rej.Message
	case errors.Is(err, gateway.ErrNotBound):
		return err.Error() + " (set --principal, LANDREG_PRINCIPAL or a profile principal)"
	default:
		return err.Error()
	}
}
