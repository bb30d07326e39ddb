package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// Source is the read side of the ledger an export draws from. The gateway
// satisfies it.
type Source interface {
	GetUserLands(ctx context.Context, owner model.Principal) ([]*model.Land, error)
	GetWalletBalance(ctx context.Context, owner model.Principal) (float64, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string          `json:"version"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Owner     model.Principal `json:"owner"`
	LandCount int             `json:"land_count"`
	Balance   float64         `json:"balance"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes owner's portfolio as JSONL to w: a header with the
// wallet balance, then one record per parcel sorted by id. Each parcel
// carries its ownership history.
func ExportJSONL(ctx context.Context, src Source, owner model.Principal, w io.Writer) error {
	lands, err := src.GetUserLands(ctx, owner)
	if err != nil {
		return fmt.Errorf("list lands: %w", err)
	}
	balance, err := src.GetWalletBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("get wallet balance: %w", err)
	}

	sort.Slice(lands, func(i, j int) bool {
		return lands[i].ID < lands[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		Owner:     owner,
		LandCount: len(lands),
		Balance:   balance,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, l := range lands {
		if err := enc.Encode(record{Type: "land", Data: l}); err != nil {
			return fmt.Errorf("encode land %d: %w", l.ID, err)
		}
	}

	return nil
}

// readHeader decodes the header line of an export.
func readHeader(data []byte) (header, error) {
	var h header
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&h); err != nil {
		return header{}, fmt.Errorf("decode header: %w", err)
	}
	if h.Type != "header" {
		return header{}, fmt.Errorf("decode header: first record has type %q", h.Type)
	}
	return h, nil
}
