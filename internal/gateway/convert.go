package gateway

import (
	"time"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/model"
)

// nanosToTime converts a ledger timestamp (ns since the epoch) to UTC time.
func nanosToTime(ns canister.Nat64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(ns)).UTC()
}

func parcelToModel(p *canister.LandParcel) *model.Land {
	if p == nil {
		return nil
	}
	l := &model.Land{
		ID:          uint64(p.ID),
		Owner:       p.Owner,
		Coordinates: p.Coordinates,
		Size:        p.Size,
		Description: p.Description,
		Status:      p.Status.Tag,
		CreatedAt:   nanosToTime(p.CreatedAt),
		UpdatedAt:   nanosToTime(p.UpdatedAt),
		Metadata:    p.Metadata,
	}
	if p.VerifiedBy != nil {
		v := *p.VerifiedBy
		l.VerifiedBy = &v
	}
	if p.Price != nil {
		price := model.ToDisplay(uint64(*p.Price))
		l.Price = &price
	}
	if p.PreviewImageURL != nil {
		l.PreviewImageURL = *p.PreviewImageURL
	}
	if len(p.History) > 0 {
		l.History = transfersToModel(p.History)
	}
	return l
}

func parcelsToModel(ps []canister.LandParcel) []*model.Land {
	out := make([]*model.Land, 0, len(ps))
	for i := range ps {
		out = append(out, parcelToModel(&ps[i]))
	}
	return out
}

func transfersToModel(ts []canister.LandTransfer) []model.Transfer {
	out := make([]model.Transfer, 0, len(ts))
	for _, t := range ts {
		tr := model.Transfer{
			From:      t.From,
			To:        t.To,
			Timestamp: nanosToTime(t.Timestamp),
		}
		if t.VerifiedBy != nil {
			v := *t.VerifiedBy
			tr.VerifiedBy = &v
		}
		out = append(out, tr)
	}
	return out
}

// inputToWire converts display units to subunits. It fails on an amount that
// has no subunit representation.
func inputToWire(in model.LandInput) (canister.LandInput, error) {
	w := canister.LandInput{
		Coordinates: in.Coordinates,
		Size:        in.Size,
		Description: in.Description,
		Metadata:    in.Metadata,
	}
	if in.Price != nil {
		sub, err := model.ToSubunits(*in.Price)
		if err != nil {
			return canister.LandInput{}, err
		}
		n := canister.Nat64(sub)
		w.Price = &n
	}
	return w, nil
}
