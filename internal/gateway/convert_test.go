package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/landreg/internal/canister"
	"github.com/alfredjeanlab/landreg/internal/model"
)

func TestParcelToModel_FullFields(t *testing.T) {
	price := canister.Nat64(1234550000000)
	url := "https://example.com/p.png"
	verifier := bob
	p := &canister.LandParcel{
		ID:          9,
		Owner:       alice,
		Coordinates: "51.5,-0.12",
		Size:        250.5,
		Description: "river plot",
		Status:      canister.Status{Tag: model.StatusVerified},
		VerifiedBy:  &verifier,
		CreatedAt:   1760000000000000000,
		UpdatedAt:   1760000001000000000,
		History: []canister.LandTransfer{
			{From: bob, To: alice, Timestamp: 1760000000500000000, VerifiedBy: &verifier},
		},
		Price:           &price,
		Metadata:        `{"zone":"a"}`,
		PreviewImageURL: &url,
	}

	l := parcelToModel(p)

	if l.ID != 9 || !l.OwnedBy(alice) || l.Status != model.StatusVerified {
		t.Errorf("identity fields = %d %s %s", l.ID, l.Owner, l.Status)
	}
	if l.VerifiedBy == nil || !l.VerifiedBy.Equal(bob) {
		t.Errorf("VerifiedBy = %v", l.VerifiedBy)
	}
	if want := time.Unix(0, 1760000001000000000).UTC(); !l.UpdatedAt.Equal(want) || l.UpdatedAt.Location() != time.UTC {
		t.Errorf("UpdatedAt = %v, want %v", l.UpdatedAt, want)
	}
	if l.Price == nil || *l.Price != 12345.5 {
		t.Errorf("Price = %v, want 12345.5", l.Price)
	}
	if l.PreviewImageURL != url {
		t.Errorf("PreviewImageURL = %q", l.PreviewImageURL)
	}
	if len(l.History) != 1 || !l.History[0].From.Equal(bob) || l.History[0].VerifiedBy == nil {
		t.Errorf("History = %+v", l.History)
	}
	if err := model.ValidateLand(l); err != nil {
		t.Errorf("converted land fails validation: %v", err)
	}
}

func TestParcelToModel_Nil(t *testing.T) {
	if l := parcelToModel(nil); l != nil {
		t.Errorf("parcelToModel(nil) = %+v, want nil", l)
	}
}

func TestParcelToModel_Unpriced(t *testing.T) {
	l := parcelToModel(&canister.LandParcel{ID: 1, Status: canister.Status{Tag: model.StatusPending}})
	if l.Price != nil {
		t.Errorf("Price = %v, want nil", *l.Price)
	}
	if !l.CreatedAt.IsZero() {
		t.Errorf("CreatedAt = %v, want zero", l.CreatedAt)
	}
	if l.History != nil {
		t.Errorf("History = %v, want nil", l.History)
	}
}

func TestInputToWire(t *testing.T) {
	price := 0.29
	w, err := inputToWire(model.LandInput{Coordinates: "1,1", Size: 2, Description: "d", Metadata: "m", Price: &price})
	if err != nil {
		t.Fatalf("inputToWire error = %v", err)
	}
	if w.Price == nil || *w.Price != 29000000 {
		t.Errorf("Price = %v, want 29000000", w.Price)
	}

	w, err = inputToWire(model.LandInput{Coordinates: "1,1", Size: 2, Description: "d"})
	if err != nil || w.Price != nil {
		t.Errorf("unpriced input = %+v, %v", w, err)
	}

	neg := -1.0
	if _, err := inputToWire(model.LandInput{Price: &neg}); !errors.Is(err, model.ErrInvalidAmount) {
		t.Errorf("negative price error = %v, want ErrInvalidAmount", err)
	}
}
