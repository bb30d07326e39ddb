package main

import (
	"errors"
	"testing"

	"github.com/alfredjeanlab/landreg/internal/model"
)

func TestCheckCanBuy(t *testing.T) {
	price := 5.0
	for _, tc := range []struct {
		name    string
		land    model.Land
		balance float64
		wantErr bool
	}{
		{"Listed", model.Land{ID: 1, Owner: bob, Status: model.StatusForSale, Price: &price}, 5, false},
		{"ListedWithoutPrice", model.Land{ID: 1, Owner: bob, Status: model.StatusForSale}, 0, false},
		{"Verified", model.Land{ID: 1, Owner: bob, Status: model.StatusVerified}, 100, true},
		{"Sold", model.Land{ID: 1, Owner: bob, Status: model.StatusSold}, 100, true},
		{"Own", model.Land{ID: 1, Owner: alice, Status: model.StatusForSale, Price: &price}, 100, true},
		{"Short", model.Land{ID: 1, Owner: bob, Status: model.StatusForSale, Price: &price}, 4.5, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := checkCanBuy(&tc.land, alice, tc.balance)
			if (err != nil) != tc.wantErr {
				t.Errorf("checkCanBuy() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCheckOwner(t *testing.T) {
	land := &model.Land{ID: 3, Owner: alice}
	if err := checkOwner(land, alice); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := checkOwner(land, bob); err == nil {
		t.Error("non-owner accepted")
	}
}

func TestListedByOthers(t *testing.T) {
	lands := []*model.Land{{ID: 1, Owner: alice}, {ID: 2, Owner: bob}, {ID: 3, Owner: alice}}
	got := listedByOthers(lands, alice)
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("listedByOthers = %+v", got)
	}
}

func TestParseID(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"7", 7, false},
		{" 42 ", 42, false},
		{"18446744073709551615", 18446744073709551615, false},
		{"-1", 0, true},
		{"seven", 0, true},
		{"", 0, true},
	} {
		got, err := parseID(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("parseID(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want model.LandStatus
	}{
		{"ForSale", model.StatusForSale},
		{"forsale", model.StatusForSale},
		{"PENDING", model.StatusPending},
	} {
		got, err := parseStatus(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("parseStatus(%q) = %q, %v", tc.in, got, err)
		}
	}
	if _, err := parseStatus("Listed"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseDisplayAmount(t *testing.T) {
	got, err := parseDisplayAmount("0.29")
	if err != nil || got != 0.29 {
		t.Errorf("parseDisplayAmount(0.29) = %v, %v", got, err)
	}
	if _, err := parseDisplayAmount("1e3"); !errors.Is(err, model.ErrInvalidAmount) {
		t.Errorf("parseDisplayAmount(1e3) error = %v", err)
	}
}
