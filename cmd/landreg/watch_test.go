package main

import (
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/landreg/internal/events"
	"github.com/alfredjeanlab/landreg/internal/model"
)

func TestDiffLands(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	seen := make(map[uint64]time.Time)

	first := []*model.Land{{ID: 1, UpdatedAt: t0}, {ID: 2, UpdatedAt: t0}}
	if got := diffLands(first, seen); len(got) != 2 {
		t.Fatalf("first diff = %d lands, want 2", len(got))
	}

	// Unchanged.
	if got := diffLands(first, seen); len(got) != 0 {
		t.Fatalf("repeat diff = %d lands, want 0", len(got))
	}

	// One updated, one new.
	next := []*model.Land{{ID: 1, UpdatedAt: t1}, {ID: 2, UpdatedAt: t0}, {ID: 3, UpdatedAt: t0}}
	got := diffLands(next, seen)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("diff = %+v, want lands 1 and 3", got)
	}
}

func TestDescribeEvent(t *testing.T) {
	land := &model.Land{ID: 5, Owner: alice, Status: model.StatusSold}
	for _, tc := range []struct {
		name  string
		topic string
		ev    any
		want  []string
	}{
		{"Land", events.TopicLandBought, &events.LandChanged{Land: land, Actor: alice}, []string{"landreg.land.bought", "land 5", "Sold", alice.Short()}},
		{"Transfer", events.TopicLandTransferred, &events.LandTransferred{LandChanged: events.LandChanged{Land: land}, From: bob}, []string{"land 5", bob.Short() + " -> " + alice.Short()}},
		{"Wallet", events.TopicWalletFunded, &events.WalletChanged{Principal: alice, Balance: 3}, []string{"landreg.wallet.funded", "balance 3.0000"}},
		{"MissingLand", events.TopicLandListed, &events.LandChanged{}, []string{"landreg.land.listed"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := describeEvent(tc.topic, tc.ev)
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("describeEvent() = %q, missing %q", got, w)
				}
			}
		})
	}
}
