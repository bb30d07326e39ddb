package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// These checks run before a mutation so the user gets a specific message
// instead of a generic ledger rejection. The ledger still enforces its own
// rules.

func checkOwner(l *model.Land, me model.Principal) error {
	if !l.OwnedBy(me) {
		return fmt.Errorf("you don't own land %d (owner %s)", l.ID, l.Owner)
	}
	return nil
}

func checkCanBuy(l *model.Land, me model.Principal, balance float64) error {
	if !l.IsForSale() {
		return fmt.Errorf("land %d is not for sale (status %s)", l.ID, l.Status)
	}
	if l.OwnedBy(me) {
		return fmt.Errorf("you cannot buy your own land")
	}
	if l.Price != nil && balance < *l.Price {
		return fmt.Errorf("insufficient funds: balance %s, price %s",
			model.FormatDisplay(balance), model.FormatDisplay(*l.Price))
	}
	return nil
}

// listedByOthers drops the caller's own listings from a marketplace view.
func listedByOthers(lands []*model.Land, me model.Principal) []*model.Land {
	out := make([]*model.Land, 0, len(lands))
	for _, l := range lands {
		if !l.OwnedBy(me) {
			out = append(out, l)
		}
	}
	return out
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid land id %q", s)
	}
	return id, nil
}

// parseDisplayAmount parses decimal text exactly and returns it in display
// units.
func parseDisplayAmount(s string) (float64, error) {
	subunits, err := model.ParseAmount(s)
	if err != nil {
		return 0, err
	}
	return model.ToDisplay(subunits), nil
}

func parseStatus(s string) (model.LandStatus, error) {
	for _, st := range model.LandStatuses {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	names := make([]string, len(model.LandStatuses))
	for i, st := range model.LandStatuses {
		names[i] = st.String()
	}
	return "", fmt.Errorf("unknown status %q (must be one of %s)", s, strings.Join(names, ", "))
}
