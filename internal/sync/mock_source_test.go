package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// mockSource is a minimal in-memory ledger for export tests.
type mockSource struct {
	lands    map[string][]*model.Land // keyed by owner text
	balances map[string]float64
	err      error
}

func newMockSource() *mockSource {
	return &mockSource{
		lands:    make(map[string][]*model.Land),
		balances: make(map[string]float64),
	}
}

func (m *mockSource) add(l *model.Land) {
	key := l.Owner.String()
	m.lands[key] = append(m.lands[key], l)
}

func (m *mockSource) GetUserLands(_ context.Context, owner model.Principal) ([]*model.Land, error) {
	if m.err != nil {
		return nil, m.err
	}
	// Return a copy so sorting in the exporter never touches the fixture.
	return append([]*model.Land(nil), m.lands[owner.String()]...), nil
}

func (m *mockSource) GetWalletBalance(_ context.Context, owner model.Principal) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.balances[owner.String()], nil
}

var errLedgerDown = errors.New("ledger unavailable")

var (
	alice = mustPrincipal(1)
	bob   = mustPrincipal(2)
)

func mustPrincipal(b byte) model.Principal {
	p, err := model.PrincipalFromBytes([]byte{b, b, 7})
	if err != nil {
		panic(err)
	}
	return p
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
