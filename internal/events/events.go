// Package events carries land registry change notifications over NATS so
// other processes can refresh their view after a mutation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// Event topic constants
const (
	TopicLandRegistered  = "landreg.land.registered"
	TopicLandListed      = "landreg.land.listed"
	TopicLandUnlisted    = "landreg.land.unlisted"
	TopicLandBought      = "landreg.land.bought"
	TopicLandTransferred = "landreg.land.transferred"
	TopicLandVerified    = "landreg.land.verified"
	TopicLandRejected    = "landreg.land.rejected"

	// Wallet events
	TopicWalletFunded      = "landreg.wallet.funded"
	TopicWalletInitialized = "landreg.wallet.initialized"

	// TopicAll matches every landreg subject.
	TopicAll = "landreg.>"
)

// Event types

// LandChanged is the payload of every land topic. Land is the record as the
// ledger returned it after the mutation.
type LandChanged struct {
	Land  *model.Land     `json:"land"`
	Actor model.Principal `json:"actor"`
	At    time.Time       `json:"at"`
}

// LandTransferred adds the previous owner, which the post-mutation record no
// longer carries as Owner.
type LandTransferred struct {
	LandChanged
	From model.Principal `json:"from"`
}

// WalletChanged is the payload of the wallet topics. Balance is in display units.
type WalletChanged struct {
	Principal model.Principal `json:"principal"`
	Amount    float64         `json:"amount,omitempty"`
	Balance   float64         `json:"balance"`
	At        time.Time       `json:"at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Decode unmarshals a payload received on topic into its event type.
func Decode(topic string, data []byte) (any, error) {
	var target any
	switch {
	case topic == TopicLandTransferred:
		target = &LandTransferred{}
	case strings.HasPrefix(topic, "landreg.land."):
		target = &LandChanged{}
	case strings.HasPrefix(topic, "landreg.wallet."):
		target = &WalletChanged{}
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", topic, err)
	}
	return target, nil
}
