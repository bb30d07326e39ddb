package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alfredjeanlab/landreg/internal/model"
	"github.com/nats-io/nats.go"
)

func testLand(id uint64) *model.Land {
	return &model.Land{
		ID:          id,
		Owner:       model.AnonymousPrincipal,
		Coordinates: "10,10",
		Size:        100,
		Description: "lakeside",
		Status:      model.StatusPending,
	}
}

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	err := pub.Publish(context.Background(), TopicLandRegistered, LandChanged{})
	if err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
}

func TestNoopPublisher_Close(t *testing.T) {
	pub := &NoopPublisher{}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestPublishers_ImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(TopicLandRegistered, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := LandChanged{Land: testLand(7), Actor: model.AnonymousPrincipal}
	if err := pub.Publish(context.Background(), TopicLandRegistered, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		var got LandChanged
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Land.ID != 7 {
			t.Errorf("got land ID=%d, want 7", got.Land.ID)
		}
		if !got.Actor.Equal(model.AnonymousPrincipal) {
			t.Errorf("got actor %s", got.Actor)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_PublishMultipleTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe(TopicAll, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	for _, tc := range []struct {
		topic string
		event any
	}{
		{TopicLandListed, LandChanged{Land: testLand(1)}},
		{TopicLandBought, LandChanged{Land: testLand(2)}},
		{TopicLandTransferred, LandTransferred{LandChanged: LandChanged{Land: testLand(3)}, From: model.AnonymousPrincipal}},
		{TopicWalletFunded, WalletChanged{Principal: model.AnonymousPrincipal, Amount: 1.5, Balance: 11.5}},
	} {
		if err := pub.Publish(context.Background(), tc.topic, tc.event); err != nil {
			t.Fatalf("Publish(%s): %v", tc.topic, err)
		}
	}
	pub.conn.Flush()

	for i := 0; i < 4; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, TopicLandListed, LandChanged{}); err == nil {
		t.Error("expected error publishing with a canceled context")
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Publishing after close should fail.
	err = pub.Publish(context.Background(), TopicLandRegistered, LandChanged{})
	if err == nil {
		t.Error("expected error publishing after close")
	}
}

func TestDecode(t *testing.T) {
	landData, _ := json.Marshal(LandChanged{Land: testLand(5)})
	transferData, _ := json.Marshal(LandTransferred{LandChanged: LandChanged{Land: testLand(6)}, From: model.AnonymousPrincipal})
	walletData, _ := json.Marshal(WalletChanged{Principal: model.AnonymousPrincipal, Balance: 10})

	for _, tc := range []struct {
		name    string
		topic   string
		data    []byte
		check   func(t *testing.T, v any)
		wantErr bool
	}{
		{name: "Land", topic: TopicLandVerified, data: landData, check: func(t *testing.T, v any) {
			ev, ok := v.(*LandChanged)
			if !ok || ev.Land.ID != 5 {
				t.Errorf("got %#v", v)
			}
		}},
		{name: "Transfer", topic: TopicLandTransferred, data: transferData, check: func(t *testing.T, v any) {
			ev, ok := v.(*LandTransferred)
			if !ok || ev.Land.ID != 6 || !ev.From.IsAnonymous() {
				t.Errorf("got %#v", v)
			}
		}},
		{name: "Wallet", topic: TopicWalletInitialized, data: walletData, check: func(t *testing.T, v any) {
			ev, ok := v.(*WalletChanged)
			if !ok || ev.Balance != 10 {
				t.Errorf("got %#v", v)
			}
		}},
		{name: "UnknownTopic", topic: "other.thing", data: []byte(`{}`), wantErr: true},
		{name: "BadPayload", topic: TopicLandListed, data: []byte(`not json`), wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Decode(tc.topic, tc.data)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			tc.check(t, v)
		})
	}
}
