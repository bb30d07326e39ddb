package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ClientName identifies landreg connections in NATS monitoring.
const ClientName = "landreg"

// subscriptionBuffer is how many undelivered events a watcher may fall behind
// before newer ones are dropped.
const subscriptionBuffer = 64

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, []nats.Option{nats.Name(ClientName)}, opts)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", topic, err)
	}
	return p.conn.Publish(topic, payload)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers landreg events to watchers. It reconnects forever;
// pass nats.ReconnectHandler to learn when events may have been missed.
type NATSSubscriber struct {
	conn *nats.Conn
}

func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, []nats.Option{
		nats.Name(ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, opts)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

func connect(url string, defaults, extra []nats.Option) (*nats.Conn, error) {
	nc, err := nats.Connect(url, append(defaults, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// Subscribe delivers messages matching topic (wildcards such as TopicAll are
// allowed) until the returned cancel function is called, which closes the
// channel. The subscription is registered on the server before Subscribe
// returns.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	w := &watcher{ch: make(chan Message, subscriptionBuffer)}

	sub, err := s.conn.Subscribe(topic, w.deliver)
	if err != nil {
		w.shut(nil)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if err := s.conn.Flush(); err != nil {
		w.shut(sub)
		return nil, nil, fmt.Errorf("registering subscription to %s: %w", topic, err)
	}
	return w.ch, func() { w.shut(sub) }, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// watcher fans one NATS subscription into a channel. deliver runs on the NATS
// dispatch goroutine and must never block it.
type watcher struct {
	mu     sync.Mutex
	ch     chan Message
	done   bool
	closer sync.Once
}

func (w *watcher) deliver(msg *nats.Msg) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	select {
	case w.ch <- Message{Topic: msg.Subject, Data: msg.Data}:
	default:
	}
}

// shut unsubscribes, discards anything still queued and closes the channel.
// Safe to call more than once.
func (w *watcher) shut(sub *nats.Subscription) {
	w.closer.Do(func() {
		if sub != nil {
			_ = sub.Unsubscribe()
		}
		w.mu.Lock()
		w.done = true
		for len(w.ch) > 0 {
			<-w.ch
		}
		close(w.ch)
		w.mu.Unlock()
	})
}
