package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
)

var (
	// ErrPubSubProjectRequired is returned when no GCP project is configured.
	ErrPubSubProjectRequired = errors.New("messaging: pubsub project id is required")
	// ErrPubSubSubscriptionRequired is returned when Consume is called without a subscription.
	ErrPubSubSubscriptionRequired = errors.New("messaging: pubsub subscription is required")
)

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the GCP project hosting the topics.
	ProjectID string
}

// PubSub is a Messaging implementation backed by Google Cloud Pub/Sub.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewPubSub connects to Google Pub/Sub.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectRequired
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}

	return &PubSub{
		client:     client,
		publishers: map[string]*pubsub.Publisher{},
	}, nil
}

// Publish sends a message to a Pub/Sub topic. Headers travel as attributes.
func (p *PubSub) Publish(ctx context.Context, destination string, msg Message) error {
	publisher := p.getPublisher(destination)

	res := publisher.Publish(ctx, &pubsub.Message{
		Data:       msg.Body,
		Attributes: msg.Headers,
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return nil
}

// Consume receives messages from a subscription, acking on handler success
// and nacking on failure. It blocks until the context is canceled.
func (p *PubSub) Consume(ctx context.Context, _ string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	if co.subscription == "" {
		return ErrPubSubSubscriptionRequired
	}

	sub := p.client.Subscriber(co.subscription)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		msg := Message{
			ID:      m.ID,
			Body:    m.Data,
			Headers: m.Attributes,
		}
		if err := handler(ctx, msg); err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("messaging: pubsub receive: %w", err)
	}

	return ctx.Err()
}

// Close stops the publishers and the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	publishers := make([]*pubsub.Publisher, 0, len(p.publishers))
	for _, pub := range p.publishers {
		publishers = append(publishers, pub)
	}
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range publishers {
		pub.Stop()
	}

	return p.client.Close()
}

func (p *PubSub) getPublisher(topic string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publishers == nil {
		p.publishers = map[string]*pubsub.Publisher{}
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub
	}

	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub
	return pub
}
