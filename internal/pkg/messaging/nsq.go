package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nsqio/go-nsq"
)

var (
	// ErrNSQDAddressRequired is returned when no nsqd address is configured.
	ErrNSQDAddressRequired = errors.New("messaging: nsqd address is required")
	// ErrNSQChannelRequired is returned when Consume is called without a channel.
	ErrNSQChannelRequired = errors.New("messaging: nsq channel is required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// NSQDAddress is the nsqd TCP address used for publishing and consuming.
	NSQDAddress string
	// LookupdAddresses optionally lists nsqlookupd HTTP addresses for consumers.
	LookupdAddresses []string
}

// nsqEnvelope folds headers into the payload because NSQ messages have no
// native header support.
type nsqEnvelope struct {
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

// NSQ is a Messaging implementation backed by go-nsq.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer
}

// NewNSQ constructs an NSQ messaging client.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.NSQDAddress == "" {
		return nil, ErrNSQDAddressRequired
	}

	producer, err := nsq.NewProducer(cfg.NSQDAddress, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}

	return &NSQ{cfg: cfg, producer: producer}, nil
}

// Publish sends a message to an NSQ topic.
func (n *NSQ) Publish(ctx context.Context, destination string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(nsqEnvelope{Headers: msg.Headers, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("messaging: nsq envelope: %w", err)
	}

	if err := n.producer.Publish(destination, payload); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return nil
}

// Consume reads messages from an NSQ topic on the given channel. Handler
// errors requeue the message. It blocks until the context is canceled.
func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	if co.channel == "" {
		return ErrNSQChannelRequired
	}

	cfg := nsq.NewConfig()
	if co.maxInFlight > 0 {
		cfg.MaxInFlight = co.maxInFlight
	}

	consumer, err := nsq.NewConsumer(source, co.channel, cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		var env nsqEnvelope
		if err := json.Unmarshal(m.Body, &env); err != nil {
			// Not an envelope, deliver the raw body.
			env = nsqEnvelope{Body: m.Body}
		}

		return handler(ctx, Message{
			ID:      string(m.ID[:]),
			Body:    env.Body,
			Headers: env.Headers,
		})
	}), co.concurrency)

	if len(n.cfg.LookupdAddresses) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddresses)
	} else {
		err = consumer.ConnectToNSQD(n.cfg.NSQDAddress)
	}
	if err != nil {
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

// Close stops the NSQ producer.
func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}
