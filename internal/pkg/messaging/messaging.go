// Package messaging is a thin broker-agnostic publish/consume layer. It
// supports Kafka, NATS, NSQ, and Google Pub/Sub behind one interface so the
// broker is a deployment choice, not a code change.
package messaging

import (
	"context"
	"io"
)

// Messaging publishes and consumes messages on a single broker.
type Messaging interface {
	io.Closer

	// Publish sends a message to the destination (topic/subject).
	Publish(ctx context.Context, destination string, msg Message) error

	// Consume processes messages from the source until the context is
	// canceled or the broker connection fails. It blocks.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Message is a broker-agnostic message. Headers are carried natively on
// brokers that support them; on NSQ they are folded into the payload
// envelope.
type Message struct {
	// ID is the broker-assigned message ID when consuming, ignored on publish.
	ID string
	// Body is the message payload.
	Body []byte
	// Headers carries message metadata such as the correlation ID.
	Headers map[string]string
	// Key is the partitioning key for brokers that use one.
	Key []byte
}

// Handler processes a received message. Returning nil acknowledges the
// message; returning an error requests redelivery where the broker
// supports it.
type Handler func(ctx context.Context, msg Message) error

type consumeOptions struct {
	concurrency  int
	group        string
	channel      string
	queueGroup   string
	subscription string
	maxInFlight  int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency < 1 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup sets the consumer group name (Kafka).
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithChannel sets the channel name (NSQ).
func WithChannel(channel string) ConsumeOption {
	return func(o *consumeOptions) { o.channel = channel }
}

// WithQueueGroup sets the queue group name (NATS).
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(o *consumeOptions) { o.queueGroup = queueGroup }
}

// WithSubscription sets the subscription name (Google Pub/Sub).
func WithSubscription(subscription string) ConsumeOption {
	return func(o *consumeOptions) { o.subscription = subscription }
}

// WithMaxInFlight limits the number of unacknowledged messages in flight.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}
