package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when no NATS server URL is configured.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. nats://localhost:4222.
	URL string
	// Name identifies this connection on the server.
	Name string
}

// NATS is a Messaging implementation over core NATS subjects. Delivery is
// at-most-once; handler errors are logged by the caller, not redelivered.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Publish sends a message to a NATS subject.
func (n *NATS) Publish(ctx context.Context, destination string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := &nats.Msg{
		Subject: destination,
		Data:    msg.Body,
		Header:  nats.Header{},
	}
	for key, value := range msg.Headers {
		m.Header.Set(key, value)
	}

	if err := n.conn.PublishMsg(m); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}

	return nil
}

// Consume subscribes to a subject, optionally in a queue group so only one
// member of the group receives each message. It blocks until the context is
// canceled.
func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)

	sema := make(chan struct{}, co.concurrency)
	var wg sync.WaitGroup

	cb := func(m *nats.Msg) {
		sema <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sema
				wg.Done()
			}()

			headers := make(map[string]string, len(m.Header))
			for key := range m.Header {
				headers[key] = m.Header.Get(key)
			}

			//nolint:errcheck // core NATS has no redelivery, the handler owns its failures
			handler(ctx, Message{Body: m.Data, Headers: headers})
		}()
	}

	var sub *nats.Subscription
	var err error
	if co.queueGroup != "" {
		sub, err = n.conn.QueueSubscribe(source, co.queueGroup, cb)
	} else {
		sub, err = n.conn.Subscribe(source, cb)
	}
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	<-ctx.Done()

	unsubErr := sub.Unsubscribe()
	wg.Wait()
	if unsubErr != nil {
		return errors.Join(ctx.Err(), unsubErr)
	}

	return ctx.Err()
}

// Close drains and closes the NATS connection.
func (n *NATS) Close() error {
	if n.conn == nil || n.conn.IsClosed() {
		return nil
	}

	return n.conn.Drain()
}
