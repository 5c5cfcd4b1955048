package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail implementation for local development. It writes the message
// to the application log instead of delivering it, so flows that depend on
// emailed codes can be exercised without an SMTP server.
//
// Never enable this sender outside development: it logs the full body,
// including one-time codes.
type Log struct{}

// NewLog constructs the development log sender.
func NewLog() *Log {
	return &Log{}
}

// Send logs the message instead of delivering it.
func (l *Log) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "development mail delivery",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)

	return nil
}

// Close implements io.Closer for interface compatibility.
func (l *Log) Close() error {
	return nil
}
