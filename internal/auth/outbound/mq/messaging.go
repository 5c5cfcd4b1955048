package mq

import (
	"context"
	"encoding/json"

	"github.com/eklabs/authgate/internal/auth/usecase"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/messaging"
	"github.com/eklabs/authgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Messaging publishes auth module events to the broker.
type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishOTPIssued hands a freshly issued code to the notification consumer.
// The code exists only in flight here, never in a log or response.
func (m *Messaging) PublishOTPIssued(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishOTPIssued")
	defer span.End()

	body, err := json.Marshal(event.OTPIssuedMessage{
		UserID:  msg.UserID,
		Email:   msg.Email,
		Name:    msg.Name,
		Purpose: msg.Purpose,
		Code:    msg.Code,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.OTPIssuedDestination, messaging.Message{
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: cID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
