package usecase

import (
	"context"

	"github.com/eklabs/authgate/internal/auth/entity"
)

type SignoutInput struct {
	IP string
}

// Signout records the event. The session itself ends client-side when the
// inbound layer clears the cookie.
func (s *Usecase) Signout(ctx context.Context, in SignoutInput) error {
	ctx, span := s.startSpan(ctx, "Signout")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	s.audit(ctx, entity.AuditEvent{
		UserID: clm.UserID,
		Email:  clm.Email,
		Action: entity.AuditSignout,
		IP:     in.IP,
	})

	return nil
}
