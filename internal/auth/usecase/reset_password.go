package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

type ResetPasswordInput struct {
	Email       string `validate:"required,email"`
	Code        string `validate:"required,len=6,numeric"`
	NewPassword string `validate:"required,password"`
	IP          string
}

// ResetPassword consumes a valid reset code and replaces the password at the
// identity provider.
func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.idp.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Invalid or expired reset code", goerror.CodeBadRequest)
		}
		slog.ErrorContext(ctx, "failed to look up user by email", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.codes.Verify(ctx, in.Email, otp.PurposePasswordReset, in.Code); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeExpired):
			return goerror.NewBusiness("Reset code has expired, request a new one", goerror.CodeBadRequest)
		case errors.Is(err, otp.ErrCodeMismatch):
			return goerror.NewBusiness("Invalid or expired reset code", goerror.CodeBadRequest)
		default:
			slog.ErrorContext(ctx, "failed to verify reset code", "user_id", user.ID, "error", err)
			return goerror.NewServer(err)
		}
	}

	if err := s.idp.UpdatePassword(ctx, user.ID, in.NewPassword); err != nil {
		slog.ErrorContext(ctx, "failed to update password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.audit(ctx, entity.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: entity.AuditPasswordResetDone,
		IP:     in.IP,
	})

	return nil
}
