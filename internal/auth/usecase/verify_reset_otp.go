package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

type VerifyResetOTPInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,len=6,numeric"`
}

// VerifyResetOTP checks a password reset code without consuming it, so the
// client can collect the new password and submit the same code to
// ResetPassword.
func (s *Usecase) VerifyResetOTP(ctx context.Context, in VerifyResetOTPInput) error {
	ctx, span := s.startSpan(ctx, "VerifyResetOTP")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.codes.Check(ctx, in.Email, otp.PurposePasswordReset, in.Code); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeExpired):
			return goerror.NewBusiness("Reset code has expired, request a new one", goerror.CodeBadRequest)
		case errors.Is(err, otp.ErrCodeMismatch):
			return goerror.NewBusiness("Invalid or expired reset code", goerror.CodeBadRequest)
		default:
			slog.ErrorContext(ctx, "failed to check reset code", "error", err)
			return goerror.NewServer(err)
		}
	}

	return nil
}
