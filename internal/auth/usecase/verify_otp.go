package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

type VerifyOTPInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,len=6,numeric"`
	IP    string
}

type VerifyOTPOutput struct {
	User  *entity.User
	Token string
}

// VerifyOTP consumes a signup verification code, marks the email verified,
// and starts a session for the user.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.idp.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			// Same response as a wrong code, to avoid confirming addresses.
			return nil, goerror.NewBusiness("Invalid or expired verification code", goerror.CodeBadRequest)
		}
		slog.ErrorContext(ctx, "failed to look up user by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.codes.Verify(ctx, in.Email, otp.PurposeSignupVerification, in.Code); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeExpired):
			return nil, goerror.NewBusiness("Verification code has expired, request a new one", goerror.CodeBadRequest)
		case errors.Is(err, otp.ErrCodeMismatch):
			return nil, goerror.NewBusiness("Invalid or expired verification code", goerror.CodeBadRequest)
		default:
			slog.ErrorContext(ctx, "failed to verify code", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	if !user.EmailVerified {
		if err := s.idp.MarkEmailVerified(ctx, user.ID); err != nil {
			slog.ErrorContext(ctx, "failed to mark email verified", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		user.EmailVerified = true
	}

	token, err := s.mintSession(user)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, entity.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: entity.AuditEmailVerified,
		IP:     in.IP,
	})

	return &VerifyOTPOutput{User: user, Token: token}, nil
}
