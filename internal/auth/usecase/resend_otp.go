package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

type ResendOTPInput struct {
	Email string `validate:"required,email"`
	IP    string
}

// ResendOTP replaces the caller's pending code with a fresh one. The purpose
// is inferred from what is pending: a live signup code wins over a live reset
// code, and an unverified account with no live code gets a signup code.
func (s *Usecase) ResendOTP(ctx context.Context, in ResendOTPInput) error {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.allowOTPRequest(ctx, "resend_otp", in.Email); err != nil {
		return err
	}

	user, err := s.idp.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("No pending verification for this email", goerror.CodeBadRequest)
		}
		slog.ErrorContext(ctx, "failed to look up user by email", "error", err)
		return goerror.NewServer(err)
	}

	purpose, err := s.inferResendPurpose(ctx, user)
	if err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, user.Email, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reissue code", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.publishOTPIssued(ctx, OTPIssuedEvent{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Purpose: purpose.String(),
		Code:    code,
	})

	s.audit(ctx, entity.AuditEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Action:   entity.AuditOTPResend,
		IP:       in.IP,
		Metadata: map[string]string{"purpose": purpose.String()},
	})

	return nil
}

func (s *Usecase) inferResendPurpose(ctx context.Context, user *entity.User) (otp.Purpose, error) {
	live, err := s.codes.Live(ctx, user.Email, otp.PurposeSignupVerification)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check live code", "user_id", user.ID, "error", err)
		return "", goerror.NewServer(err)
	}
	if live {
		return otp.PurposeSignupVerification, nil
	}

	live, err = s.codes.Live(ctx, user.Email, otp.PurposePasswordReset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check live code", "user_id", user.ID, "error", err)
		return "", goerror.NewServer(err)
	}
	if live {
		return otp.PurposePasswordReset, nil
	}

	// An unverified account always has a verification to finish, even after
	// its last code expired.
	if !user.EmailVerified {
		return otp.PurposeSignupVerification, nil
	}

	return "", goerror.NewBusiness("No pending verification for this email", goerror.CodeBadRequest)
}
