package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

type SigninInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	IP       string
}

type SigninOutput struct {
	User  *entity.User
	Token string
}

// Signin checks credentials against the identity provider and starts a
// session. Unverified accounts are refused and get a fresh verification code.
func (s *Usecase) Signin(ctx context.Context, in SigninInput) (*SigninOutput, error) {
	ctx, span := s.startSpan(ctx, "Signin")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.idp.VerifyPassword(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			// Unknown address and wrong password read the same.
			return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
		}
		slog.ErrorContext(ctx, "failed to verify password", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !user.EmailVerified {
		s.reissueSignupCode(ctx, user)
		s.audit(ctx, entity.AuditEvent{
			UserID:   user.ID,
			Email:    user.Email,
			Action:   entity.AuditSigninDenied,
			IP:       in.IP,
			Metadata: map[string]string{"reason": "email_not_verified"},
		})
		return nil, goerror.NewBusiness("Email not verified, a new verification code has been sent", goerror.CodeForbidden)
	}

	token, err := s.mintSession(user)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, entity.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: entity.AuditSignin,
		IP:     in.IP,
	})

	return &SigninOutput{User: user, Token: token}, nil
}

func (s *Usecase) reissueSignupCode(ctx context.Context, user *entity.User) {
	code, err := s.codes.Issue(ctx, user.Email, otp.PurposeSignupVerification)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reissue verification code", "user_id", user.ID, "error", err)
		return
	}

	s.publishOTPIssued(ctx, OTPIssuedEvent{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Purpose: otp.PurposeSignupVerification.String(),
		Code:    code,
	})
}
