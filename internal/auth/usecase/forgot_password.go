package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
	"github.com/eklabs/authgate/internal/pkg/ratelimit"
)

type ForgotPasswordInput struct {
	Email string `validate:"required,email"`
	IP    string
}

// ForgotPassword issues a password reset code when the account exists. The
// response is identical either way so the endpoint cannot be used to probe
// for registered addresses.
func (s *Usecase) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ForgotPassword")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.allowOTPRequest(ctx, "forgot_password", in.Email); err != nil {
		return err
	}

	user, err := s.idp.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil
		}
		slog.ErrorContext(ctx, "failed to look up user by email", "error", err)
		return goerror.NewServer(err)
	}

	code, err := s.codes.Issue(ctx, user.Email, otp.PurposePasswordReset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue reset code", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.publishOTPIssued(ctx, OTPIssuedEvent{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Purpose: otp.PurposePasswordReset.String(),
		Code:    code,
	})

	s.audit(ctx, entity.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: entity.AuditPasswordResetStart,
		IP:     in.IP,
	})

	return nil
}

// allowOTPRequest applies the fixed-window limit on code-producing endpoints,
// keyed by operation and address.
func (s *Usecase) allowOTPRequest(ctx context.Context, op, email string) error {
	limit := int(s.cfg.GetInt("modules.auth.otp_request_limit"))
	if limit <= 0 {
		limit = 5
	}
	window := s.cfg.GetMinute("modules.auth.otp_request_window_minutes")
	if window <= 0 {
		window = 15 * time.Minute
	}

	err := s.limiter.Allow(ctx, op+":"+email, limit, window)
	if err == nil {
		return nil
	}
	if errors.Is(err, ratelimit.ErrLimitExceeded) {
		return goerror.NewBusiness("Too many requests, try again later", goerror.CodeTooManyRequest)
	}

	slog.ErrorContext(ctx, "failed to check rate limit", "op", op, "error", err)
	return goerror.NewServer(err)
}
