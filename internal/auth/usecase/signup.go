package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

type SignupInput struct {
	Email      string `validate:"required,email"`
	Password   string `validate:"required,password"`
	Name       string `validate:"required,min=2,max=100,alphaspace"`
	Role       string `validate:"required"`
	Department string `validate:"required,min=2,max=100"`
	IP         string
}

type SignupOutput struct {
	UserID string
	Email  string
}

// Signup creates an unverified account at the identity provider and issues a
// verification code for the new address.
func (s *Usecase) Signup(ctx context.Context, in SignupInput) (*SignupOutput, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	role := entity.RoleFromString(in.Role)
	if role == entity.RoleUnknown {
		return nil, goerror.NewInvalidFormat("Unrecognized role")
	}

	_, err := s.idp.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to look up user by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.idp.CreateUser(ctx, entity.NewUser{
		Email:      in.Email,
		Password:   in.Password,
		Name:       in.Name,
		Role:       role,
		Department: in.Department,
	})
	if err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to create user at identity provider", "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.codes.Issue(ctx, user.Email, otp.PurposeSignupVerification)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue verification code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishOTPIssued(ctx, OTPIssuedEvent{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Purpose: otp.PurposeSignupVerification.String(),
		Code:    code,
	})

	s.audit(ctx, entity.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: entity.AuditSignup,
		IP:     in.IP,
		Metadata: map[string]string{
			"role":       role.String(),
			"department": in.Department,
		},
	})

	return &SignupOutput{UserID: user.ID, Email: user.Email}, nil
}
