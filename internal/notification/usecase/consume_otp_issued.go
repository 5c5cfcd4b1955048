package usecase

import (
	"context"
	"log/slog"

	"github.com/eklabs/authgate/internal/notification/entity"
	"github.com/eklabs/authgate/internal/pkg/mail"
	"github.com/eklabs/authgate/internal/pkg/otp"
)

const signupVerificationSubject = "Verify your email address"

const signupVerificationBody = `<p>Hi {{.name}},</p>
<p>Your verification code is <strong>{{.code}}</strong>.</p>
<p>Enter it within {{.ttl_minutes}} minutes to activate your account.</p>
<p>If you did not sign up, you can ignore this email.</p>
<p>{{.company_name}} &middot; {{.support_email}} &middot; {{.year}}</p>`

const passwordResetSubject = "Your password reset code"

const passwordResetBody = `<p>Hi {{.name}},</p>
<p>Your password reset code is <strong>{{.code}}</strong>.</p>
<p>Enter it within {{.ttl_minutes}} minutes to choose a new password.</p>
<p>If you did not request a reset, your password is still safe.</p>
<p>{{.company_name}} &middot; {{.support_email}} &middot; {{.year}}</p>`

type ConsumeOTPIssuedInput struct {
	UserID  string `validate:"required"`
	Email   string `validate:"required,email"`
	Name    string `validate:"required"`
	Purpose string `validate:"required"`
	Code    string `validate:"required,len=6,numeric"`
}

// ConsumeOTPIssued emails a freshly issued code to its owner and records the
// delivery outcome. The code only ever appears inside the email body.
func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "dropping malformed otp issued message", "email", in.Email, "purpose", in.Purpose, "error", err)
		return nil
	}

	var subject, bodyTpl string
	switch otp.Purpose(in.Purpose) {
	case otp.PurposeSignupVerification:
		subject, bodyTpl = signupVerificationSubject, signupVerificationBody
	case otp.PurposePasswordReset:
		subject, bodyTpl = passwordResetSubject, passwordResetBody
	default:
		slog.WarnContext(ctx, "dropping otp issued message with unknown purpose", "email", in.Email, "purpose", in.Purpose)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["name"] = in.Name
	data["code"] = in.Code
	data["ttl_minutes"] = s.cfg.GetInt("modules.auth.otp_ttl_minutes")

	body, err := s.renderTemplate(in.Purpose, bodyTpl, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email template", "purpose", in.Purpose, "error", err)
		return nil
	}

	sendErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		HTMLBody: body,
	})

	s.recordDelivery(ctx, in, subject, sendErr)

	if sendErr != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "purpose", in.Purpose, "error", sendErr)
		return sendErr
	}

	return nil
}

func (s *Usecase) recordDelivery(ctx context.Context, in ConsumeOTPIssuedInput, subject string, sendErr error) {
	dl := entity.DeliveryLog{
		ID:        s.uid.Generate(),
		UserID:    in.UserID,
		Email:     in.Email,
		Purpose:   in.Purpose,
		Subject:   subject,
		Status:    entity.DeliveryStatusSent,
		CreatedAt: s.clock.Now(),
	}
	if sendErr != nil {
		dl.Status = entity.DeliveryStatusFailed
		dl.Reason = sendErr.Error()
	}

	if err := s.repoDB.CreateDeliveryLog(ctx, dl); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "email", in.Email, "purpose", in.Purpose, "error", err)
	}
}
