package inbound

import (
	"context"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/auth/usecase"
	"github.com/eklabs/authgate/internal/pkg/router"
	"github.com/eklabs/authgate/internal/pkg/session"
)

type uc interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	Signin(ctx context.Context, in usecase.SigninInput) (*usecase.SigninOutput, error)
	Signout(ctx context.Context, in usecase.SignoutInput) error

	ForgotPassword(ctx context.Context, in usecase.ForgotPasswordInput) error
	ResendOTP(ctx context.Context, in usecase.ResendOTPInput) error
	VerifyResetOTP(ctx context.Context, in usecase.VerifyResetOTPInput) error
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) error

	Me(ctx context.Context) (*entity.User, error)
	SelectDataSource(ctx context.Context, in usecase.SelectDataSourceInput) (*usecase.SelectDataSourceOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cookieCfg session.CookieConfig) {
	end := &HTTPEndpoint{uc: uc, cookieCfg: cookieCfg}

	// Signup & verification
	r.POST("/api/auth/signup", end.Signup)
	r.POST("/api/auth/verify-otp", end.VerifyOTP)
	r.POST("/api/auth/resend-otp", end.ResendOTP)

	// Sessions
	r.POST("/api/auth/signin", end.Signin)
	r.POST("/api/auth/signout", end.Signout) // need authenticated
	r.GET("/api/auth/me", end.Me)            // need authenticated

	// Password reset
	r.POST("/api/auth/forgot-password", end.ForgotPassword)
	r.POST("/api/auth/verify-reset-otp", end.VerifyResetOTP)
	r.POST("/api/auth/reset-password", end.ResetPassword)

	// Onboarding (need authenticated)
	r.PUT("/api/users/data-source", end.SelectDataSource)
}
