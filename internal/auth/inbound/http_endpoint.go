package inbound

import (
	"github.com/eklabs/authgate/internal/auth/usecase"
	"github.com/eklabs/authgate/internal/pkg/router"
	"github.com/eklabs/authgate/internal/pkg/session"
)

// HTTPEndpoint exposes the authentication and account endpoints.
type HTTPEndpoint struct {
	uc        uc
	cookieCfg session.CookieConfig
}

// Signup creates an account and triggers email verification.
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signup(r.Context(), usecase.SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
		IP:         r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return SignupResponse{UserID: resp.UserID, Email: resp.Email, RequiresVerification: true}, nil
}

// VerifyOTP confirms the signup code and starts a session.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email: req.Email,
		Code:  req.Code,
		IP:    r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return sessionResponse(resp.User, resp.Token, "email verified", h.cookieCfg), nil
}

// Signin authenticates with email and password and starts a session.
func (h *HTTPEndpoint) Signin(r *router.Request) (any, error) {
	var req SigninRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signin(r.Context(), usecase.SigninInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return sessionResponse(resp.User, resp.Token, "signed in", h.cookieCfg), nil
}

// Signout ends the session by clearing the cookie.
func (h *HTTPEndpoint) Signout(r *router.Request) (any, error) {
	if err := h.uc.Signout(r.Context(), usecase.SignoutInput{IP: r.RemoteAddr}); err != nil {
		return nil, err
	}

	return SignoutResponse{cookie: session.ClearCookie(h.cookieCfg)}, nil
}

// ForgotPassword requests a password reset code.
func (h *HTTPEndpoint) ForgotPassword(r *router.Request) (any, error) {
	var req ForgotPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.ForgotPassword(r.Context(), usecase.ForgotPasswordInput{
		Email: req.Email,
		IP:    r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return ForgotPasswordResponse{}, nil
}

// ResendOTP replaces the pending code with a fresh one.
func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.ResendOTP(r.Context(), usecase.ResendOTPInput{
		Email: req.Email,
		IP:    r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return ResendOTPResponse{}, nil
}

// VerifyResetOTP checks a reset code without consuming it.
func (h *HTTPEndpoint) VerifyResetOTP(r *router.Request) (any, error) {
	var req VerifyResetOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.VerifyResetOTP(r.Context(), usecase.VerifyResetOTPInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResetOTPResponse{}, nil
}

// ResetPassword consumes a reset code and sets a new password.
func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
		IP:          r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}

// Me returns the authenticated account.
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	user, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return newUserResponse(user), nil
}

// SelectDataSource stores the dashboard data source choice and refreshes the
// session cookie.
func (h *HTTPEndpoint) SelectDataSource(r *router.Request) (any, error) {
	var req SelectDataSourceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SelectDataSource(r.Context(), usecase.SelectDataSourceInput{
		DataSource: req.DataSource,
		IP:         r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return sessionResponse(resp.User, resp.Token, "data source selected", h.cookieCfg), nil
}
