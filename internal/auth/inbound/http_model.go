package inbound

import (
	"net/http"
	"time"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/session"
)

type SignupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type SignupResponse struct {
	UserID               string `json:"user_id"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requires_verification"`
}

func (SignupResponse) StatusCode() int { return http.StatusCreated }

func (SignupResponse) Message() string {
	return "account created, a verification code has been sent to your email"
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Role                  string    `json:"role"`
	Department            string    `json:"department"`
	EmailVerified         bool      `json:"email_verified"`
	DataSource            string    `json:"data_source,omitempty"`
	HasSelectedDataSource bool      `json:"has_selected_data_source"`
	CreatedAt             time.Time `json:"created_at"`
}

func newUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		Role:                  u.Role.String(),
		Department:            u.Department,
		EmailVerified:         u.EmailVerified,
		DataSource:            u.DataSource,
		HasSelectedDataSource: u.HasSelectedDataSource(),
		CreatedAt:             u.CreatedAt,
	}
}

// SessionResponse is a user payload that also sets the session cookie.
type SessionResponse struct {
	UserResponse

	msg    string
	cookie *http.Cookie
}

func (r SessionResponse) Message() string { return r.msg }

func (r SessionResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

// SignoutResponse clears the session cookie.
type SignoutResponse struct {
	cookie *http.Cookie
}

func (SignoutResponse) Message() string { return "signed out" }

func (r SignoutResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResponse struct{}

func (ForgotPasswordResponse) Message() string {
	return "if the email is registered, a reset code has been sent"
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type ResendOTPResponse struct{}

func (ResendOTPResponse) Message() string {
	return "a new verification code has been sent to your email"
}

type VerifyResetOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type VerifyResetOTPResponse struct{}

func (VerifyResetOTPResponse) Message() string { return "reset code is valid" }

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"otp"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string { return "password has been reset" }

type SelectDataSourceRequest struct {
	DataSource string `json:"data_source"`
}

func sessionResponse(u *entity.User, token, msg string, cfg session.CookieConfig) SessionResponse {
	return SessionResponse{
		UserResponse: newUserResponse(u),
		msg:          msg,
		cookie:       session.NewCookie(token, cfg),
	}
}
