package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
)

// HostedConfig configures the hosted identity provider client.
type HostedConfig struct {
	// BaseURL is the provider's admin API root, e.g. https://idp.internal/admin.
	BaseURL string
	// APIKey authenticates this gateway against the admin API.
	APIKey string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
}

// Hosted is the identity provider client backed by the upstream admin REST
// API. Transient failures are retried with capped fibonacci backoff.
type Hosted struct {
	baseURL string
	apiKey  string
	client  *http.Client
	ins     instrument.Instrumentation
}

// NewHosted constructs the hosted driver.
func NewHosted(cfg HostedConfig, ins instrument.Instrumentation) (*Hosted, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("idp: base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Hosted{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		ins:     ins,
	}, nil
}

// GetUserByEmail looks up an account by address.
func (h *Hosted) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	var payload userPayload
	err := h.do(ctx, http.MethodGet, "/users?email="+url.QueryEscape(email), nil, &payload)
	if err != nil {
		return nil, err
	}

	return toEntity(payload), nil
}

// GetUserByID looks up an account by its provider ID.
func (h *Hosted) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	var payload userPayload
	err := h.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &payload)
	if err != nil {
		return nil, err
	}

	return toEntity(payload), nil
}

// CreateUser provisions an unverified account.
func (h *Hosted) CreateUser(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	body := map[string]string{
		"email":      in.Email,
		"password":   in.Password,
		"name":       in.Name,
		"role":       in.Role.String(),
		"department": in.Department,
	}

	var payload userPayload
	if err := h.do(ctx, http.MethodPost, "/users", body, &payload); err != nil {
		return nil, err
	}

	return toEntity(payload), nil
}

// VerifyPassword checks the credentials and returns the account on success.
func (h *Hosted) VerifyPassword(ctx context.Context, email, password string) (*entity.User, error) {
	body := map[string]string{"email": email, "password": password}

	var payload userPayload
	if err := h.do(ctx, http.MethodPost, "/verify-password", body, &payload); err != nil {
		return nil, err
	}

	return toEntity(payload), nil
}

// MarkEmailVerified flips the account's verified flag.
func (h *Hosted) MarkEmailVerified(ctx context.Context, id string) error {
	return h.do(ctx, http.MethodPost, "/users/"+url.PathEscape(id)+"/verify-email", nil, nil)
}

// UpdatePassword replaces the account password.
func (h *Hosted) UpdatePassword(ctx context.Context, id, newPassword string) error {
	body := map[string]string{"password": newPassword}
	return h.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/password", body, nil)
}

// SetDataSource stores the dashboard data source choice on the account.
func (h *Hosted) SetDataSource(ctx context.Context, id, source string) error {
	body := map[string]string{"data_source": source}
	return h.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/data-source", body, nil)
}

func toEntity(p userPayload) *entity.User {
	return &entity.User{
		ID:            p.ID,
		Email:         p.Email,
		Name:          p.Name,
		Role:          entity.RoleFromString(p.Role),
		Department:    p.Department,
		EmailVerified: p.EmailVerified,
		DataSource:    p.DataSource,
		CreatedAt:     p.CreatedAt,
	}
}

// do performs one admin API call, retrying transient failures.
func (h *Hosted) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, span := h.ins.Tracer("auth.outbound.idp").Start(ctx, method+" "+path)
	defer span.End()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	backoff := retry.NewFibonacci(200 * time.Millisecond)
	backoff = retry.WithCappedDuration(2*time.Second, backoff)
	backoff = retry.WithMaxRetries(3, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil {
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)
		case resp.StatusCode == http.StatusNotFound:
			return goerror.ErrNotFound
		case resp.StatusCode == http.StatusConflict:
			return goerror.ErrConflict
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			// Rejected credentials read the same as an unknown account.
			return goerror.ErrNotFound
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("idp: provider returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("idp: provider returned %d", resp.StatusCode)
		}
	})
}
