package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
)

// Me returns the current account from the identity provider, so the response
// reflects changes made after the session was minted.
func (s *Usecase) Me(ctx context.Context) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.idp.GetUserByID(ctx, clm.UserID)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Account no longer exists", goerror.CodeUnauthorized)
		}
		slog.ErrorContext(ctx, "failed to look up user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
