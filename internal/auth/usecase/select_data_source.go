package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/goerror"
)

type SelectDataSourceInput struct {
	DataSource string `validate:"required,min=1,max=100"`
	IP         string
}

type SelectDataSourceOutput struct {
	User  *entity.User
	Token string
}

// SelectDataSource stores the user's dashboard data source choice and remints
// the session so the has_selected_data_source claim is current.
func (s *Usecase) SelectDataSource(ctx context.Context, in SelectDataSourceInput) (*SelectDataSourceOutput, error) {
	ctx, span := s.startSpan(ctx, "SelectDataSource")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.DataSource = strings.TrimSpace(in.DataSource)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.idp.SetDataSource(ctx, clm.UserID, in.DataSource); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Account no longer exists", goerror.CodeUnauthorized)
		}
		slog.ErrorContext(ctx, "failed to set data source", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.idp.GetUserByID(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to look up user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.mintSession(user)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, entity.AuditEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Action:   entity.AuditDataSourceSelected,
		IP:       in.IP,
		Metadata: map[string]string{"data_source": in.DataSource},
	})

	return &SelectDataSourceOutput{User: user, Token: token}, nil
}
