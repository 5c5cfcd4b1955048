package usecase

import (
	"context"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/eklabs/authgate/internal/pkg/config"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/session"
	"github.com/eklabs/authgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type Usecase struct {
	validator validator.Validator
	cfg       config.Config
	ins       instrument.Instrumentation
	enforcer  *casbin.Enforcer
}

type Dependency struct {
	Validator  validator.Validator
	Config     config.Config
	Instrument instrument.Instrumentation
	Enforcer   *casbin.Enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		validator: dep.Validator,
		cfg:       dep.Config,
		ins:       dep.Instrument,
		enforcer:  dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("dashboard.usecase").Start(ctx, name)
}

// authenticatedAndAuthorized checks the session and enforces the role policy
// for the object and action.
func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*session.Claims, error) {
	clm := session.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := s.enforcer.Enforce(clm.Role, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "role", clm.Role, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
