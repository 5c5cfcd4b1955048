package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/clock"
	"github.com/eklabs/authgate/internal/pkg/config"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/goroutine"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/otp"
	"github.com/eklabs/authgate/internal/pkg/ratelimit"
	"github.com/eklabs/authgate/internal/pkg/session"
	"github.com/eklabs/authgate/internal/pkg/uid"
	"github.com/eklabs/authgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// OTPIssuedEvent carries a freshly issued code to the notification consumer.
type OTPIssuedEvent struct {
	UserID  string
	Email   string
	Name    string
	Purpose string
	Code    string
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

type repoDB interface {
	RecordAuditEvent(ctx context.Context, ev entity.AuditEvent) error
}

// IdentityProvider is the hosted identity service fronted by this gateway.
// Implementations return goerror.ErrNotFound for unknown users.
type IdentityProvider interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	CreateUser(ctx context.Context, in entity.NewUser) (*entity.User, error)
	VerifyPassword(ctx context.Context, email, password string) (*entity.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, newPassword string) error
	SetDataSource(ctx context.Context, id, source string) error
}

type codeManager interface {
	Issue(ctx context.Context, subject string, purpose otp.Purpose) (string, error)
	Verify(ctx context.Context, subject string, purpose otp.Purpose, code string) error
	Check(ctx context.Context, subject string, purpose otp.Purpose, code string) error
	Invalidate(ctx context.Context, subject string, purpose otp.Purpose) error
	Live(ctx context.Context, subject string, purpose otp.Purpose) (bool, error)
}

type Usecase struct {
	idp           IdentityProvider
	repoDB        repoDB
	repoMessaging repoMessaging
	codes         codeManager
	limiter       ratelimit.Limiter
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	clock         clock.Clocker
	session       session.Session
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	IdentityProvider IdentityProvider
	RepoDB           repoDB
	RepoMessaging    repoMessaging
	Codes            codeManager
	Limiter          ratelimit.Limiter
	Validator        validator.Validator
	Config           config.Config
	UID              uid.NumberID
	Clock            clock.Clocker
	Session          session.Session
	Instrument       instrument.Instrumentation
	Goroutine        *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		idp:           dep.IdentityProvider,
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		codes:         dep.Codes,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uid:           dep.UID,
		clock:         dep.Clock,
		session:       dep.Session,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// audit records the event without failing the caller's flow.
func (s *Usecase) audit(ctx context.Context, ev entity.AuditEvent) {
	ev.ID = s.uid.Generate()
	ev.CreatedAt = s.clock.Now()

	if err := s.repoDB.RecordAuditEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to record audit event", "action", ev.Action, "error", err)
	}
}

// publishOTPIssued hands the code to the delivery channel in the background.
func (s *Usecase) publishOTPIssued(ctx context.Context, ev OTPIssuedEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := s.repoMessaging.PublishOTPIssued(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp issued event", "user_id", ev.UserID, "purpose", ev.Purpose, "error", err)
		}
		return nil
	})
}

// mintSession builds the session token and cookie payload for the user.
func (s *Usecase) mintSession(user *entity.User) (string, error) {
	token, err := s.session.Generate(session.Identity{
		UserID:                user.ID,
		Email:                 user.Email,
		Name:                  user.Name,
		Role:                  user.Role.String(),
		Department:            user.Department,
		HasSelectedDataSource: user.HasSelectedDataSource(),
	})
	if err != nil {
		return "", goerror.NewServer(err)
	}

	return token, nil
}

func (s *Usecase) authenticated(ctx context.Context) (*session.Claims, error) {
	clm := session.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}
