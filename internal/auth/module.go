package auth

import (
	"github.com/eklabs/authgate/internal/auth/inbound"
	"github.com/eklabs/authgate/internal/auth/outbound/db"
	"github.com/eklabs/authgate/internal/auth/outbound/mq"
	"github.com/eklabs/authgate/internal/auth/usecase"
	"github.com/eklabs/authgate/internal/pkg/clock"
	"github.com/eklabs/authgate/internal/pkg/config"
	"github.com/eklabs/authgate/internal/pkg/goroutine"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/messaging"
	"github.com/eklabs/authgate/internal/pkg/otp"
	"github.com/eklabs/authgate/internal/pkg/ratelimit"
	"github.com/eklabs/authgate/internal/pkg/router"
	"github.com/eklabs/authgate/internal/pkg/session"
	"github.com/eklabs/authgate/internal/pkg/uid"
	"github.com/eklabs/authgate/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	DBConn           *pgxpool.Pool              `validate:"required"`
	Goroutine        *goroutine.Manager         `validate:"required"`
	Router           *router.Router             `validate:"required"`
	Messaging        messaging.Messaging        `validate:"required"`
	Config           config.Config              `validate:"required"`
	Instrument       instrument.Instrumentation `validate:"required"`
	UID              uid.NumberID               `validate:"required"`
	Clock            clock.Clocker              `validate:"required"`
	Validator        validator.Validator        `validate:"required"`
	Session          session.Session            `validate:"required"`
	Codes            *otp.Manager               `validate:"required"`
	Limiter          ratelimit.Limiter          `validate:"required"`
	IdentityProvider usecase.IdentityProvider   `validate:"required"`
	CookieConfig     session.CookieConfig
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		IdentityProvider: dep.IdentityProvider,
		RepoDB:           dbAuth,
		RepoMessaging:    repoMsg,
		Codes:            dep.Codes,
		Limiter:          dep.Limiter,
		Validator:        dep.Validator,
		Config:           dep.Config,
		UID:              dep.UID,
		Clock:            dep.Clock,
		Session:          dep.Session,
		Instrument:       dep.Instrument,
		Goroutine:        dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.CookieConfig)

	return nil
}
