package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	authuc "github.com/eklabs/authgate/internal/auth/usecase"
	"github.com/eklabs/authgate/internal/pkg/clock"
	"github.com/eklabs/authgate/internal/pkg/config"
	"github.com/eklabs/authgate/internal/pkg/goroutine"
	"github.com/eklabs/authgate/internal/pkg/hash"
	"github.com/eklabs/authgate/internal/pkg/instrument"
	"github.com/eklabs/authgate/internal/pkg/mail"
	"github.com/eklabs/authgate/internal/pkg/messaging"
	"github.com/eklabs/authgate/internal/pkg/otp"
	"github.com/eklabs/authgate/internal/pkg/ratelimit"
	"github.com/eklabs/authgate/internal/pkg/router"
	"github.com/eklabs/authgate/internal/pkg/session"
	"github.com/eklabs/authgate/internal/pkg/uid"
	"github.com/eklabs/authgate/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	session   session.Session
	cookieCfg session.CookieConfig

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	mail      mail.Mail
	messaging messaging.Messaging
	casbin    *casbin.Enforcer
	codes     *otp.Manager
	limiter   ratelimit.Limiter
	idp       authuc.IdentityProvider

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initSession()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initCasbin()
	app.initOTP()
	app.initRatelimit()
	app.initIdentityProvider()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
