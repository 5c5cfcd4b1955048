package app

import (
	"log/slog"
	"os"

	"github.com/eklabs/authgate/internal/auth"
	"github.com/eklabs/authgate/internal/dashboard"
	"github.com/eklabs/authgate/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if err := auth.New(auth.Dependency{
			DBConn:           a.dbConn,
			Goroutine:        a.goroutine,
			Router:           a.router,
			Messaging:        a.messaging,
			Config:           a.config,
			Instrument:       a.ins,
			UID:              a.uid,
			Clock:            a.clock,
			Validator:        a.validator,
			Session:          a.session,
			Codes:            a.codes,
			Limiter:          a.limiter,
			IdentityProvider: a.idp,
			CookieConfig:     a.cookieCfg,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.dashboard.enabled") {
		if err := dashboard.New(dashboard.Dependency{
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			Validator:  a.validator,
			Enforcer:   a.casbin,
		}); err != nil {
			slog.Error("failed to init module dashboard", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
