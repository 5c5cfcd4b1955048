package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/eklabs/authgate/internal/auth/outbound/idp"
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
	"github.com/rs/cors"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          true,
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initSession() {
	ttl := a.config.GetMinute("session.ttl_minutes")

	sess, err := session.NewHS512(session.Config{
		Secret:    []byte(a.config.GetString("session.secret")),
		Issuer:    a.config.GetString("session.issuer"),
		Audiences: a.config.GetArray("session.audiences"),
		TTL:       ttl,
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init session token", "error", err)
		os.Exit(1)
	}
	a.session = sess

	a.cookieCfg = session.CookieConfig{
		Secure: a.config.GetBool("session.cookie.secure"),
		Domain: a.config.GetString("session.cookie.domain"),
		TTL:    ttl,
	}
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initMail() {
	if a.config.GetString("mail.driver") == "log" {
		a.mail = mail.NewLog()

		return
	}

	mailer, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mailer
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("messaging.nats.name"),
		},
		NSQ: messaging.NSQConfig{
			NSQDAddress:      a.config.GetString("messaging.nsq.nsqd_addr"),
			LookupdAddresses: a.config.GetArray("messaging.nsq.lookupd_addrs"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initCasbin() {
	const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		slog.Error("failed to create model casbin", "error", err)
		os.Exit(1)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	// policies are "sub, obj, act" triples from config
	for _, raw := range a.config.GetArray("authz.policies") {
		parts := strings.Split(raw, ",")
		if len(parts) != 3 {
			slog.Error("failed to parse casbin policy", "policy", raw)
			os.Exit(1)
		}
		rule := make([]string, 0, len(parts))
		for _, p := range parts {
			rule = append(rule, strings.TrimSpace(p))
		}
		if _, err := e.AddPolicy(rule); err != nil {
			slog.Error("failed to add casbin policy", "policy", raw, "error", err)
			os.Exit(1)
		}
	}

	// groupings are "sub, role" pairs from config
	for _, raw := range a.config.GetArray("authz.groupings") {
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			slog.Error("failed to parse casbin grouping", "grouping", raw)
			os.Exit(1)
		}
		if _, err := e.AddGroupingPolicy(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])); err != nil {
			slog.Error("failed to add casbin grouping", "grouping", raw, "error", err)
			os.Exit(1)
		}
	}

	a.casbin = e
}

func (a *App) initOTP() {
	var store otp.Store = otp.NewMemoryStore()
	if a.config.GetString("otp.store") == "redis" {
		store = otp.NewRedisStore(a.cacheConn)
	}

	a.codes = otp.NewManager(otp.Config{
		Store:       store,
		Clock:       a.clock,
		Hasher:      a.hmac,
		TTL:         a.config.GetMinute("modules.auth.otp_ttl_minutes"),
		MaxAttempts: a.config.GetInt("modules.auth.otp_max_attempts"),
	})

	interval := a.config.GetSecond("otp.sweep_interval_seconds")
	if interval <= 0 {
		interval = time.Minute
	}

	a.goroutine.Go(a.ctx, func(pCtx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pCtx.Done():
				return nil
			case <-ticker.C:
				if _, err := a.codes.Sweep(pCtx); err != nil {
					slog.ErrorContext(pCtx, "failed to sweep expired codes", "error", err)
				}
			}
		}
	})
}

func (a *App) initRatelimit() {
	if a.config.GetString("ratelimit.store") == "redis" {
		a.limiter = ratelimit.NewRedisLimiter(a.cacheConn)

		return
	}

	a.limiter = ratelimit.NewMemoryLimiter()
}

func (a *App) initIdentityProvider() {
	if a.config.GetString("idp.driver") == idp.DriverLocal {
		a.idp = idp.NewLocal(a.bcrypt, a.uuid, a.clock)

		return
	}

	provider, err := idp.NewHosted(idp.HostedConfig{
		BaseURL: a.config.GetString("idp.base_url"),
		APIKey:  a.config.GetString("idp.api_key"),
		Timeout: a.config.GetSecond("idp.timeout_seconds"),
	}, a.ins)
	if err != nil {
		slog.Error("failed to init identity provider", "error", err)
		os.Exit(1)
	}

	a.idp = provider
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Session:    a.session,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
