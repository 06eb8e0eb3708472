// Package daemon assembles the configured identity backend, the local shadow
// database and the web service into a runnable process.
package daemon

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory"
	sessionmysql "github.com/gofiber/storage/mysql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"

	"github.com/GoSSOGate/GoSSOGate/internal/auth"
	"github.com/GoSSOGate/GoSSOGate/internal/config"
	"github.com/GoSSOGate/GoSSOGate/internal/db/dsn"
	"github.com/GoSSOGate/GoSSOGate/internal/db/models"
	"github.com/GoSSOGate/GoSSOGate/internal/identity"
	"github.com/GoSSOGate/GoSSOGate/internal/logger/adapter/stdlogger"
	"github.com/GoSSOGate/GoSSOGate/internal/web"
	"github.com/GoSSOGate/GoSSOGate/internal/web/middleware/sso"
	"github.com/GoSSOGate/GoSSOGate/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start(addr string) error {
	return d.webService.Start(addr) //nolint:wrapcheck
}

// WaitShutdown blocks until the web service has shut down gracefully.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(&models.User{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	// Initialize fiber session store for the host application sessions the
	// gate destroys on teardown.
	session.Init(newSessionStorage(cfg))

	gate, users, err := newGate(cfg, db)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		webService: web.New(cfg, db, gate, users),
	}, nil
}

// openDatabase opens the shadow database with the configured gorm engine.
// Query logging goes through the zerolog printf adapter.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.New(stdlogger.New(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond, //nolint:mnd
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		name := cfg.DB.Name
		if name == "" {
			name = "go-sso-gate.db"
		}

		dialector = sqlite.Open(name)
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return db, nil
}

// newSessionStorage picks the fiber session storage backend. MySQL keeps
// host sessions across restarts; everything else falls back to in-process
// memory, which suits single-instance and dev deployments.
func newSessionStorage(cfg *config.Config) fiber.Storage {
	if cfg.DB.GormEngine == "mysql" {
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}

	log.Info().Msg("using in-memory session storage")

	return memory.New()
}

// newGate wires the configured identity backend into an SSO gate. It also
// returns the cached user directory serving the user lookup endpoint; the
// OIDC backend has no directory and returns nil.
func newGate(cfg *config.Config, db *gorm.DB) (*sso.Gate, *auth.UserDirectory, error) {
	gateCfg := sso.Config{
		TokenCookie:          cfg.SSO.TokenCookie,
		RememberMeCookie:     cfg.SSO.RememberMeCookie,
		CookieDomain:         cfg.SSO.CookieDomain,
		ValidationInterval:   time.Duration(cfg.SSO.ValidationIntervalMinutes) * time.Minute,
		SessionStore:         session.Store,
		RetryFailedAutoLogin: cfg.SSO.RetryFailedAutoLogin,
	}

	var (
		dir   identity.Directory
		users *auth.UserDirectory
	)

	switch cfg.Identity.Backend {
	case "oidc":
		checker, err := auth.NewOIDCChecker(context.Background(), &cfg.Identity.OIDC, cfg.SSO.TokenCookie)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create OIDC backend")
		}

		gateCfg.Checker = checker
		gateCfg.AutoLogin = checker

		return sso.New(gateCfg), nil, nil

	case "ldap":
		// LDAP answers user and group questions; session validation still
		// goes to the identity service's REST API.
		ldapDir, err := identity.NewLDAPDirectory(&cfg.Identity.LDAP)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create LDAP directory")
		}

		dir = ldapDir

	default: // rest
	}

	rc, err := identity.NewRESTClient(cfg.Identity.REST)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create identity REST client")
	}

	if dir == nil {
		dir = rc
	}

	checker, err := sso.NewRemoteChecker(rc, cfg.SSO.TokenCookie)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create session checker")
	}

	resolver := auth.NewGroupResolver(dir, cfg.SSO.NestedGroups)
	mapper := auth.NewAuthorityMapper(resolver, cfg.SSO.AllowedGroups)
	users = auth.NewUserDirectory(dir)

	gateCfg.Checker = checker
	gateCfg.AutoLogin = auth.NewDirectoryAutoLogin(rc, rc, mapper, cfg.SSO.TokenCookie, db)

	return sso.New(gateCfg), users, nil
}
