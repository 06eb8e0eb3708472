// Package web implements the HTTP service fronted by the SSO gate.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoSSOGate/GoSSOGate/internal/auth"
	"github.com/GoSSOGate/GoSSOGate/internal/config"
	accesslog "github.com/GoSSOGate/GoSSOGate/internal/logger/adapter/fiber"
	"github.com/GoSSOGate/GoSSOGate/internal/web/handler/user"
	"github.com/GoSSOGate/GoSSOGate/internal/web/handler/whoami"
	"github.com/GoSSOGate/GoSSOGate/internal/web/middleware/sso"
)

// CheckAlivePath is the liveness probe path, excluded from access logging.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration. The gate is
// mounted in front of every route except the liveness probe, so each request
// reaching a handler has been through session validation.
func New(cfg *config.Config, db *gorm.DB, gate *sso.Gate, users *auth.UserDirectory) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if gate == nil {
		panic("gate cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	// access logging via zerolog
	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// init web service
	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}

	service.alive.Store(true)

	// liveness probe for load balancers, stays outside the gate
	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	// prometheus metrics, also outside the gate
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// every route below passes the SSO gate
	app.Use(gate.Handler())

	whoami.Handler.Init(app, cfg, db)

	// the OIDC backend has no directory, so user lookups stay unregistered
	if users != nil {
		user.Handler.Init(app, cfg, users)
	}

	// redirect root to whoami
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(whoami.Path)
	})

	return service
}
