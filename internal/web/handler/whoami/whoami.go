// Package whoami exposes the identity of the current request.
package whoami

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoSSOGate/GoSSOGate/internal/config"
	"github.com/GoSSOGate/GoSSOGate/internal/db/models"
	"github.com/GoSSOGate/GoSSOGate/internal/web/handler"
	"github.com/GoSSOGate/GoSSOGate/internal/web/middleware/sso"
)

// Path is the path to the whoami endpoint.
const Path = handler.RootPath + "whoami"

// Response is the JSON document describing the authenticated caller.
type Response struct {
	Subject     string     `json:"subject"`
	DisplayName string     `json:"display-name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Authorities []string   `json:"authorities"`
	SSO         bool       `json:"sso"`
	LastLoginAt *time.Time `json:"last-login-at,omitempty"`
}

// Service is the whoami handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the whoami handler.
var Handler = Service{}

// Init initializes the whoami handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, s.Get)
}

// Get reports the principal the gate installed for this request. Requests
// without one get 401, which makes the endpoint double as a cheap probe for
// "am I logged in".
func (s *Service) Get(c *fiber.Ctx) error {
	principal := sso.Principal(c)
	if principal == nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	resp := Response{
		Subject:     principal.Subject,
		DisplayName: principal.DisplayName,
		Email:       principal.Email,
		Authorities: principal.Authorities,
		SSO:         principal.SSO,
	}

	// Enrich with the shadow record when one exists.
	if s.db != nil {
		var shadow models.User

		err := s.db.Where("username = ?", principal.Subject).First(&shadow).Error

		switch {
		case err == nil:
			resp.LastLoginAt = &shadow.LastLoginAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			log.Warn().Err(err).Str("username", principal.Subject).Msg("failed to load shadow user record")
		}
	}

	return c.JSON(resp)
}
