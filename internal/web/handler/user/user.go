// Package user exposes directory user lookups to the host application.
package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoSSOGate/GoSSOGate/internal/auth"
	"github.com/GoSSOGate/GoSSOGate/internal/config"
	"github.com/GoSSOGate/GoSSOGate/internal/web/handler"
	"github.com/GoSSOGate/GoSSOGate/internal/web/middleware/sso"
)

// Path is the path to the user lookup endpoint.
const Path = handler.RootPath + "users/:username"

// Service is the user lookup handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	users *auth.UserDirectory
}

// Handler is the user lookup handler.
var Handler = Service{}

// Init initializes the user lookup handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, users *auth.UserDirectory) {
	if app == nil || cfg == nil || users == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.users = users

	app.Get(Path, s.Get)
}

// Get looks the user up in the directory, going through the user-record
// cache. Lookups are only served to authenticated requests.
func (s *Service) Get(c *fiber.Ctx) error {
	if sso.Principal(c) == nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	username := c.Params("username")

	record, err := s.users.GetUser(c.UserContext(), username)

	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	case err != nil:
		log.Error().Err(err).Str("username", username).Msg("directory user lookup failed")

		return c.SendStatus(fiber.StatusBadGateway)
	}

	return c.JSON(record)
}
