package sso

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/GoSSOGate/GoSSOGate/internal/identity"
)

// RemoteChecker validates the request's token against the identity service's
// session resource.
type RemoteChecker struct {
	sessions    identity.SessionService
	tokenCookie string
}

// NewRemoteChecker wraps a session service. tokenCookie may be empty, in
// which case the gate default is used.
func NewRemoteChecker(sessions identity.SessionService, tokenCookie string) (*RemoteChecker, error) {
	if sessions == nil {
		return nil, errors.New("session service is required")
	}

	if tokenCookie == "" {
		tokenCookie = defaultTokenCookie
	}

	return &RemoteChecker{
		sessions:    sessions,
		tokenCookie: tokenCookie,
	}, nil
}

// CheckAuthenticated implements Checker. A request without a token is not
// authenticated; a token the service rejects yields (false, nil).
func (r *RemoteChecker) CheckAuthenticated(c *fiber.Ctx) (bool, error) {
	token := c.Cookies(r.tokenCookie)
	if token == "" {
		return false, nil
	}

	valid, err := r.sessions.ValidateSession(c.UserContext(), token)
	if err != nil {
		return false, errors.Wrap(err, "validating SSO session")
	}

	return valid, nil
}
