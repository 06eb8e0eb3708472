package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoSSOGate/GoSSOGate/internal/db/models"
	"github.com/GoSSOGate/GoSSOGate/internal/identity"
)

// SessionUserSource resolves the user record behind a live SSO session token.
// Implemented by identity.RESTClient.
type SessionUserSource interface {
	GetSessionUser(ctx context.Context, token string) (*identity.User, error)
}

// DirectoryAutoLogin derives a Principal from the SSO token of a session the
// identity service has already validated. It is the gate's remember-me
// collaborator: invoked when a validated request carries no principal yet.
type DirectoryAutoLogin struct {
	sessions    SessionUserSource
	invalidator identity.SessionService
	mapper      *AuthorityMapper
	tokenCookie string
	db          *gorm.DB
}

// NewDirectoryAutoLogin creates the directory-backed auto-login collaborator.
// db may be nil, in which case no shadow user records are written.
func NewDirectoryAutoLogin(
	sessions SessionUserSource,
	invalidator identity.SessionService,
	mapper *AuthorityMapper,
	tokenCookie string,
	db *gorm.DB,
) *DirectoryAutoLogin {
	return &DirectoryAutoLogin{
		sessions:    sessions,
		invalidator: invalidator,
		mapper:      mapper,
		tokenCookie: tokenCookie,
		db:          db,
	}
}

// AutoLogin resolves the request's SSO token to a principal. A missing or
// unknown token, an inactive user, or a user outside every allowed group all
// yield (nil, nil): "no principal could be established" is not an error.
func (a *DirectoryAutoLogin) AutoLogin(c *fiber.Ctx) (*Principal, error) {
	token := c.Cookies(a.tokenCookie)
	if token == "" {
		return nil, nil
	}

	ctx := c.UserContext()

	user, err := a.sessions.GetSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("resolving session user: %w", err)
	}

	if !user.Active {
		log.Info().Str("username", user.Username).Msg("refusing auto-login for inactive user")

		return nil, nil
	}

	if len(a.mapper.AllowedGroups()) > 0 && !a.mapper.IsAllowed(ctx, user.Username) {
		log.Info().Str("username", user.Username).Msg("user is not a member of any allowed group")

		return nil, nil
	}

	a.shadowUser(user)

	return NewSSOPrincipal(user.Username, user.DisplayName, user.Email, a.mapper.AuthoritiesFor(ctx, user.Username)), nil
}

// Logout closes the server-side SSO session behind the request's token.
func (a *DirectoryAutoLogin) Logout(c *fiber.Ctx) error {
	token := c.Cookies(a.tokenCookie)
	if token == "" {
		return nil
	}

	if err := a.invalidator.InvalidateSession(c.UserContext(), token); err != nil {
		return fmt.Errorf("invalidating SSO session: %w", err)
	}

	return nil
}

// shadowUser mirrors the directory record into the local users table. Shadow
// writes are best effort: a failure is logged and the login proceeds.
func (a *DirectoryAutoLogin) shadowUser(user *identity.User) {
	if a.db == nil {
		return
	}

	now := time.Now()

	var record models.User

	err := a.db.Where("username = ?", user.Username).First(&record).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.User{
			Active:      user.Active,
			Username:    user.Username,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			LastLoginAt: now,
		}
		err = a.db.Create(&record).Error
	case err == nil:
		record.Active = user.Active
		record.Email = user.Email
		record.DisplayName = user.DisplayName
		record.LastLoginAt = now
		err = a.db.Save(&record).Error
	}

	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("failed to upsert shadow user record")
	}
}
