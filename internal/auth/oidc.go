package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrOIDCDisabled is returned when the OIDC backend is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc session checking is disabled")

// OIDCConfig holds OpenID Connect settings for the OIDC session backend.
type OIDCConfig struct {
	// Enabled indicates if the OIDC backend is enabled.
	Enabled bool
	// ProviderURL is the OIDC provider's discovery URL (e.g., "https://accounts.google.com").
	ProviderURL string
	// ClientID is the OAuth2 client identifier the ID tokens must be issued for.
	ClientID string
	// GroupsClaim is the ID token claim name containing user groups (default "groups").
	GroupsClaim string
}

// OIDCChecker validates SSO tokens locally as OIDC ID tokens instead of
// asking a remote session API. It serves deployments where the identity
// service issues ID tokens into the SSO cookie: CheckAuthenticated makes it a
// gate checker, AutoLogin/Logout make it the matching remember-me
// collaborator deriving the principal from token claims.
type OIDCChecker struct {
	cfg         *OIDCConfig
	verifier    *oidc.IDTokenVerifier
	tokenCookie string
}

// NewOIDCChecker creates the OIDC session backend, running provider discovery
// against cfg.ProviderURL.
func NewOIDCChecker(ctx context.Context, cfg *OIDCConfig, tokenCookie string) (*OIDCChecker, error) {
	if !cfg.Enabled {
		return nil, ErrOIDCDisabled
	}

	if cfg.GroupsClaim == "" {
		cfg.GroupsClaim = "groups"
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &OIDCChecker{
		cfg:         cfg,
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		tokenCookie: tokenCookie,
	}, nil
}

// CheckAuthenticated reports whether the request's SSO cookie holds a
// verifiable, unexpired ID token.
func (o *OIDCChecker) CheckAuthenticated(c *fiber.Ctx) (bool, error) {
	token := c.Cookies(o.tokenCookie)
	if token == "" {
		return false, nil
	}

	if _, err := o.verifier.Verify(c.UserContext(), token); err != nil {
		// An expired or malformed token is an invalid session, not a failure
		// of the check itself.
		log.Debug().Err(err).Msg("ID token rejected")

		return false, nil
	}

	return true, nil
}

// AutoLogin derives a principal from the ID token's claims. Authorities come
// from the configured groups claim.
func (o *OIDCChecker) AutoLogin(c *fiber.Ctx) (*Principal, error) {
	token := c.Cookies(o.tokenCookie)
	if token == "" {
		return nil, nil
	}

	idToken, err := o.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return nil, nil //nolint:nilerr // unverifiable token means no principal, not a failure
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	subject, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	var groups []string

	if raw, ok := claims[o.cfg.GroupsClaim].([]any); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
	}

	return NewSSOPrincipal(subject, name, email, groups), nil
}

// Logout is a no-op: ID tokens carry no server-side session to close.
func (o *OIDCChecker) Logout(_ *fiber.Ctx) error {
	return nil
}
