package sso

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"

	"github.com/GoSSOGate/GoSSOGate/internal/auth"
	"github.com/GoSSOGate/GoSSOGate/internal/cache"
)

// Checker decides whether the request belongs to a live SSO session,
// typically by asking the identity service. Returning an error means the
// check could not be performed; the gate treats that as "not validated" for
// this request only.
type Checker interface {
	CheckAuthenticated(c *fiber.Ctx) (bool, error)
}

// AutoLogin is the remember-me collaborator: it derives a principal from
// request state on a validated request that carries none, and closes the
// SSO session on teardown.
type AutoLogin interface {
	AutoLogin(c *fiber.Ctx) (*auth.Principal, error)
	Logout(c *fiber.Ctx) error
}

// principalKey is the fiber.Locals slot holding the request's principal.
const principalKey = "ssoPrincipal"

const (
	maxCacheSize = 2500

	// principalTTL is the sliding idle window for cached principals.
	principalTTL = 15 * time.Minute

	defaultValidationInterval = 2 * time.Minute
	defaultTokenCookie        = "sso.token"
	defaultRememberMeCookie   = "remember-me"
)

// Config configures the gate.
type Config struct {
	// TokenCookie is the name of the cookie carrying the SSO token.
	// Default "sso.token".
	TokenCookie string

	// RememberMeCookie is the cookie reset on teardown. Default "remember-me".
	RememberMeCookie string

	// CookieDomain is set on the reset remember-me cookie when non-empty, for
	// deployments where the cookie is scoped to a parent domain.
	CookieDomain string

	// ValidationInterval bounds how long a positive validation is trusted
	// without re-checking. It should mirror the identity service's own
	// session validation interval. Default 2 minutes.
	ValidationInterval time.Duration

	// Checker validates SSO sessions. Required.
	Checker Checker

	// AutoLogin materializes principals and closes sessions. Optional; with
	// no collaborator the gate only validates and tears down.
	AutoLogin AutoLogin

	// SessionStore is the host application's session store, destroyed on
	// teardown. Optional.
	SessionStore *session.Store

	// RetryFailedAutoLogin disables caching of nil auto-login outcomes, so
	// every validated request without a principal retries. The default
	// (false) caches the nil for the principal-cache idle window, which
	// rate-limits auto-login attempts per token.
	RetryFailedAutoLogin bool

	// Now overrides the cache clock. Intended for tests.
	Now func() time.Time
}

// Gate is the request gate middleware. Create one per application with New
// and mount Handler before the protected routes.
type Gate struct {
	cfg        Config
	validation *cache.Cache[bool]
	principals *cache.Cache[*auth.Principal]
}

// New creates a gate. Panics if no Checker is configured, mirroring fiber's
// convention for unusable middleware configuration.
func New(cfg Config) *Gate {
	if cfg.Checker == nil {
		panic("sso: Config.Checker is required")
	}

	if cfg.TokenCookie == "" {
		cfg.TokenCookie = defaultTokenCookie
	}

	if cfg.RememberMeCookie == "" {
		cfg.RememberMeCookie = defaultRememberMeCookie
	}

	if cfg.ValidationInterval <= 0 {
		cfg.ValidationInterval = defaultValidationInterval
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Gate{
		cfg: cfg,
		validation: cache.New(maxCacheSize, cfg.ValidationInterval,
			cache.ExpireAfterWrite, cache.WithNow[bool](cfg.Now)),
		principals: cache.New(maxCacheSize, principalTTL,
			cache.ExpireAfterAccess, cache.WithNow[*auth.Principal](cfg.Now)),
	}
}

// Principal returns the principal installed for this request, or nil.
func Principal(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(principalKey).(*auth.Principal)

	return p
}

// Handler returns the middleware. On every request it decides validated vs.
// not validated exactly once, then either installs a principal or runs the
// teardown; the chain continues regardless of the outcome.
func (g *Gate) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(g.cfg.TokenCookie)

		if g.isValidated(c, token) {
			g.installPrincipal(c, token)
		} else {
			g.teardown(c, token)
		}

		return c.Next()
	}
}

// isValidated decides token validity, consulting the validation cache before
// calling the checker. Only positive results are cached: an invalid session
// may become valid at any time and a cached negative would also suppress
// auto-login retries.
func (g *Gate) isValidated(c *fiber.Ctx, token string) bool {
	if token == "" {
		return false
	}

	if _, ok := g.validation.Get(token); ok {
		log.Debug().Msg("session validation found in cache")

		return true
	}

	valid, err := g.cfg.Checker.CheckAuthenticated(c)
	if err != nil {
		// Non-fatal: the request proceeds as unauthenticated and the next
		// request retries naturally.
		log.Error().Err(err).Msg("SSO session check failed")

		return false
	}

	if valid {
		g.validation.Put(token, true)
	}

	return valid
}

// installPrincipal ensures a validated request carries a principal, using the
// principal cache and falling back to auto-login. A cached nil counts as a
// hit and suppresses further auto-login attempts for the idle window.
func (g *Gate) installPrincipal(c *fiber.Ctx, token string) {
	if p := Principal(c); p != nil && p.SSO {
		return
	}

	principal, hit := g.principals.Get(token)

	if !hit {
		if g.cfg.AutoLogin == nil {
			return
		}

		log.Debug().Msg("principal not found in cache, trying auto-login")

		var err error

		principal, err = g.cfg.AutoLogin.AutoLogin(c)
		if err != nil {
			log.Warn().Err(err).Msg("auto-login failed")

			principal = nil
		}

		if principal != nil || !g.cfg.RetryFailedAutoLogin {
			g.principals.Put(token, principal)
		}
	} else {
		log.Debug().Msg("principal found in cache, skipping auto-login")
	}

	if principal != nil {
		c.Locals(principalKey, principal)
	}
}

// teardown logs the user out locally: clears the principal, invokes the
// logout hook, destroys the host session, resets the remember-me cookie and
// purges both cache entries for the token. Safe to run when nothing is
// logged in.
func (g *Gate) teardown(c *fiber.Ctx, token string) {
	c.Locals(principalKey, nil)

	if g.cfg.AutoLogin != nil {
		if err := g.cfg.AutoLogin.Logout(c); err != nil {
			log.Error().Err(err).Msg("logout hook failed")
		}
	}

	if g.cfg.SessionStore != nil {
		if sess, err := g.cfg.SessionStore.Get(c); err == nil {
			if err := sess.Destroy(); err != nil {
				log.Error().Err(err).Msg("failed to destroy host session")
			}
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:   g.cfg.RememberMeCookie,
		Value:  "",
		Path:   "/",
		Domain: g.cfg.CookieDomain,
	})

	if token != "" {
		log.Debug().Msg("purging cached validation and principal for token")
		g.validation.Invalidate(token)
		g.principals.Invalidate(token)
	}
}
