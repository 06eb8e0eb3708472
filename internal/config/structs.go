package config

import (
	"github.com/GoSSOGate/GoSSOGate/internal/auth"
	"github.com/GoSSOGate/GoSSOGate/internal/identity"
	"github.com/GoSSOGate/GoSSOGate/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Identity  Identity
	SSO       SSO
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

// Identity selects and configures the identity service backend.
type Identity struct {
	// Backend selects how users, groups and sessions are resolved:
	// "rest" talks to the identity service's user-management API,
	// "ldap" queries a directory server, "oidc" verifies ID tokens locally.
	Backend string `validate:"oneof=rest ldap oidc"`

	REST identity.RESTConfig
	LDAP identity.LDAPConfig
	OIDC auth.OIDCConfig
}

// SSO configures the request gate.
type SSO struct {
	// TokenCookie is the cookie carrying the SSO token.
	TokenCookie string

	// RememberMeCookie is the cookie reset when the gate logs a request out.
	RememberMeCookie string

	// CookieDomain scopes the reset remember-me cookie to a parent domain.
	// Empty leaves the domain attribute unset.
	CookieDomain string

	// ValidationIntervalMinutes is how long a positive session validation is
	// trusted without asking the identity service again. Keep it aligned
	// with the service's own session validation interval.
	ValidationIntervalMinutes int `validate:"gte=0"`

	// AllowedGroups is a comma separated list of group names whose members
	// may log in. Empty admits every authenticated user.
	AllowedGroups string

	// NestedGroups includes membership inherited through group-of-groups
	// relationships when resolving authorities.
	NestedGroups bool

	// RetryFailedAutoLogin retries principal materialization on every
	// request instead of caching a failed outcome for the idle window.
	RetryFailedAutoLogin bool
}
