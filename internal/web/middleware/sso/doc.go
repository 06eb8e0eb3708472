// Package sso implements the request gate: a Fiber middleware that decides
// on every request whether the caller holds a valid SSO session with the
// identity service and keeps the request's principal in sync with that
// decision.
//
// The gate consults two process-local caches before going remote. The
// validation cache remembers that a token checked out, for at most the
// configured session-validation interval measured from the write (the same
// window the identity service itself re-validates on). The principal cache
// holds the materialized principal per token with a 15-minute sliding idle
// window; a cached nil is a valid answer meaning "auto-login could not
// establish a principal" and short-circuits repeated attempts.
//
// A request whose token does not validate gets the full teardown: principal
// cleared, logout hook invoked, host session destroyed, remember-me cookie
// reset, and both cache entries for the token purged. The chain always
// continues; the gate never answers a request itself.
package sso
