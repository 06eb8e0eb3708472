// Package auth implements the resolution engine behind the SSO gate: given a
// username it materializes the user's directory record, the set of active
// groups the user belongs to, and the authority collection derived from it.
//
// # Components
//
// GroupResolver pages through the remote directory's direct (and, when
// enabled, nested) membership listings and caches the merged group-name set
// per user. Remote failures never escape the resolver: the caller always
// receives a set, possibly partial or empty.
//
// UserDirectory caches directory user records per username and translates
// remote failures into two caller-visible signals, ErrUserNotFound and
// ErrDataRetrieval, so login flows can distinguish "unknown user" from
// "directory unreachable".
//
// AuthorityMapper turns a resolved group set into a deterministic,
// lexicographically ordered authority list and answers the "is this user in
// any allowed group" question with a short-circuit scan over the configured
// allowed-group list.
//
// DirectoryAutoLogin is the remember-me collaborator: it derives a Principal
// from a live SSO session token, optionally mirroring the user into the local
// database.
//
// # Caching
//
// All caches are process-local, bounded to 2500 entries with LRU eviction and
// a 15-minute sliding expiry. Empty group sets are never cached so a
// transient directory failure cannot pin "no groups" for a window.
package auth
