// Package identity provides the clients used to talk to the remote
// identity/directory service.
//
// Two concerns are covered:
//
//   - Directory: user lookups and paged (direct and nested) group membership
//     queries. Backed either by the identity service's REST API (RESTClient)
//     or by an LDAP/Active Directory server (LDAPDirectory).
//   - SessionService: server-side SSO session validation and invalidation.
//     Only the REST backend implements this; LDAP deployments pair the LDAP
//     directory with the REST session API for token validation.
//
// # Error Taxonomy
//
// All backends translate transport- and protocol-level failures into the four
// sentinel errors declared in errors.go:
//
//   - ErrNotFound: the requested user or group does not exist
//   - ErrPermissionDenied: the application account lacks the permission
//   - ErrInvalidAuthentication: the application credentials were rejected
//   - ErrOperationFailed: any other transport or server-side failure
//
// Callers branch on error kind with errors.Is; the wrapping error carries the
// backend-specific detail.
package identity
