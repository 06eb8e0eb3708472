package identity

import "context"

// User is a directory user record.
type User struct {
	Username    string `json:"name"`
	DisplayName string `json:"display-name"`
	Email       string `json:"email"`
	Active      bool   `json:"active"`
}

// Group is a directory group. Only active groups count towards membership.
type Group struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Directory performs user and group lookups against the remote identity
// service. Implementations must be safe for concurrent use.
//
// The group queries are paged: start is a zero-based offset and limit the
// maximum number of groups to return. An empty (or nil) result signals the
// end of the listing.
type Directory interface {
	GetUser(ctx context.Context, username string) (*User, error)
	GetGroup(ctx context.Context, groupName string) (*Group, error)
	GetGroupsForUser(ctx context.Context, username string, start, limit int) ([]Group, error)
	GetGroupsForNestedUser(ctx context.Context, username string, start, limit int) ([]Group, error)
}

// SessionService validates and invalidates server-side SSO sessions.
type SessionService interface {
	// ValidateSession reports whether the SSO token identifies a session the
	// identity service still honors. A rejected token is (false, nil); an
	// error is returned only when the check itself could not be performed.
	ValidateSession(ctx context.Context, token string) (bool, error)

	// InvalidateSession closes the SSO session behind the token. Unknown
	// tokens are not an error.
	InvalidateSession(ctx context.Context, token string) error
}
