package auth

import "errors"

var (
	// ErrUserNotFound is returned when the directory reports no user under
	// the requested username.
	ErrUserNotFound = errors.New("user not found")

	// ErrDataRetrieval is returned when the directory could not be queried
	// for reasons other than the user being absent (permission, credentials,
	// transport). Callers that need to react differently to "unknown user"
	// and "directory unreachable" branch on these two sentinels.
	ErrDataRetrieval = errors.New("failed to retrieve data from the directory")
)
