package identity

import "errors"

var (
	// ErrNotFound is returned when the requested user or group does not exist
	// on the remote identity service.
	ErrNotFound = errors.New("not found on identity service")

	// ErrPermissionDenied is returned when the application account is not
	// permitted to perform the requested operation.
	ErrPermissionDenied = errors.New("application is not permitted to perform the requested operation")

	// ErrInvalidAuthentication is returned when the application name and
	// password are rejected by the identity service.
	ErrInvalidAuthentication = errors.New("application name and password are not valid")

	// ErrOperationFailed is returned for any other transport or server-side
	// failure, including unsupported operations and malformed responses.
	ErrOperationFailed = errors.New("operation on identity service failed")
)
