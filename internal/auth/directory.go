package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GoSSOGate/GoSSOGate/internal/cache"
	"github.com/GoSSOGate/GoSSOGate/internal/identity"
)

// UserDirectory looks up directory user records with a per-username cache.
//
// Unlike group resolution, failures are propagated: a login flow needs to
// distinguish an unknown user (ErrUserNotFound) from an unreachable or
// unwilling directory (ErrDataRetrieval).
type UserDirectory struct {
	dir   identity.Directory
	users *cache.Cache[*identity.User]
}

// NewUserDirectory creates a cached user lookup over the given directory.
func NewUserDirectory(dir identity.Directory) *UserDirectory {
	return &UserDirectory{
		dir:   dir,
		users: cache.New[*identity.User](cacheCapacity, cacheTTL, cache.ExpireAfterAccess),
	}
}

// GetUser returns the directory record for username. Results are cached only
// on success.
func (d *UserDirectory) GetUser(ctx context.Context, username string) (*identity.User, error) {
	if user, ok := d.users.Get(username); ok {
		return user, nil
	}

	log.Debug().Str("username", username).Msg("loading user record from the directory")

	user, err := d.dir.GetUser(ctx, username)
	if err != nil {
		return nil, translateUserError(username, err)
	}

	if user != nil {
		d.users.Put(username, user)
	}

	return user, nil
}

// translateUserError maps identity errors onto the two caller-visible
// signals, logging each at the severity the kind warrants.
func translateUserError(username string, err error) error {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		log.Info().Str("username", username).Msg("user not found in the directory")

		return fmt.Errorf("%w: %q: %w", ErrUserNotFound, username, err)
	case errors.Is(err, identity.ErrPermissionDenied), errors.Is(err, identity.ErrInvalidAuthentication):
		log.Warn().Err(err).Str("username", username).Msg("directory rejected user lookup")

		return fmt.Errorf("%w: %w", ErrDataRetrieval, err)
	default:
		log.Error().Err(err).Str("username", username).Msg("directory user lookup failed")

		return fmt.Errorf("%w: %w", ErrDataRetrieval, err)
	}
}
