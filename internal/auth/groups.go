package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoSSOGate/GoSSOGate/internal/cache"
	"github.com/GoSSOGate/GoSSOGate/internal/identity"
)

const (
	// groupPageSize is the maximum number of groups fetched from the
	// directory in one request.
	groupPageSize = 500

	// cacheCapacity bounds each per-user cache.
	cacheCapacity = 2500

	// cacheTTL is the sliding idle window for the per-user caches.
	cacheTTL = 15 * time.Minute
)

// GroupResolver resolves the set of active group names a user belongs to,
// direct and (when enabled) nested, with a per-user cache.
type GroupResolver struct {
	dir    identity.Directory
	nested bool
	groups *cache.Cache[map[string]struct{}]
}

// NewGroupResolver creates a resolver against the given directory. When
// nested is true, membership derived through group-of-groups relationships is
// included alongside direct membership.
func NewGroupResolver(dir identity.Directory, nested bool) *GroupResolver {
	return &GroupResolver{
		dir:    dir,
		nested: nested,
		groups: cache.New[map[string]struct{}](cacheCapacity, cacheTTL, cache.ExpireAfterAccess),
	}
}

// GroupsFor returns the names of all active groups the user is a member of.
// The result is always non-nil; remote failures abort the scan in progress
// and are logged, leaving whatever was collected so far. Callers must not
// mutate the returned set: it may be shared with other requests.
//
// Only non-empty sets are cached. An empty result forces re-resolution on the
// next lookup so a transient failure is never remembered as "no groups".
func (r *GroupResolver) GroupsFor(ctx context.Context, username string) map[string]struct{} {
	if cached, ok := r.groups.Get(username); ok {
		return cached
	}

	names := make(map[string]struct{})

	log.Debug().Str("username", username).Msg("retrieving groups with direct membership")
	r.scan(ctx, username, r.dir.GetGroupsForUser, names)

	if r.nested {
		log.Debug().Str("username", username).Msg("retrieving groups with nested membership")
		r.scan(ctx, username, r.dir.GetGroupsForNestedUser, names)
	}

	if len(names) > 0 {
		r.groups.Put(username, names)
	}

	return names
}

// Invalidate drops the cached group set for the user, if any.
func (r *GroupResolver) Invalidate(username string) {
	r.groups.Invalidate(username)
}

// IsGroupActive reports whether the named group exists in the directory and is
// active. Lookup failures count as "not active" and are logged, so a flaky
// directory can only deny access, never widen it.
func (r *GroupResolver) IsGroupActive(ctx context.Context, name string) bool {
	group, err := r.dir.GetGroup(ctx, name)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			log.Info().Str("group", name).Msg("group not found in directory")
		} else {
			log.Error().Err(err).Str("group", name).Msg("group lookup failed")
		}

		return false
	}

	return group.Active
}

type groupPageFunc func(ctx context.Context, username string, start, limit int) ([]identity.Group, error)

// scan walks one paged membership listing, merging active group names into
// the result set. The listing ends at the first empty page. A remote error
// aborts the scan, keeping the pages collected so far.
func (r *GroupResolver) scan(ctx context.Context, username string, fetch groupPageFunc, into map[string]struct{}) {
	for start := 0; ; start += groupPageSize {
		page, err := fetch(ctx, username, start, groupPageSize)
		if err != nil {
			logScanError(username, err)

			return
		}

		if len(page) == 0 {
			return
		}

		for _, group := range page {
			if group.Active {
				into[group.Name] = struct{}{}
			}
		}
	}
}

// logScanError logs a failed membership scan at a severity matching the error
// kind. The error is swallowed: group resolution degrades to a partial or
// empty set rather than failing the request.
func logScanError(username string, err error) {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		log.Info().Str("username", username).Msg("user not found while resolving group membership")
	case errors.Is(err, identity.ErrInvalidAuthentication), errors.Is(err, identity.ErrPermissionDenied):
		log.Warn().Err(err).Str("username", username).Msg("group membership scan rejected")
	default:
		log.Error().Err(err).Str("username", username).Msg("group membership scan failed")
	}
}
