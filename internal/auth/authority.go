package auth

import (
	"context"
	"strings"
)

// GroupSource resolves the active group-name set for a user and answers
// whether a single group is active. Implemented by GroupResolver; abstracted
// so the mapper can be exercised with fakes.
type GroupSource interface {
	GroupsFor(ctx context.Context, username string) map[string]struct{}
	IsGroupActive(ctx context.Context, name string) bool
}

// AuthorityMapper converts resolved group sets into authority collections and
// answers allowed-group membership checks.
type AuthorityMapper struct {
	groups  GroupSource
	allowed []string
}

// NewAuthorityMapper creates a mapper. allowedGroups is the comma-separated
// list of group names whose members are permitted; blank entries are skipped
// and the configured order is preserved for the short-circuit check.
func NewAuthorityMapper(groups GroupSource, allowedGroups string) *AuthorityMapper {
	var allowed []string

	for _, name := range strings.Split(allowedGroups, ",") {
		if name = strings.TrimSpace(name); name != "" {
			allowed = append(allowed, name)
		}
	}

	return &AuthorityMapper{groups: groups, allowed: allowed}
}

// AllowedGroups returns the configured allowed-group names in order.
func (m *AuthorityMapper) AllowedGroups() []string {
	return m.allowed
}

// AuthoritiesFor returns the user's authorities: one per resolved group name,
// deduplicated and ordered lexicographically so downstream authorization
// decisions are reproducible.
func (m *AuthorityMapper) AuthoritiesFor(ctx context.Context, username string) []string {
	names := m.groups.GroupsFor(ctx, username)

	authorities := make([]string, 0, len(names))
	for name := range names {
		authorities = append(authorities, name)
	}

	return sortedUnique(authorities)
}

// IsAllowed reports whether the user belongs to at least one of the allowed
// groups, checking them in configured order and stopping at the first match.
// Groups missing from the directory or marked inactive are skipped before the
// membership lookup runs.
func (m *AuthorityMapper) IsAllowed(ctx context.Context, username string) bool {
	for _, group := range m.allowed {
		if !m.groups.IsGroupActive(ctx, group) {
			continue
		}

		if m.isMember(ctx, username, group) {
			return true
		}
	}

	return false
}

func (m *AuthorityMapper) isMember(ctx context.Context, username, group string) bool {
	_, ok := m.groups.GroupsFor(ctx, username)[group]

	return ok
}
