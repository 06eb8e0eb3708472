package auth

import "sort"

// Principal is an authenticated identity attached to a request. The cached
// copy is shared across requests, so a Principal must be treated as immutable
// once constructed.
type Principal struct {
	// Subject is the username the identity service knows the user by.
	Subject string
	// DisplayName is the human-readable name, when the directory provides one.
	DisplayName string
	// Email is the user's email address, when the directory provides one.
	Email string
	// Authorities is the deduplicated, lexicographically ordered collection
	// of authority names derived from group membership.
	Authorities []string
	// SSO marks principals established by the SSO gate. The gate only skips
	// re-resolution for its own principal kind; identities installed by other
	// mechanisms are replaced.
	SSO bool
}

// NewSSOPrincipal builds a gate-established principal. The authority list is
// deduplicated and sorted so downstream consumers see a deterministic order.
func NewSSOPrincipal(subject, displayName, email string, authorities []string) *Principal {
	return &Principal{
		Subject:     subject,
		DisplayName: displayName,
		Email:       email,
		Authorities: sortedUnique(authorities),
		SSO:         true,
	}
}

func sortedUnique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}
