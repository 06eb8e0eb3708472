package identity

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// LDAPConfig holds LDAP/Active Directory settings for the directory backend.
type LDAPConfig struct {
	// Host is the LDAP server hostname or IP address.
	Host string
	// Port is the LDAP server port (typically 389 for LDAP, 636 for LDAPS).
	Port int
	// UseSSL enables LDAPS (LDAP over SSL/TLS).
	UseSSL bool
	// UseTLS enables StartTLS to upgrade a plain connection.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool
	// BindDN is the distinguished name to bind with for performing searches.
	BindDN string
	// BindPassword is the password for the bind DN.
	BindPassword string
	// BaseDN is the base distinguished name for user searches.
	BaseDN string
	// UserFilter is the LDAP filter for finding users (e.g., "(uid={username})").
	// The {username} placeholder is replaced with the actual username.
	UserFilter string
	// GroupBaseDN is the base distinguished name for group searches.
	GroupBaseDN string
	// GroupMemberAttr is the LDAP attribute for group membership (e.g., "member").
	GroupMemberAttr string
	// GroupNameAttr is the LDAP attribute containing the group name (e.g., "cn").
	GroupNameAttr string
	// UsernameAttr is the LDAP attribute containing the username (e.g., "uid").
	UsernameAttr string
	// EmailAttr is the LDAP attribute containing the email address (e.g., "mail").
	EmailAttr string
	// DisplayNameAttr is the LDAP attribute containing the display name (e.g., "cn").
	DisplayNameAttr string
	// Timeout is the connection and search timeout in seconds.
	Timeout int
}

// matchingRuleInChain is the Active Directory extensible-match OID that makes
// a membership filter transitive, covering group-of-groups relationships.
const matchingRuleInChain = "1.2.840.113556.1.4.1941"

// LDAPDirectory resolves users and group membership from an LDAP server.
// It implements Directory; session validation is not an LDAP concern.
//
// LDAP has no offset-based paging, so group queries fetch the full member
// listing and slice out the requested page. Page requests past the end
// return an empty slice, which terminates the caller's scan.
type LDAPDirectory struct {
	cfg *LDAPConfig
}

// NewLDAPDirectory creates an LDAP directory backend.
func NewLDAPDirectory(cfg *LDAPConfig) (*LDAPDirectory, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: LDAP host is empty", ErrOperationFailed)
	}

	// Set defaults
	if cfg.UserFilter == "" {
		cfg.UserFilter = "(uid={username})"
	}

	if cfg.UsernameAttr == "" {
		cfg.UsernameAttr = "uid"
	}

	if cfg.EmailAttr == "" {
		cfg.EmailAttr = "mail"
	}

	if cfg.DisplayNameAttr == "" {
		cfg.DisplayNameAttr = "cn"
	}

	if cfg.GroupNameAttr == "" {
		cfg.GroupNameAttr = "cn"
	}

	if cfg.GroupMemberAttr == "" {
		cfg.GroupMemberAttr = "member"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10
	}

	return &LDAPDirectory{cfg: cfg}, nil
}

// connect establishes a connection to the LDAP server and binds the service
// account when one is configured.
func (d *LDAPDirectory) connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))

	var ldapURL string
	if d.cfg.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if d.cfg.UseSSL || d.cfg.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: d.cfg.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         d.cfg.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, translateLDAPError(err)
	}

	if !d.cfg.UseSSL && d.cfg.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)

			return nil, translateLDAPError(errStartTLS)
		}
	}

	if d.cfg.Timeout > 0 {
		conn.SetTimeout(time.Duration(d.cfg.Timeout) * time.Second)
	}

	if d.cfg.BindDN != "" {
		if errBind := conn.Bind(d.cfg.BindDN, d.cfg.BindPassword); errBind != nil {
			closeConn(conn)

			return nil, translateLDAPError(errBind)
		}
	}

	return conn, nil
}

// GetUser looks up a single user record by username.
func (d *LDAPDirectory) GetUser(_ context.Context, username string) (*User, error) {
	conn, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer closeConn(conn)

	entry, err := d.searchUserEntry(conn, username)
	if err != nil {
		return nil, err
	}

	return &User{
		Username:    entry.GetAttributeValue(d.cfg.UsernameAttr),
		DisplayName: entry.GetAttributeValue(d.cfg.DisplayNameAttr),
		Email:       entry.GetAttributeValue(d.cfg.EmailAttr),
		Active:      true,
	}, nil
}

// GetGroup looks up a single group by name.
func (d *LDAPDirectory) GetGroup(_ context.Context, groupName string) (*Group, error) {
	conn, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer closeConn(conn)

	filter := fmt.Sprintf("(%s=%s)", d.cfg.GroupNameAttr, ldap.EscapeFilter(groupName))

	groups, err := d.searchGroups(conn, filter)
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, groupName)
	}

	return &groups[0], nil
}

// GetGroupsForUser returns one page of the groups the user is a direct member of.
func (d *LDAPDirectory) GetGroupsForUser(ctx context.Context, username string, start, limit int) ([]Group, error) {
	filter := fmt.Sprintf("(%s={userdn})", d.cfg.GroupMemberAttr)

	return d.getGroupPage(ctx, username, filter, start, limit)
}

// GetGroupsForNestedUser returns one page of the groups the user belongs to
// directly or through group nesting, using the in-chain matching rule.
func (d *LDAPDirectory) GetGroupsForNestedUser(ctx context.Context, username string, start, limit int) ([]Group, error) {
	filter := fmt.Sprintf("(%s:%s:={userdn})", d.cfg.GroupMemberAttr, matchingRuleInChain)

	return d.getGroupPage(ctx, username, filter, start, limit)
}

func (d *LDAPDirectory) getGroupPage(_ context.Context, username, filterTemplate string, start, limit int) ([]Group, error) {
	if d.cfg.GroupBaseDN == "" {
		return nil, nil
	}

	conn, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer closeConn(conn)

	entry, err := d.searchUserEntry(conn, username)
	if err != nil {
		return nil, err
	}

	filter := strings.ReplaceAll(filterTemplate, "{userdn}", ldap.EscapeFilter(entry.DN))

	groups, err := d.searchGroups(conn, filter)
	if err != nil {
		return nil, err
	}

	if start >= len(groups) {
		return nil, nil
	}

	end := start + limit
	if limit <= 0 || end > len(groups) {
		end = len(groups)
	}

	return groups[start:end], nil
}

// searchUserEntry searches LDAP for the given username and returns a single entry.
func (d *LDAPDirectory) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	filter := strings.ReplaceAll(d.cfg.UserFilter, "{username}", ldap.EscapeFilter(username))
	searchRequest := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // Size limit
		d.cfg.Timeout,
		false,
		filter,
		[]string{
			d.cfg.UsernameAttr,
			d.cfg.EmailAttr,
			d.cfg.DisplayNameAttr,
			"dn",
		},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, translateLDAPError(err)
	}

	if len(searchResult.Entries) == 0 {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}

	return searchResult.Entries[0], nil
}

// searchGroups runs a group search under GroupBaseDN and maps entries to Groups.
// Entries reachable through LDAP are considered active.
func (d *LDAPDirectory) searchGroups(conn *ldap.Conn, filter string) ([]Group, error) {
	searchRequest := ldap.NewSearchRequest(
		d.cfg.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		d.cfg.Timeout,
		false,
		filter,
		[]string{d.cfg.GroupNameAttr, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, translateLDAPError(err)
	}

	groups := make([]Group, len(searchResult.Entries))
	for i, entry := range searchResult.Entries {
		name := entry.GetAttributeValue(d.cfg.GroupNameAttr)
		if name == "" {
			name = entry.DN
		}

		groups[i] = Group{Name: name, Active: true}
	}

	return groups, nil
}

// translateLDAPError maps go-ldap result codes onto the identity error taxonomy.
func translateLDAPError(err error) error {
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		switch ldapErr.ResultCode {
		case ldap.LDAPResultNoSuchObject:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case ldap.LDAPResultInsufficientAccessRights, ldap.LDAPResultUnwillingToPerform:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case ldap.LDAPResultInvalidCredentials, ldap.LDAPResultInappropriateAuthentication:
			return fmt.Errorf("%w: %v", ErrInvalidAuthentication, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrOperationFailed, err)
}

func closeConn(conn *ldap.Conn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close LDAP connection")
	}
}
