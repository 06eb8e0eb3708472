package identity

import (
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
)

func TestNewLDAPDirectoryDefaults(t *testing.T) {
	cfg := &LDAPConfig{Host: "ldap.example.com", Port: 389}

	if _, err := NewLDAPDirectory(cfg); err != nil {
		t.Fatalf("NewLDAPDirectory() error = %v", err)
	}

	if cfg.UserFilter != "(uid={username})" {
		t.Errorf("UserFilter default = %q", cfg.UserFilter)
	}

	if cfg.UsernameAttr != "uid" || cfg.GroupNameAttr != "cn" || cfg.GroupMemberAttr != "member" {
		t.Errorf("attribute defaults not applied: %+v", cfg)
	}

	if cfg.Timeout != 10 {
		t.Errorf("Timeout default = %d, want 10", cfg.Timeout)
	}
}

func TestNewLDAPDirectoryRequiresHost(t *testing.T) {
	if _, err := NewLDAPDirectory(&LDAPConfig{}); !errors.Is(err, ErrOperationFailed) {
		t.Errorf("NewLDAPDirectory() error = %v, want %v", err, ErrOperationFailed)
	}
}

func TestTranslateLDAPError(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		want error
	}{
		{"no such object", ldap.LDAPResultNoSuchObject, ErrNotFound},
		{"insufficient access", ldap.LDAPResultInsufficientAccessRights, ErrPermissionDenied},
		{"invalid credentials", ldap.LDAPResultInvalidCredentials, ErrInvalidAuthentication},
		{"busy", ldap.LDAPResultBusy, ErrOperationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateLDAPError(&ldap.Error{ResultCode: tt.code})
			if !errors.Is(err, tt.want) {
				t.Errorf("translateLDAPError(%d) = %v, want %v", tt.code, err, tt.want)
			}
		})
	}

	if err := translateLDAPError(errors.New("dial tcp: timeout")); !errors.Is(err, ErrOperationFailed) {
		t.Errorf("non-LDAP errors should map to %v", ErrOperationFailed)
	}
}
