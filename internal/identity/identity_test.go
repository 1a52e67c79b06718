package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRoleBasedIdentityDeduplicatesPreservingOrder(t *testing.T) {
	ident := NewRoleBasedIdentity("alice", KindIssued, []Role{
		RoleAuthenticatedUser, RoleObserver, RoleAuthenticatedUser, RoleOperator, RoleObserver,
	})

	assert.Equal(t, []Role{RoleAuthenticatedUser, RoleObserver, RoleOperator}, ident.Roles())
}

func TestRolesReturnsCopy(t *testing.T) {
	ident := NewRoleBasedIdentity("alice", KindIssued, []Role{RoleObserver})

	got := ident.Roles()
	got[0] = RoleSecurityAdmin

	assert.Equal(t, []Role{RoleObserver}, ident.Roles())
}

func TestHasRole(t *testing.T) {
	ident := NewRoleBasedIdentity("bob", KindUserName, []Role{RoleAuthenticatedUser, RoleEngineer})

	assert.True(t, ident.HasRole(RoleEngineer))
	assert.False(t, ident.HasRole(RoleSecurityAdmin))
}

func TestIsAnonymous(t *testing.T) {
	assert.True(t, NewRoleBasedIdentity("", KindAnonymous, []Role{RoleAnonymous}).IsAnonymous())
	assert.False(t, NewRoleBasedIdentity("alice", KindIssued, []Role{RoleAuthenticatedUser}).IsAnonymous())
}

func TestKindFromString(t *testing.T) {
	for name, want := range map[string]Kind{
		"anonymous":   KindAnonymous,
		"username":    KindUserName,
		"certificate": KindCertificate,
		"issued":      KindIssued,
	} {
		got, ok := KindFromString(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := KindFromString("kerberos")
	assert.False(t, ok)
}

func TestCredentialKinds(t *testing.T) {
	assert.Equal(t, KindAnonymous, Anonymous{}.CredentialKind())
	assert.Equal(t, KindUserName, UserName{}.CredentialKind())
	assert.Equal(t, KindCertificate, Certificate{}.CredentialKind())
	assert.Equal(t, KindIssued, IssuedToken{}.CredentialKind())
	assert.Equal(t, KindIssued, LegacyTicket{}.CredentialKind())
}
