package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uastack/authgate/internal/identity"
)

func TestNewWriteEnforcerSeedsRoleCatalog(t *testing.T) {
	enforcer, err := NewWriteEnforcer()
	require.NoError(t, err)

	for _, role := range identity.WellKnownRoles() {
		allowed, err := enforcer.Enforce(RoleID(role), WriteObject, WriteAction)
		require.NoError(t, err)
		if role == identity.RoleAnonymous {
			assert.False(t, allowed, "Anonymous must not be granted writes")
		} else {
			assert.True(t, allowed, "role %s", role)
		}
	}
}

func TestAllowsWrite(t *testing.T) {
	enforcer, err := NewWriteEnforcer()
	require.NoError(t, err)

	tests := []struct {
		name  string
		roles []identity.Role
		want  bool
	}{
		{"no roles", nil, false},
		{"anonymous only", []identity.Role{identity.RoleAnonymous}, false},
		{"authenticated user", []identity.Role{identity.RoleAuthenticatedUser}, true},
		{"any granting role suffices", []identity.Role{identity.RoleAnonymous, identity.RoleOperator}, true},
		{"unknown role", []identity.Role{identity.Role("Auditor")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AllowsWrite(enforcer, tt.roles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowsWriteNilEnforcer(t *testing.T) {
	_, err := AllowsWrite(nil, []identity.Role{identity.RoleOperator})
	assert.Error(t, err)
}
