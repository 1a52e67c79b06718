package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uastack/authgate/internal/db/models"
	"github.com/uastack/authgate/internal/identity"
)

func TestMapScopesCaseInsensitiveUnion(t *testing.T) {
	m := NewMapper(Tables{
		Scopes: map[string][]identity.Role{
			"uaserver": {identity.RoleObserver},
			"admin":    {identity.RoleSecurityAdmin, identity.RoleObserver},
		},
	})

	got := m.MapScopes("UAServer admin")
	assert.Equal(t, []identity.Role{identity.RoleObserver, identity.RoleSecurityAdmin}, got)
}

func TestMapScopesSkipsUnknownTokens(t *testing.T) {
	m := NewMapper(DefaultTables())

	assert.Nil(t, m.MapScopes("offline_access openid"))
	assert.Equal(t, []identity.Role{identity.RoleObserver}, m.MapScopes("openid uaserver"))
}

func TestMapUser(t *testing.T) {
	m := NewMapper(DefaultTables())

	assert.Equal(t, []identity.Role{identity.RoleSecurityAdmin}, m.MapUser("GDSAdmin"))
	assert.Nil(t, m.MapUser("nobody"))
}

func TestMapClaimRole(t *testing.T) {
	m := NewMapper(DefaultTables())

	assert.Equal(t,
		[]identity.Role{identity.RoleSecurityAdmin, identity.RoleConfigureAdmin},
		m.MapClaimRole("Admin"))
	assert.Nil(t, m.MapClaimRole("guest"))
}

func TestMapUserReturnsCopy(t *testing.T) {
	m := NewMapper(DefaultTables())

	got := m.MapUser("appuser")
	require.Len(t, got, 1)
	got[0] = identity.RoleSecurityAdmin

	assert.Equal(t, []identity.Role{identity.RoleOperator}, m.MapUser("appuser"))
}

type fakeRoleMappingRepo struct {
	rows []models.RoleMapping
	err  error
}

func (f *fakeRoleMappingRepo) Create(context.Context, *models.RoleMapping) error { return nil }
func (f *fakeRoleMappingRepo) List(context.Context) ([]models.RoleMapping, error) {
	return f.rows, f.err
}
func (f *fakeRoleMappingRepo) ListByKind(context.Context, models.MappingKind) ([]models.RoleMapping, error) {
	return f.rows, f.err
}
func (f *fakeRoleMappingRepo) Delete(context.Context, string) error { return nil }

func mappingRow(kind models.MappingKind, key string, roles ...string) models.RoleMapping {
	m := models.RoleMapping{Kind: kind, Key: key}
	m.SetRoleList(roles)
	return m
}

func TestNewStoreMapperLoadsTables(t *testing.T) {
	repo := &fakeRoleMappingRepo{rows: []models.RoleMapping{
		mappingRow(models.MappingKindScope, "Telemetry", "Observer"),
		mappingRow(models.MappingKindUser, "ops", "Operator", "Engineer"),
		mappingRow(models.MappingKindRole, "admin", "SecurityAdmin"),
	}}

	m, err := NewStoreMapper(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Version())
	assert.Equal(t, []identity.Role{identity.RoleObserver}, m.MapScopes("telemetry"))
	assert.Equal(t, []identity.Role{identity.RoleOperator, identity.RoleEngineer}, m.MapUser("OPS"))
	assert.Equal(t, []identity.Role{identity.RoleSecurityAdmin}, m.MapClaimRole("admin"))
}

func TestNewStoreMapperFailsWhenListFails(t *testing.T) {
	repo := &fakeRoleMappingRepo{err: errors.New("connection refused")}

	_, err := NewStoreMapper(context.Background(), repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial role table load")
}

func TestReloadSwapsSnapshotAndBumpsVersion(t *testing.T) {
	repo := &fakeRoleMappingRepo{rows: []models.RoleMapping{
		mappingRow(models.MappingKindUser, "alice", "Observer"),
	}}

	m, err := NewStoreMapper(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, []identity.Role{identity.RoleObserver}, m.MapUser("alice"))

	repo.rows = []models.RoleMapping{
		mappingRow(models.MappingKindUser, "alice", "Engineer"),
	}
	require.NoError(t, m.Reload(context.Background()))

	assert.Equal(t, 2, m.Version())
	assert.Equal(t, []identity.Role{identity.RoleEngineer}, m.MapUser("alice"))
}

func TestReloadRejectsUnknownTableKind(t *testing.T) {
	repo := &fakeRoleMappingRepo{rows: []models.RoleMapping{
		mappingRow(models.MappingKind("group"), "ops", "Operator"),
	}}

	_, err := NewStoreMapper(context.Background(), repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table kind")
}

func TestReloadWithoutStoreFails(t *testing.T) {
	m := NewMapper(DefaultTables())

	err := m.Reload(context.Background())
	require.Error(t, err)
}
