// Package roles maps scope tokens, usernames, and role-claim values to role
// identifiers.
//
// The three tables are populated during single-threaded startup and held in
// an immutable snapshot behind an atomic.Value, so request workers read them
// without synchronization. Reload builds a fresh snapshot out-of-band and
// swaps the pointer; readers see either the old or the new tables, never a
// partial update.
package roles

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/uastack/authgate/internal/db/models"
	"github.com/uastack/authgate/internal/identity"
	"github.com/uastack/authgate/internal/repository"
)

// Tables holds the three independent mappings. Keys are matched
// case-insensitively; values are ordered, deduplicated role sets.
type Tables struct {
	// Scopes maps scope-claim tokens to roles.
	Scopes map[string][]identity.Role

	// Users maps usernames to roles.
	Users map[string][]identity.Role

	// Claims maps role-claim values to roles.
	Claims map[string][]identity.Role
}

// DefaultTables returns the built-in seed tables.
func DefaultTables() Tables {
	return Tables{
		Scopes: map[string][]identity.Role{
			"uaserver": {identity.RoleObserver},
		},
		Users: map[string][]identity.Role{
			"gdsadmin": {identity.RoleSecurityAdmin},
			"appadmin": {identity.RoleEngineer},
			"appuser":  {identity.RoleOperator},
		},
		Claims: map[string][]identity.Role{
			"admin":     {identity.RoleSecurityAdmin, identity.RoleConfigureAdmin},
			"superuser": {identity.RoleEngineer},
			"user":      {identity.RoleOperator},
		},
	}
}

type snapshot struct {
	scopes  map[string][]identity.Role
	users   map[string][]identity.Role
	claims  map[string][]identity.Role
	version int
}

// Mapper provides lock-free lookups over the role tables.
type Mapper struct {
	snap atomic.Value // holds *snapshot
	repo repository.RoleMappingRepository
}

// NewMapper builds a mapper from in-memory tables.
func NewMapper(t Tables) *Mapper {
	m := &Mapper{}
	m.snap.Store(&snapshot{
		scopes:  foldKeys(t.Scopes),
		users:   foldKeys(t.Users),
		claims:  foldKeys(t.Claims),
		version: 1,
	})
	return m
}

// NewStoreMapper builds a mapper backed by the role-mapping repository and
// performs the initial load. The load must succeed before traffic starts.
func NewStoreMapper(ctx context.Context, repo repository.RoleMappingRepository) (*Mapper, error) {
	m := &Mapper{repo: repo}
	if err := m.Reload(ctx); err != nil {
		return nil, fmt.Errorf("initial role table load: %w", err)
	}
	return m, nil
}

func foldKeys(in map[string][]identity.Role) map[string][]identity.Role {
	out := make(map[string][]identity.Role, len(in))
	for k, v := range in {
		roles := make([]identity.Role, len(v))
		copy(roles, v)
		out[strings.ToLower(k)] = roles
	}
	return out
}

func (m *Mapper) current() *snapshot {
	v := m.snap.Load()
	if v == nil {
		return &snapshot{}
	}
	return v.(*snapshot)
}

// Reload rebuilds the tables from the repository and atomically swaps the
// snapshot. Out-of-band only; never called on the request path.
func (m *Mapper) Reload(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("mapper has no backing store")
	}

	rows, err := m.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list role mappings: %w", err)
	}

	next := &snapshot{
		scopes: make(map[string][]identity.Role),
		users:  make(map[string][]identity.Role),
		claims: make(map[string][]identity.Role),
	}
	for _, row := range rows {
		var table map[string][]identity.Role
		switch row.Kind {
		case models.MappingKindScope:
			table = next.scopes
		case models.MappingKindUser:
			table = next.users
		case models.MappingKindRole:
			table = next.claims
		default:
			return fmt.Errorf("role mapping %s: unknown table kind %q", row.ID, row.Kind)
		}
		key := strings.ToLower(row.Key)
		for _, name := range row.RoleList() {
			table[key] = append(table[key], identity.Role(name))
		}
	}

	if prev := m.snap.Load(); prev != nil {
		next.version = prev.(*snapshot).version + 1
	} else {
		next.version = 1
	}
	m.snap.Store(next)
	return nil
}

// Version returns the snapshot version, incremented on every reload.
func (m *Mapper) Version() int { return m.current().version }

// MapScopes splits a space-separated scope list, folds case, and unions the
// roles reachable through the scope table in first-seen order. Unknown scope
// tokens are skipped silently.
func (m *Mapper) MapScopes(scopeList string) []identity.Role {
	snap := m.current()

	var out []identity.Role
	seen := make(map[identity.Role]struct{})
	for _, token := range strings.Fields(scopeList) {
		roles, ok := snap.scopes[strings.ToLower(token)]
		if !ok {
			continue
		}
		for _, r := range roles {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// MapUser returns the roles granted to a username, or nil when unmapped.
func (m *Mapper) MapUser(name string) []identity.Role {
	return lookup(m.current().users, name)
}

// MapClaimRole returns the roles granted to a role-claim value, or nil when
// unmapped.
func (m *Mapper) MapClaimRole(name string) []identity.Role {
	return lookup(m.current().claims, name)
}

func lookup(table map[string][]identity.Role, key string) []identity.Role {
	roles, ok := table[strings.ToLower(key)]
	if !ok {
		return nil
	}
	out := make([]identity.Role, len(roles))
	copy(out, roles)
	return out
}
