package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// MappingKind selects which of the three role tables a row belongs to.
type MappingKind string

const (
	MappingKindScope MappingKind = "scope"
	MappingKindUser  MappingKind = "user"
	MappingKindRole  MappingKind = "role"
)

// RoleMapping is one key → role-set entry of the role-mapping tables.
// Keys are stored lowercased; lookups are case-insensitive.
type RoleMapping struct {
	bun.BaseModel `bun:"table:role_mappings,alias:rm"`

	ID string `bun:"id,pk"`

	// Kind is the table the entry belongs to (scope, user, role).
	Kind MappingKind `bun:"kind,notnull"`

	// Key is the lookup key (scope token, username, or role-claim value).
	Key string `bun:"key,notnull"`

	// Roles holds the granted role identifiers, comma-separated in
	// declaration order. Comma-joined rather than a native array so the same
	// model works on SQLite and PostgreSQL.
	Roles string `bun:"roles,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// RoleList splits the stored role set, preserving order.
func (m *RoleMapping) RoleList() []string {
	if m.Roles == "" {
		return nil
	}
	parts := strings.Split(m.Roles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SetRoleList stores the role set comma-joined.
func (m *RoleMapping) SetRoleList(roles []string) {
	m.Roles = strings.Join(roles, ",")
}
