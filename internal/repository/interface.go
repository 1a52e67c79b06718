// Package repository defines persistence interfaces for the role-mapping
// store and their Bun-backed implementations.
package repository

import (
	"context"

	"github.com/uastack/authgate/internal/db/models"
)

// RoleMappingRepository stores the scope/user/role-claim mapping tables.
type RoleMappingRepository interface {
	// Create inserts a new mapping entry, assigning an id if empty.
	Create(ctx context.Context, m *models.RoleMapping) error

	// List returns every mapping entry.
	List(ctx context.Context) ([]models.RoleMapping, error)

	// ListByKind returns the entries of one mapping table.
	ListByKind(ctx context.Context, kind models.MappingKind) ([]models.RoleMapping, error)

	// Delete removes an entry by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
