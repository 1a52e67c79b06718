package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/uastack/authgate/internal/db/bunx"
	"github.com/uastack/authgate/internal/db/models"
)

// BunRoleMappingRepository implements RoleMappingRepository using Bun ORM.
type BunRoleMappingRepository struct {
	db *bun.DB
}

// NewBunRoleMappingRepository creates a new Bun-based role-mapping repository.
func NewBunRoleMappingRepository(db *bun.DB) RoleMappingRepository {
	return &BunRoleMappingRepository{db: db}
}

// Create inserts a new mapping entry. Keys are folded to lower case so the
// mapper's case-insensitive lookups hold regardless of how rows were seeded.
func (r *BunRoleMappingRepository) Create(ctx context.Context, m *models.RoleMapping) error {
	if m.ID == "" {
		m.ID = bunx.NewUUIDv7()
	}
	m.Key = strings.ToLower(m.Key)

	_, err := r.db.NewInsert().
		Model(m).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create role mapping: %w", err)
	}
	return nil
}

// List returns every mapping entry ordered by creation.
func (r *BunRoleMappingRepository) List(ctx context.Context) ([]models.RoleMapping, error) {
	var mappings []models.RoleMapping
	err := r.db.NewSelect().
		Model(&mappings).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list role mappings: %w", err)
	}
	return mappings, nil
}

// ListByKind returns the entries of one mapping table.
func (r *BunRoleMappingRepository) ListByKind(ctx context.Context, kind models.MappingKind) ([]models.RoleMapping, error) {
	var mappings []models.RoleMapping
	err := r.db.NewSelect().
		Model(&mappings).
		Where("kind = ?", kind).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list role mappings by kind: %w", err)
	}
	return mappings, nil
}

// Delete removes an entry by id.
func (r *BunRoleMappingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.RoleMapping)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete role mapping: %w", err)
	}
	return nil
}
