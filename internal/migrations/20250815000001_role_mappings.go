package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/uastack/authgate/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20250815000001, down_20250815000001)
}

// up_20250815000001 creates the role_mappings table
func up_20250815000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating role_mappings table...")

	_, err := db.NewCreateTable().
		Model((*models.RoleMapping)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create role_mappings table: %w", err)
	}

	// One entry per (table, key); seeding relies on this for idempotence.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_role_mappings_kind_key
		ON role_mappings (kind, key)
	`)
	if err != nil {
		return fmt.Errorf("failed to create role_mappings kind/key index: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_role_mappings_kind ON role_mappings(kind)`)
	if err != nil {
		return fmt.Errorf("failed to create role_mappings kind index: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20250815000001 drops the role_mappings table
func down_20250815000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping role_mappings table...")

	stmt := "DROP TABLE IF EXISTS role_mappings"
	if IsPostgreSQL(db) {
		stmt += " CASCADE"
	}
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to drop role_mappings table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
