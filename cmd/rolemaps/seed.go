package rolemaps

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/uastack/authgate/internal/config"
	"github.com/uastack/authgate/internal/db/bunx"
	"github.com/uastack/authgate/internal/db/models"
	"github.com/uastack/authgate/internal/migrations"
	"github.com/uastack/authgate/internal/repository"
	"github.com/uastack/authgate/internal/roles"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate the role_mappings schema and insert the default tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, repo, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = bunx.Close(db) }()

		migrator := migrate.NewMigrator(db, migrations.Migrations)
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("initialize migrator: %w", err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate role_mappings schema: %w", err)
		}

		defaults := roles.DefaultTables()
		n := 0
		n += seedTable(ctx, repo, models.MappingKindScope, defaults.Scopes)
		n += seedTable(ctx, repo, models.MappingKindUser, defaults.Users)
		n += seedTable(ctx, repo, models.MappingKindRole, defaults.Claims)

		fmt.Printf("seeded %d role mappings\n", n)
		return nil
	},
}

func seedTable[V ~string](ctx context.Context, repo repository.RoleMappingRepository, kind models.MappingKind, table map[string][]V) int {
	n := 0
	for key, granted := range table {
		names := make([]string, len(granted))
		for i, r := range granted {
			names[i] = string(r)
		}
		m := &models.RoleMapping{Kind: kind, Key: key}
		m.SetRoleList(names)
		if err := repo.Create(ctx, m); err != nil {
			fmt.Printf("skip %s/%s: %v\n", kind, key, err)
			continue
		}
		n++
	}
	return n
}

func openStore() (db *bun.DB, repo repository.RoleMappingRepository, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for rolemaps commands")
	}
	db, err = bunx.Open(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to role-mapping store: %w", err)
	}
	return db, repository.NewBunRoleMappingRepository(db), nil
}
