package rolemaps

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uastack/authgate/internal/db/bunx"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored role mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, repo, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = bunx.Close(db) }()

		mappings, err := repo.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range mappings {
			fmt.Printf("%-6s %-20s %s\n", m.Kind, m.Key, m.Roles)
		}
		fmt.Printf("%d mappings\n", len(mappings))
		return nil
	},
}
