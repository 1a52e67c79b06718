// Package rolemaps holds the role-mapping store commands.
package rolemaps

import "github.com/spf13/cobra"

// RolemapsCmd is the parent command for role-mapping operations.
var RolemapsCmd = &cobra.Command{
	Use:   "rolemaps",
	Short: "Manage the role-mapping store",
	Long:  `Commands for seeding and inspecting the scope/user/role mapping tables.`,
}

func init() {
	RolemapsCmd.AddCommand(seedCmd)
	RolemapsCmd.AddCommand(listCmd)
}
