package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uastack/authgate/cmd/rolemaps"
	"github.com/uastack/authgate/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "authgate",
	Short: "Authentication and authorization core for the protocol server",
	Long: `authgate validates inbound user credentials (certificate, bearer token,
legacy ticket, anonymous), resolves role-bearing identities, enforces the
write-access policy, and manages request-bound OS impersonation contexts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("db-url", "", "Role-mapping store DSN (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Diagnostics server bind address (env: SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DEBUG)")

	rootCmd.AddCommand(rolemaps.RolemapsCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
