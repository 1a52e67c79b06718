package cmd

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/uastack/authgate/internal/config"
	"github.com/uastack/authgate/internal/impersonation"
	"github.com/uastack/authgate/internal/policy"
	"github.com/uastack/authgate/internal/roles"
	"github.com/uastack/authgate/internal/services/iam"

	internalauth "github.com/uastack/authgate/internal/auth"
)

var checkVerify bool

var checkCmd = &cobra.Command{
	Use:   "check <token>",
	Short: "Inspect a bearer token",
	Long: `Dumps the token's claims without verification. With --verify and a
configured policy file the token is additionally run through the first bearer
policy's external authority.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenString := args[0]

		claims := jwt.MapClaims{}
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return fmt.Errorf("token is not a parseable JWT: %w", err)
		}

		fmt.Println("claims (unverified):")
		for k, v := range claims {
			fmt.Printf("  %s: %v\n", k, v)
		}

		if !checkVerify {
			return nil
		}
		if cfg.PolicyPath == "" {
			return fmt.Errorf("--verify requires POLICY_PATH")
		}

		policies, validatorConfigs, err := config.LoadPolicies(cfg.PolicyPath)
		if err != nil {
			return fmt.Errorf("load policies: %w", err)
		}
		validatorSet := policy.NewValidatorSet(policies, validatorConfigs)

		validator := iam.NewCredentialValidator(
			nil,
			internalauth.NewOIDCVerifier(),
			nil,
			impersonation.NewLocalProvider(nil),
			validatorSet,
			roles.NewMapper(roles.DefaultTables()),
			cfg.ApplicationURI,
		)
		gate := iam.NewSessionlessRequestGate(policies, validator)

		ident, err := gate.Authorize(cmd.Context(), iam.ChannelSecurity{
			SecurityPolicyURI: "cli",
			Mode:              iam.SecurityModeSignAndEncrypt,
		}, iam.RequestToken{Identifier: tokenString})
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		fmt.Printf("verified: %s (%s)\n", ident.DisplayName(), ident.Kind())
		fmt.Print("roles:")
		for _, r := range ident.Roles() {
			fmt.Printf(" %s", r)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkVerify, "verify", false, "Verify the token against the configured authority")
	rootCmd.AddCommand(checkCmd)
}
